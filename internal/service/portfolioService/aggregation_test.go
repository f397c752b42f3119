package portfolioService

import (
	"context"
	"testing"
	"time"

	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/kazuke353/Magnus-sub000/internal/model/t212Model"
	"github.com/kazuke353/Magnus-sub000/internal/model/yahooModel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func position(ticker string, invested, current int64) t212Model.Position {
	return t212Model.Position{
		Ticker:        ticker,
		OwnedQuantity: decimal.NewFromInt(1),
		Result: t212Model.PositionResult{
			PriceAvgInvestedValue: decimal.NewFromInt(invested),
			PriceAvgValue:         decimal.NewFromInt(current),
		},
	}
}

func TestAggregateBucketTotals(t *testing.T) {
	brokerage := &fakeBrokerage{
		details: map[int64]t212Model.PieDetail{
			1: {
				Settings: t212Model.PieSettings{
					ID:           1,
					Name:         "Tech (30%)",
					CreationDate: "2023-04-01T10:00:00Z",
				},
				Instruments: []t212Model.Position{
					position("AAPL_US_EQ", 600, 700),
					position("MSFT_US_EQ", 400, 500),
				},
			},
		},
	}
	market := &fakeMarket{
		perfs: map[string]yahooModel.Performance{
			"AAPL_US_EQ": {Symbol: "AAPL", DividendYield: decimal.NewFromFloat(0.5), Perf1Y: decPtr(20)},
			"MSFT_US_EQ": {Symbol: "MSFT", DividendYield: decimal.NewFromFloat(0.8), Perf1Y: decPtr(15)},
		},
	}
	s := newTestService(brokerage, market, &fakeRepo{})

	bucket, err := s.aggregateBucket(context.Background(), "key", "US", t212Model.PieRef{ID: 1}, &metadataCache{byTicker: map[string]t212Model.Instrument{
		"AAPL_US_EQ": {Ticker: "AAPL_US_EQ", Name: "Apple Inc", CurrencyCode: "USD", Exchange: "NASDAQ", Type: "STOCK"},
	}})

	require.NoError(t, err)
	assert.Equal(t, "Tech (30%)", bucket.Name)
	assert.Equal(t, 2023, bucket.CreatedAt.Year())
	require.Len(t, bucket.Holdings, 2)

	assert.True(t, bucket.TotalInvested.Equal(decimal.NewFromInt(1000)))
	assert.True(t, bucket.TotalValue.Equal(decimal.NewFromInt(1200)))
	assert.True(t, bucket.TotalResult.Equal(decimal.NewFromInt(200)))
	assert.True(t, bucket.ReturnPercentage.Equal(decimal.NewFromInt(20)), "got %s", bucket.ReturnPercentage)

	apple := bucket.Holdings[0]
	assert.Equal(t, "Apple Inc", apple.FullName)
	assert.Equal(t, "NASDAQ", apple.Exchange)
	assert.True(t, apple.ResultValue.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, apple.Performance1Y)
	assert.True(t, apple.Performance1Y.Equal(decimal.NewFromInt(20)))

	// No metadata entry for MSFT: brokerage figures still flow through.
	msft := bucket.Holdings[1]
	assert.Empty(t, msft.FullName)
	assert.True(t, msft.CurrentValue.Equal(decimal.NewFromInt(500)))
}

func TestAggregateBucketEnrichmentFailureKeepsHolding(t *testing.T) {
	brokerage := &fakeBrokerage{
		details: map[int64]t212Model.PieDetail{
			1: {
				Settings: t212Model.PieSettings{ID: 1, Name: "Growth"},
				Instruments: []t212Model.Position{
					position("FAIL_US_EQ", 100, 150),
				},
			},
		},
	}
	market := &fakeMarket{err: errFakeUnavailable}
	s := newTestService(brokerage, market, &fakeRepo{})

	bucket, err := s.aggregateBucket(context.Background(), "key", "US", t212Model.PieRef{ID: 1}, &metadataCache{byTicker: map[string]t212Model.Instrument{}})

	require.NoError(t, err)
	require.Len(t, bucket.Holdings, 1)

	holding := bucket.Holdings[0]
	assert.Equal(t, "FAIL_US_EQ", holding.Ticker)
	assert.True(t, holding.DividendYield.IsZero())
	assert.Nil(t, holding.Performance1W)
	assert.Nil(t, holding.Performance1Y)

	// Totals still come from brokerage values alone.
	assert.True(t, bucket.TotalValue.Equal(decimal.NewFromInt(150)))
	assert.True(t, bucket.TotalResult.Equal(decimal.NewFromInt(50)))
}

func TestAggregateBucketZeroInvested(t *testing.T) {
	brokerage := &fakeBrokerage{
		details: map[int64]t212Model.PieDetail{
			1: {
				Settings:    t212Model.PieSettings{ID: 1, Name: "Empty"},
				Instruments: []t212Model.Position{},
			},
		},
	}
	s := newTestService(brokerage, &fakeMarket{}, &fakeRepo{})

	bucket, err := s.aggregateBucket(context.Background(), "key", "US", t212Model.PieRef{ID: 1}, &metadataCache{byTicker: map[string]t212Model.Instrument{}})

	require.NoError(t, err)
	assert.True(t, bucket.ReturnPercentage.IsZero())
}

func TestAggregateBucketsOmitsFailedPiePreservesOrder(t *testing.T) {
	brokerage := &fakeBrokerage{
		details: map[int64]t212Model.PieDetail{
			1: {Settings: t212Model.PieSettings{ID: 1, Name: "First"}},
			3: {Settings: t212Model.PieSettings{ID: 3, Name: "Third"}},
		},
		detailErr: map[int64]error{
			2: errFakeUnavailable,
		},
	}
	s := newTestService(brokerage, &fakeMarket{}, &fakeRepo{})

	buckets := s.aggregateBuckets(context.Background(), "key", "US", []t212Model.PieRef{{ID: 1}, {ID: 2}, {ID: 3}}, &metadataCache{byTicker: map[string]t212Model.Instrument{}})

	require.Len(t, buckets, 2)
	assert.Equal(t, "First", buckets[0].Name)
	assert.Equal(t, "Third", buckets[1].Name)
}

func TestSummarize(t *testing.T) {
	fetchDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	buckets := []model.Bucket{
		{Name: "A", TotalInvested: decimal.NewFromInt(1000), TotalResult: decimal.NewFromInt(200)},
		{Name: "B", TotalInvested: decimal.NewFromInt(500), TotalResult: decimal.NewFromInt(-50)},
		{Name: reservedBucketName, TotalInvested: decimal.NewFromInt(9999), TotalResult: decimal.NewFromInt(9999)},
	}

	summary := summarize(buckets, decimal.NewFromInt(75), fetchDate)

	assert.True(t, summary.TotalInvested.Equal(decimal.NewFromInt(1500)))
	assert.True(t, summary.TotalResult.Equal(decimal.NewFromInt(150)))
	assert.True(t, summary.ReturnPercentage.Equal(decimal.NewFromInt(10)), "got %s", summary.ReturnPercentage)
	assert.True(t, summary.FreeCash.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, fetchDate, summary.FetchDate)
}

func TestSummarizeZeroInvested(t *testing.T) {
	summary := summarize(nil, decimal.Zero, time.Now())

	assert.True(t, summary.TotalInvested.IsZero())
	assert.True(t, summary.ReturnPercentage.IsZero())
}
