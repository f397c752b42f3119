package portfolioService

import (
	"testing"

	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTargetFromName(t *testing.T) {
	tests := []struct {
		name       string
		bucketName string
		want       string
		found      bool
	}{
		{name: "integer percent", bucketName: "Tech (30%)", want: "30", found: true},
		{name: "fractional percent", bucketName: "Bonds (12.5%)", want: "12.5", found: true},
		{name: "no percent", bucketName: "Tech", found: false},
		{name: "malformed percent", bucketName: "Tech (abc%)", found: false},
		{name: "empty name", bucketName: "", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, found := parseTargetFromName(tt.bucketName)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.True(t, target.Equal(decimal.RequireFromString(tt.want)), "got %s", target)
			}
		})
	}
}

func TestResolveTargetAllocations(t *testing.T) {
	buckets := []model.Bucket{
		{Name: "Growth"},
		{Name: "Tech (30%)"},
		{Name: "Dividends"},
	}
	stored := map[string]decimal.Decimal{
		"Growth": decimal.NewFromInt(50),
	}

	resolveTargetAllocations(buckets, stored)

	// Stored preference wins over everything.
	assert.True(t, buckets[0].TargetAllocation.Equal(decimal.NewFromInt(50)))
	// Name parse beats equal split.
	assert.True(t, buckets[1].TargetAllocation.Equal(decimal.NewFromInt(30)))
	// Fallback: equal split over 3 buckets.
	assert.InDelta(t, 100.0/3.0, buckets[2].TargetAllocation.InexactFloat64(), 1e-9)
}

func TestResolveTargetAllocationsStoredBeatsName(t *testing.T) {
	buckets := []model.Bucket{{Name: "Tech (30%)"}}
	stored := map[string]decimal.Decimal{"Tech (30%)": decimal.NewFromInt(45)}

	resolveTargetAllocations(buckets, stored)

	assert.True(t, buckets[0].TargetAllocation.Equal(decimal.NewFromInt(45)))
}

func TestResolveTargetAllocationsSkipsReservedBucket(t *testing.T) {
	buckets := []model.Bucket{
		{Name: reservedBucketName},
		{Name: "A"},
		{Name: "B"},
	}

	resolveTargetAllocations(buckets, nil)

	assert.True(t, buckets[0].TargetAllocation.IsZero())
	// Equal split over the two real buckets, not three.
	assert.True(t, buckets[1].TargetAllocation.Equal(decimal.NewFromInt(50)))
	assert.True(t, buckets[2].TargetAllocation.Equal(decimal.NewFromInt(50)))
}

func TestAnalyzeAllocationPercentages(t *testing.T) {
	buckets := []model.Bucket{
		{Name: "A", TotalValue: decimal.NewFromInt(600), TargetAllocation: decimal.NewFromInt(50)},
		{Name: "B", TotalValue: decimal.NewFromInt(400), TargetAllocation: decimal.NewFromInt(50)},
	}

	analysis := analyzeAllocation(buckets, decimal.Zero)

	require.Len(t, analysis.Allocations, 2)
	assert.InDelta(t, 60.0, analysis.Allocations[0].CurrentPercent.InexactFloat64(), 1e-9)
	assert.InDelta(t, 40.0, analysis.Allocations[1].CurrentPercent.InexactFloat64(), 1e-9)

	assert.InDelta(t, 10.0, analysis.Allocations[0].Difference.InexactFloat64(), 1e-9)
	assert.InDelta(t, -10.0, analysis.Allocations[1].Difference.InexactFloat64(), 1e-9)
}

func TestAnalyzeAllocationPercentagesSumTo100(t *testing.T) {
	buckets := []model.Bucket{
		{Name: "A", TotalValue: decimal.RequireFromString("123.45")},
		{Name: "B", TotalValue: decimal.RequireFromString("678.90")},
		{Name: "C", TotalValue: decimal.RequireFromString("0.01")},
	}

	analysis := analyzeAllocation(buckets, decimal.Zero)

	sum := decimal.Zero
	for _, alloc := range analysis.Allocations {
		sum = sum.Add(alloc.CurrentPercent)
	}

	assert.InDelta(t, 100.0, sum.InexactFloat64(), 1e-6)
}

func TestAnalyzeAllocationZeroTotal(t *testing.T) {
	buckets := []model.Bucket{
		{Name: "A", TotalValue: decimal.Zero},
		{Name: "B", TotalValue: decimal.Zero},
	}

	analysis := analyzeAllocation(buckets, decimal.NewFromInt(100))

	for _, alloc := range analysis.Allocations {
		assert.True(t, alloc.CurrentPercent.IsZero())
	}
	assert.True(t, analysis.EstimatedAnnualDividend.IsZero())
}

func TestAnalyzeAllocationExcludesReservedBucket(t *testing.T) {
	buckets := []model.Bucket{
		{Name: "A", TotalValue: decimal.NewFromInt(500)},
		{Name: reservedBucketName, TotalValue: decimal.NewFromInt(500)},
	}

	analysis := analyzeAllocation(buckets, decimal.Zero)

	require.Len(t, analysis.Allocations, 1)
	assert.InDelta(t, 100.0, analysis.Allocations[0].CurrentPercent.InexactFloat64(), 1e-9)
}

func TestEstimateAnnualDividend(t *testing.T) {
	buckets := []model.Bucket{
		{
			Name:       "Income",
			TotalValue: decimal.NewFromInt(1000),
			Holdings: []model.Holding{
				{
					Ticker:        "DIV",
					CurrentValue:  decimal.NewFromInt(1000),
					DividendYield: decimal.NewFromInt(5),
				},
			},
		},
	}

	// Current position: 1000 * 5% = 50.
	// Projected: 12 * 100 budget, all allocated to the single holding: 1200 * 5% = 60.
	analysis := analyzeAllocation(buckets, decimal.NewFromInt(100))

	assert.InDelta(t, 110.0, analysis.EstimatedAnnualDividend.InexactFloat64(), 1e-9)
}

func TestEstimateAnnualDividendZeroYieldHoldings(t *testing.T) {
	buckets := []model.Bucket{
		{
			Name:       "Growth",
			TotalValue: decimal.NewFromInt(1000),
			Holdings: []model.Holding{
				{Ticker: "GRW", CurrentValue: decimal.NewFromInt(1000)},
			},
		},
	}

	analysis := analyzeAllocation(buckets, decimal.NewFromInt(100))

	assert.True(t, analysis.EstimatedAnnualDividend.IsZero())
}
