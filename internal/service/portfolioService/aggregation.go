package portfolioService

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/kazuke353/Magnus-sub000/internal/externalApi/yahooApi"
	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/kazuke353/Magnus-sub000/internal/model/t212Model"
	"github.com/kazuke353/Magnus-sub000/internal/model/yahooModel"
	"github.com/kazuke353/Magnus-sub000/utils"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

const (
	defaultBucketConcurrency  = 4
	defaultHoldingConcurrency = 8
)

// aggregateBuckets fans out over all pies with bounded parallelism. A pie
// whose fetch fails entirely is logged and omitted; siblings keep going.
// Output preserves input order.
func (s *PortfolioService) aggregateBuckets(ctx context.Context, apiKey, countryCode string, pies []t212Model.PieRef, meta *metadataCache) []model.Bucket {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.aggregateBuckets"

	concurrency := s.cfg.Engine.BucketConcurrency
	if concurrency <= 0 {
		concurrency = defaultBucketConcurrency
	}

	results := make([]*model.Bucket, len(pies))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, pie := range pies {
		wg.Add(1)
		go func(i int, pie t212Model.PieRef) {
			defer wg.Done()
			defer recoverTask(rqID, op)

			sem <- struct{}{}
			defer func() { <-sem }()

			bucket, err := s.aggregateBucket(ctx, apiKey, countryCode, pie, meta)
			if err != nil {
				slog.Error("bucket omitted from run", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("pieID", pie.ID), slog.String("err", err.Error()))
				return
			}
			results[i] = &bucket
		}(i, pie)
	}

	wg.Wait()

	buckets := make([]model.Bucket, 0, len(pies))
	for _, b := range results {
		if b != nil {
			buckets = append(buckets, *b)
		}
	}

	return buckets
}

// aggregateBucket builds one bucket: raw holdings from the brokerage, joined
// with static metadata and market enrichment, then totals. Per-holding
// enrichment failures degrade that holding only.
func (s *PortfolioService) aggregateBucket(ctx context.Context, apiKey, countryCode string, pie t212Model.PieRef, meta *metadataCache) (model.Bucket, error) {
	detail, err := s.brokerage.GetPieDetail(ctx, apiKey, pie.ID)
	if err != nil {
		return model.Bucket{}, fmt.Errorf("get pie detail: %w", err)
	}

	holdings := s.enrichHoldings(ctx, countryCode, detail.Instruments, meta)

	bucket := model.Bucket{
		ID:                 detail.Settings.ID,
		Name:               detail.Settings.Name,
		DividendCashAction: detail.Settings.DividendCashAction,
		Holdings:           holdings,
	}

	if created, err := time.Parse(time.RFC3339, detail.Settings.CreationDate); err == nil {
		bucket.CreatedAt = created
	}

	bucket.TotalInvested = lo.Reduce(holdings, func(acc decimal.Decimal, h model.Holding, _ int) decimal.Decimal {
		return acc.Add(h.InvestedValue)
	}, decimal.Zero)

	bucket.TotalValue = lo.Reduce(holdings, func(acc decimal.Decimal, h model.Holding, _ int) decimal.Decimal {
		return acc.Add(h.CurrentValue)
	}, decimal.Zero)

	bucket.TotalResult = bucket.TotalValue.Sub(bucket.TotalInvested)

	if !bucket.TotalInvested.IsZero() {
		bucket.ReturnPercentage = bucket.TotalResult.Div(bucket.TotalInvested).Mul(decimal.NewFromInt(100))
	}

	return bucket, nil
}

// enrichHoldings attaches metadata (in-memory lookup) and market performance
// (network, bounded fan-out) to each position. Results join positionally, so
// no locking is needed: every worker writes only its own slot.
func (s *PortfolioService) enrichHoldings(ctx context.Context, countryCode string, positions []t212Model.Position, meta *metadataCache) []model.Holding {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.enrichHoldings"

	concurrency := s.cfg.Engine.HoldingConcurrency
	if concurrency <= 0 {
		concurrency = defaultHoldingConcurrency
	}

	holdings := make([]model.Holding, len(positions))
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, pos := range positions {
		wg.Add(1)
		go func(i int, pos t212Model.Position) {
			defer wg.Done()
			defer recoverTask(rqID, op)

			sem <- struct{}{}
			defer func() { <-sem }()

			holdings[i] = s.buildHolding(ctx, countryCode, pos, meta)
		}(i, pos)
	}

	wg.Wait()

	return holdings
}

func (s *PortfolioService) buildHolding(ctx context.Context, countryCode string, pos t212Model.Position, meta *metadataCache) model.Holding {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.buildHolding"

	holding := model.Holding{
		Ticker:        pos.Ticker,
		Quantity:      pos.OwnedQuantity,
		InvestedValue: pos.Result.PriceAvgInvestedValue,
		CurrentValue:  pos.Result.PriceAvgValue,
		ResultValue:   pos.Result.PriceAvgValue.Sub(pos.Result.PriceAvgInvestedValue),
	}

	if inst, ok := meta.lookup(pos.Ticker); ok {
		holding.FullName = inst.Name
		holding.CurrencyCode = inst.CurrencyCode
		holding.Exchange = inst.Exchange
		holding.Type = inst.Type
	}

	perf, err := s.getPerformance(ctx, pos.Ticker, countryCode)
	if err != nil {
		// Enrichment is best-effort: the bare holding still counts toward
		// bucket totals with brokerage figures alone.
		slog.Warn("enrichment unavailable for holding", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", pos.Ticker), slog.String("err", err.Error()))
		return holding
	}

	holding.DividendYield = perf.DividendYield
	holding.Performance1W = perf.Perf1W
	holding.Performance1M = perf.Perf1M
	holding.Performance3M = perf.Perf3M
	holding.Performance1Y = perf.Perf1Y

	return holding
}

// getPerformance is cache-aside over the market client, keyed by the
// provider symbol so the watchlist refresh job shares entries.
func (s *PortfolioService) getPerformance(ctx context.Context, ticker, countryCode string) (yahooModel.Performance, error) {
	if perf, err := s.cache.GetPerformance(ctx, yahooApi.ToProviderSymbol(ticker)); err == nil {
		return perf, nil
	}

	perf, err := s.market.GetPerformance(ctx, ticker, countryCode)
	if err != nil {
		return yahooModel.Performance{}, err
	}

	go s.cache.SetPerformance(context.WithoutCancel(ctx), perf)

	return perf, nil
}

// summarize reduces bucket totals plus free cash into the overall summary.
// The reserved bookkeeping pseudo-bucket is skipped.
func summarize(buckets []model.Bucket, freeCash decimal.Decimal, fetchDate time.Time) model.OverallSummary {
	summary := model.OverallSummary{
		FreeCash:  freeCash,
		FetchDate: fetchDate,
	}

	for _, bucket := range buckets {
		if bucket.Name == reservedBucketName {
			continue
		}
		summary.TotalInvested = summary.TotalInvested.Add(bucket.TotalInvested)
		summary.TotalResult = summary.TotalResult.Add(bucket.TotalResult)
	}

	if !summary.TotalInvested.IsZero() {
		summary.ReturnPercentage = summary.TotalResult.Div(summary.TotalInvested).Mul(decimal.NewFromInt(100))
	}

	return summary
}

func recoverTask(rqID, op string) {
	if r := recover(); r != nil {
		slog.Error(
			"panic recovered in aggregation task",
			slog.String("rqID", rqID),
			slog.String("op", op),
			slog.Any("panic", r),
			slog.String("stacktrace", string(debug.Stack())),
		)
	}
}
