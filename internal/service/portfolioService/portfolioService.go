package portfolioService

import (
	"context"
	"log/slog"
	"time"

	"github.com/kazuke353/Magnus-sub000/config"
	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/kazuke353/Magnus-sub000/internal/model/t212Model"
	"github.com/kazuke353/Magnus-sub000/internal/model/yahooModel"
	"github.com/kazuke353/Magnus-sub000/utils"
	"github.com/shopspring/decimal"
)

// reservedBucketName marks the brokerage's internal bookkeeping pseudo-pie.
// It never takes part in summary or allocation math.
const reservedBucketName = "RESERVED"

type BrokerageApi interface {
	GetCashBalance(ctx context.Context, apiKey string) (t212Model.CashBalance, error)
	ListPies(ctx context.Context, apiKey string) ([]t212Model.PieRef, error)
	GetPieDetail(ctx context.Context, apiKey string, pieID int64) (t212Model.PieDetail, error)
	GetInstruments(ctx context.Context, apiKey string) ([]t212Model.Instrument, error)
}

type MarketApi interface {
	GetPerformance(ctx context.Context, ticker, region string) (yahooModel.Performance, error)
	SearchInstruments(ctx context.Context, query string, limit int) ([]yahooModel.SearchResult, error)
	GetInstrumentDetails(ctx context.Context, symbol string) (yahooModel.InstrumentDetails, error)
}

type Cache interface {
	GetPerformance(ctx context.Context, symbol string) (yahooModel.Performance, error)
	SetPerformance(ctx context.Context, perf yahooModel.Performance) error
	SetPerformances(ctx context.Context, perfs []yahooModel.Performance) error
	GetMetrics(ctx context.Context, userID int64) (model.PerformanceMetrics, error)
	SetMetrics(ctx context.Context, userID int64, metrics model.PerformanceMetrics) error
}

type Repository interface {
	GetBrokerageApiKey(ctx context.Context, userID int64) (string, error)
	GetBucketTargets(ctx context.Context, userID int64) (map[string]decimal.Decimal, error)
	UpsertBucketTarget(ctx context.Context, userID int64, pref model.BucketPreference) error
	UpsertInstrumentNote(ctx context.Context, userID int64, note model.InstrumentNote) error
	GetInstrumentNotes(ctx context.Context, userID int64) ([]model.InstrumentNote, error)
	AddToWatchlist(ctx context.Context, userID int64, ticker string) error
	RemoveFromWatchlist(ctx context.Context, userID int64, ticker string) error
	GetWatchlist(ctx context.Context, userID int64) ([]string, error)
	GetWatchedTickers(ctx context.Context) ([]string, error)
}

type ReportGenerator interface {
	Generate(ctx context.Context, metrics model.PerformanceMetrics) (fileBytes []byte, fileExtension string, err error)
}

type CloudStorage interface {
	UploadFile(ctx context.Context, fileBytes []byte, filename string) (downloadLink string, err error)
}

type PortfolioService struct {
	cfg          *config.Config
	repo         Repository
	cache        Cache
	brokerage    BrokerageApi
	market       MarketApi
	reportGen    ReportGenerator
	cloudStorage CloudStorage
}

func New(
	cfg *config.Config,
	repo Repository,
	cache Cache,
	brokerage BrokerageApi,
	market MarketApi,
	reportGen ReportGenerator,
	cloudStorage CloudStorage,
) *PortfolioService {
	return &PortfolioService{
		cfg:          cfg,
		repo:         repo,
		cache:        cache,
		brokerage:    brokerage,
		market:       market,
		reportGen:    reportGen,
		cloudStorage: cloudStorage,
	}
}

// metadataCache holds the static instrument attributes for one aggregation
// run. Populated synchronously before any bucket work starts and read-only
// afterwards, so bucket workers can share it without locks.
type metadataCache struct {
	byTicker map[string]t212Model.Instrument
}

func (c *metadataCache) lookup(ticker string) (t212Model.Instrument, bool) {
	inst, ok := c.byTicker[ticker]
	return inst, ok
}

// FetchPortfolioData runs the whole aggregation pipeline for one user. Every
// collaborator failure degrades to a zero/empty value; a portfolio that
// cannot be reached at all comes back as fully populated but empty metrics,
// never as an error.
func (s *PortfolioService) FetchPortfolioData(ctx context.Context, userID int64, monthlyBudget decimal.Decimal, countryCode string) model.PerformanceMetrics {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.FetchPortfolioData"

	slog.Debug("FetchPortfolioData start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID))
	defer func() {
		slog.Debug("FetchPortfolioData finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID))
	}()

	fetchDate := time.Now()

	apiKey, err := s.repo.GetBrokerageApiKey(ctx, userID)
	if err != nil {
		slog.Error("got error from repo.GetBrokerageApiKey", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return emptyMetrics(fetchDate)
	}

	// Static instrument metadata, once per run.
	meta := s.loadMetadataCache(ctx, apiKey)

	// Free cash is non-fatal: unavailable means 0.
	freeCash := decimal.Zero
	if cash, err := s.brokerage.GetCashBalance(ctx, apiKey); err != nil {
		slog.Warn("cash balance unavailable, treating as 0", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
	} else {
		freeCash = cash.Free
	}

	pies, err := s.brokerage.ListPies(ctx, apiKey)
	if err != nil {
		slog.Error("got error from brokerage.ListPies", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		pies = nil
	}

	buckets := s.aggregateBuckets(ctx, apiKey, countryCode, pies, meta)

	targets, err := s.repo.GetBucketTargets(ctx, userID)
	if err != nil {
		slog.Warn("stored bucket targets unavailable", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		targets = nil
	}
	resolveTargetAllocations(buckets, targets)

	summary := summarize(buckets, freeCash, fetchDate)
	analysis := analyzeAllocation(buckets, monthlyBudget)

	metrics := model.PerformanceMetrics{
		Buckets:                      buckets,
		OverallSummary:               summary,
		AllocationAnalysis:           analysis,
		RebalanceInvestmentForTarget: s.PlanRebalance(analysis, decimal.Zero),
		FreeCashAvailable:            freeCash,
		FetchDate:                    fetchDate,
	}

	go s.cache.SetMetrics(context.WithoutCancel(ctx), userID, metrics)

	return metrics
}

func (s *PortfolioService) loadMetadataCache(ctx context.Context, apiKey string) *metadataCache {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.loadMetadataCache"

	meta := &metadataCache{byTicker: map[string]t212Model.Instrument{}}

	instruments, err := s.brokerage.GetInstruments(ctx, apiKey)
	if err != nil {
		slog.Warn("instrument metadata unavailable, holdings stay bare", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return meta
	}

	for _, inst := range instruments {
		meta.byTicker[inst.Ticker] = inst
	}

	return meta
}

func emptyMetrics(fetchDate time.Time) model.PerformanceMetrics {
	return model.PerformanceMetrics{
		Buckets: []model.Bucket{},
		OverallSummary: model.OverallSummary{
			FetchDate: fetchDate,
		},
		AllocationAnalysis: model.AllocationAnalysis{
			Allocations: []model.BucketAllocation{},
		},
		RebalanceInvestmentForTarget: []model.RebalanceAction{},
		FetchDate:                    fetchDate,
	}
}
