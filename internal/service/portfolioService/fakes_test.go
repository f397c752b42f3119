package portfolioService

import (
	"context"
	"errors"

	"github.com/kazuke353/Magnus-sub000/config"
	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/kazuke353/Magnus-sub000/internal/model/t212Model"
	"github.com/kazuke353/Magnus-sub000/internal/model/yahooModel"
	"github.com/shopspring/decimal"
)

var errFakeUnavailable = errors.New("fake unavailable")

type fakeBrokerage struct {
	cash           t212Model.CashBalance
	cashErr        error
	pies           []t212Model.PieRef
	piesErr        error
	details        map[int64]t212Model.PieDetail
	detailErr      map[int64]error
	instruments    []t212Model.Instrument
	instrumentsErr error
}

func (f *fakeBrokerage) GetCashBalance(ctx context.Context, apiKey string) (t212Model.CashBalance, error) {
	return f.cash, f.cashErr
}

func (f *fakeBrokerage) ListPies(ctx context.Context, apiKey string) ([]t212Model.PieRef, error) {
	return f.pies, f.piesErr
}

func (f *fakeBrokerage) GetPieDetail(ctx context.Context, apiKey string, pieID int64) (t212Model.PieDetail, error) {
	if err, ok := f.detailErr[pieID]; ok {
		return t212Model.PieDetail{}, err
	}
	detail, ok := f.details[pieID]
	if !ok {
		return t212Model.PieDetail{}, errFakeUnavailable
	}
	return detail, nil
}

func (f *fakeBrokerage) GetInstruments(ctx context.Context, apiKey string) ([]t212Model.Instrument, error) {
	return f.instruments, f.instrumentsErr
}

type fakeMarket struct {
	perfs map[string]yahooModel.Performance
	err   error
}

func (f *fakeMarket) GetPerformance(ctx context.Context, ticker, region string) (yahooModel.Performance, error) {
	if f.err != nil {
		return yahooModel.Performance{}, f.err
	}
	perf, ok := f.perfs[ticker]
	if !ok {
		return yahooModel.Performance{}, errFakeUnavailable
	}
	return perf, nil
}

func (f *fakeMarket) SearchInstruments(ctx context.Context, query string, limit int) ([]yahooModel.SearchResult, error) {
	return nil, nil
}

func (f *fakeMarket) GetInstrumentDetails(ctx context.Context, symbol string) (yahooModel.InstrumentDetails, error) {
	return yahooModel.InstrumentDetails{}, errFakeUnavailable
}

// fakeCache always misses and swallows writes.
type fakeCache struct{}

func (f *fakeCache) GetPerformance(ctx context.Context, symbol string) (yahooModel.Performance, error) {
	return yahooModel.Performance{}, errFakeUnavailable
}

func (f *fakeCache) SetPerformance(ctx context.Context, perf yahooModel.Performance) error {
	return nil
}

func (f *fakeCache) SetPerformances(ctx context.Context, perfs []yahooModel.Performance) error {
	return nil
}

func (f *fakeCache) GetMetrics(ctx context.Context, userID int64) (model.PerformanceMetrics, error) {
	return model.PerformanceMetrics{}, errFakeUnavailable
}

func (f *fakeCache) SetMetrics(ctx context.Context, userID int64, metrics model.PerformanceMetrics) error {
	return nil
}

type fakeRepo struct {
	apiKey     string
	apiKeyErr  error
	targets    map[string]decimal.Decimal
	targetsErr error
	watched    []string
}

func (f *fakeRepo) GetBrokerageApiKey(ctx context.Context, userID int64) (string, error) {
	return f.apiKey, f.apiKeyErr
}

func (f *fakeRepo) GetBucketTargets(ctx context.Context, userID int64) (map[string]decimal.Decimal, error) {
	return f.targets, f.targetsErr
}

func (f *fakeRepo) UpsertBucketTarget(ctx context.Context, userID int64, pref model.BucketPreference) error {
	return nil
}

func (f *fakeRepo) UpsertInstrumentNote(ctx context.Context, userID int64, note model.InstrumentNote) error {
	return nil
}

func (f *fakeRepo) GetInstrumentNotes(ctx context.Context, userID int64) ([]model.InstrumentNote, error) {
	return nil, nil
}

func (f *fakeRepo) AddToWatchlist(ctx context.Context, userID int64, ticker string) error {
	return nil
}

func (f *fakeRepo) RemoveFromWatchlist(ctx context.Context, userID int64, ticker string) error {
	return nil
}

func (f *fakeRepo) GetWatchlist(ctx context.Context, userID int64) ([]string, error) {
	return f.watched, nil
}

func (f *fakeRepo) GetWatchedTickers(ctx context.Context) ([]string, error) {
	return f.watched, nil
}

func newTestService(brokerage *fakeBrokerage, market *fakeMarket, repo *fakeRepo) *PortfolioService {
	return New(&config.Config{}, repo, &fakeCache{}, brokerage, market, nil, nil)
}
