package portfolioService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kazuke353/Magnus-sub000/internal/externalApi"
	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/kazuke353/Magnus-sub000/internal/model/yahooModel"
	"github.com/kazuke353/Magnus-sub000/internal/service"
	"github.com/kazuke353/Magnus-sub000/utils"
	"github.com/shopspring/decimal"
)

// RefreshWatchlistPerformance re-fetches market performance for every
// watchlisted ticker and stores the batch in cache. Runs on a schedule.
func (s *PortfolioService) RefreshWatchlistPerformance(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.RefreshWatchlistPerformance"

	slog.Debug("RefreshWatchlistPerformance start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("RefreshWatchlistPerformance finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	tickers, err := s.repo.GetWatchedTickers(ctx)
	if err != nil {
		slog.Error("got error from repo.GetWatchedTickers", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	perfs := make([]yahooModel.Performance, 0, len(tickers))
	for _, ticker := range tickers {
		perf, err := s.market.GetPerformance(ctx, ticker, "")
		if err != nil {
			slog.Warn("skipping watchlist ticker", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker), slog.String("err", err.Error()))
			continue
		}
		perfs = append(perfs, perf)
	}

	if len(perfs) == 0 {
		return nil
	}

	return s.cache.SetPerformances(ctx, perfs)
}

// GeneratePortfolioReport renders the latest metrics into a workbook and
// uploads it, returning a shareable link.
func (s *PortfolioService) GeneratePortfolioReport(ctx context.Context, userID int64, countryCode string) (string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GeneratePortfolioReport"

	slog.Debug("GeneratePortfolioReport start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID))
	defer func() {
		slog.Debug("GeneratePortfolioReport finished", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("userID", userID))
	}()

	metrics, err := s.cache.GetMetrics(ctx, userID)
	if err != nil {
		slog.Warn("no cached metrics, aggregating fresh", slog.String("rqID", rqID), slog.String("op", op))
		metrics = s.FetchPortfolioData(ctx, userID, decimal.Zero, countryCode)
	}

	fileBytes, ext, err := s.reportGen.Generate(ctx, metrics)
	if err != nil {
		slog.Error("got error from reportGen.Generate", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	filename := fmt.Sprintf("portfolio_%d_%s%s", userID, time.Now().Format("2006-01-02"), ext)

	link, err := s.cloudStorage.UploadFile(ctx, fileBytes, filename)
	if err != nil {
		slog.Error("got error from cloudStorage.UploadFile", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return "", err
	}

	return link, nil
}

func (s *PortfolioService) SearchInstruments(ctx context.Context, query string, limit int) ([]yahooModel.SearchResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.SearchInstruments"

	results, err := s.market.SearchInstruments(ctx, query, limit)
	if err != nil {
		slog.Error("got error from market.SearchInstruments", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	return results, nil
}

func (s *PortfolioService) GetInstrumentDetails(ctx context.Context, symbol string) (yahooModel.InstrumentDetails, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "PortfolioService.GetInstrumentDetails"

	details, err := s.market.GetInstrumentDetails(ctx, symbol)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			return yahooModel.InstrumentDetails{}, service.ErrNotFound
		}
		slog.Error("got error from market.GetInstrumentDetails", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return yahooModel.InstrumentDetails{}, err
	}

	return details, nil
}

func (s *PortfolioService) SaveBucketTarget(ctx context.Context, userID int64, pref model.BucketPreference) error {
	return s.repo.UpsertBucketTarget(ctx, userID, pref)
}

func (s *PortfolioService) SaveInstrumentNote(ctx context.Context, userID int64, note model.InstrumentNote) error {
	return s.repo.UpsertInstrumentNote(ctx, userID, note)
}

func (s *PortfolioService) GetInstrumentNotes(ctx context.Context, userID int64) ([]model.InstrumentNote, error) {
	return s.repo.GetInstrumentNotes(ctx, userID)
}

func (s *PortfolioService) AddToWatchlist(ctx context.Context, userID int64, ticker string) error {
	return s.repo.AddToWatchlist(ctx, userID, ticker)
}

func (s *PortfolioService) RemoveFromWatchlist(ctx context.Context, userID int64, ticker string) error {
	return s.repo.RemoveFromWatchlist(ctx, userID, ticker)
}

func (s *PortfolioService) GetWatchlist(ctx context.Context, userID int64) ([]string, error) {
	return s.repo.GetWatchlist(ctx, userID)
}
