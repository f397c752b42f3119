package yahooApi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kazuke353/Magnus-sub000/config"
	"github.com/kazuke353/Magnus-sub000/internal/externalApi"
	"github.com/kazuke353/Magnus-sub000/internal/model/yahooModel"
	"github.com/kazuke353/Magnus-sub000/utils"
	"github.com/shopspring/decimal"
)

type YahooApi struct {
	client *resty.Client
}

func New(cfg *config.Config) *YahooApi {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.Yahoo.Url).
		SetHeader("User-Agent", "Mozilla/5.0 (portfolio-engine)")
	return &YahooApi{client: client}
}

// GetPerformance resolves the brokerage ticker to a provider symbol and
// derives dividend yield plus trailing 1w/1m/3m/1y returns from a one-year
// daily close series. region is a search hint for tickers whose normalized
// form the provider does not recognize.
func (a *YahooApi) GetPerformance(ctx context.Context, ticker, region string) (yahooModel.Performance, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "YahooApi.GetPerformance"

	symbol := ToProviderSymbol(ticker)

	slog.Debug("GetPerformance start", slog.String("rqID", rqID), slog.String("op", op), slog.String("ticker", ticker), slog.String("symbol", symbol))

	chart, err := a.getChart(ctx, symbol)
	if errors.Is(err, externalApi.ErrNotFound) || (err == nil && len(chart.Chart.Result) == 0) {
		// Unknown symbol: fall back to a free-text search before giving up.
		symbol, err = a.resolveViaSearch(ctx, symbol, region)
		if err != nil {
			return yahooModel.Performance{}, err
		}
		chart, err = a.getChart(ctx, symbol)
	}
	if err != nil {
		slog.Error("GetPerformance chart failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("err", err.Error()))
		return yahooModel.Performance{}, err
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return yahooModel.Performance{}, externalApi.ErrNotFound
	}

	result := chart.Chart.Result[0]
	latest := decimal.NewFromFloat(result.Meta.RegularMarketPrice)

	perf := trailingReturns(time.Now(), latest, result.Timestamp, result.Indicators.Quote[0].Close)
	perf.Symbol = symbol

	// Dividend yield comes from summary data; absence means 0, not an error.
	summary, err := a.getQuoteSummary(ctx, symbol, "summaryDetail")
	if err != nil {
		slog.Warn("GetPerformance summary unavailable", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("err", err.Error()))
	} else if len(summary.QuoteSummary.Result) > 0 {
		yield := summary.QuoteSummary.Result[0].SummaryDetail.DividendYield.Raw
		perf.DividendYield = decimal.NewFromFloat(yield * 100)
	}

	slog.Debug("GetPerformance completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))

	return perf, nil
}

func (a *YahooApi) SearchInstruments(ctx context.Context, query string, limit int) ([]yahooModel.SearchResult, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "YahooApi.SearchInstruments"

	slog.Debug("SearchInstruments start", slog.String("rqID", rqID), slog.String("op", op), slog.String("query", query))

	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":           query,
			"quotesCount": strconv.Itoa(limit),
			"newsCount":   "0",
		}).
		Get("/v1/finance/search")
	if err != nil {
		slog.Error("SearchInstruments failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, fmt.Errorf("dial yahoo api: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: yahoo search status %d", externalApi.ErrUnavailable, resp.StatusCode())
	}

	var raw yahooModel.RawSearch
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return nil, fmt.Errorf("%w: unmarshal yahoo search response: %s", externalApi.ErrUnavailable, err)
	}

	if limit > 0 && len(raw.Quotes) > limit {
		raw.Quotes = raw.Quotes[:limit]
	}

	slog.Debug("SearchInstruments completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("results", len(raw.Quotes)))

	return raw.Quotes, nil
}

func (a *YahooApi) GetInstrumentDetails(ctx context.Context, symbol string) (yahooModel.InstrumentDetails, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "YahooApi.GetInstrumentDetails"

	slog.Debug("GetInstrumentDetails start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))

	summary, err := a.getQuoteSummary(ctx, symbol, "summaryDetail,price,assetProfile")
	if err != nil {
		slog.Error("GetInstrumentDetails failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return yahooModel.InstrumentDetails{}, err
	}
	if len(summary.QuoteSummary.Result) == 0 {
		return yahooModel.InstrumentDetails{}, externalApi.ErrNotFound
	}

	r := summary.QuoteSummary.Result[0]

	name := r.Price.LongName
	if name == "" {
		name = r.Price.ShortName
	}

	details := yahooModel.InstrumentDetails{
		Symbol:        symbol,
		Name:          name,
		CurrencyCode:  r.Price.Currency,
		Exchange:      r.Price.ExchangeName,
		Type:          r.Price.QuoteType,
		Sector:        r.AssetProfile.Sector,
		Industry:      r.AssetProfile.Industry,
		MarketCap:     decimal.NewFromFloat(r.SummaryDetail.MarketCap.Raw),
		CurrentPrice:  decimal.NewFromFloat(r.Price.RegularMarketPrice.Raw),
		DividendYield: decimal.NewFromFloat(r.SummaryDetail.DividendYield.Raw * 100),
	}

	slog.Debug("GetInstrumentDetails completed", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))

	return details, nil
}

func (a *YahooApi) getChart(ctx context.Context, symbol string) (yahooModel.RawChart, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"range":    "1y",
			"interval": "1d",
		}).
		Get("/v8/finance/chart/" + symbol)
	if err != nil {
		return yahooModel.RawChart{}, fmt.Errorf("dial yahoo api: %w", err)
	}
	if resp.StatusCode() == 404 {
		return yahooModel.RawChart{}, externalApi.ErrNotFound
	}
	if resp.IsError() {
		return yahooModel.RawChart{}, fmt.Errorf("%w: yahoo chart status %d", externalApi.ErrUnavailable, resp.StatusCode())
	}

	var raw yahooModel.RawChart
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return yahooModel.RawChart{}, fmt.Errorf("%w: unmarshal yahoo chart response: %s", externalApi.ErrUnavailable, err)
	}
	if raw.Chart.Error != nil {
		return yahooModel.RawChart{}, fmt.Errorf("%w: yahoo chart error %s", externalApi.ErrUnavailable, raw.Chart.Error.Code)
	}

	return raw, nil
}

func (a *YahooApi) getQuoteSummary(ctx context.Context, symbol, modules string) (yahooModel.RawQuoteSummary, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetQueryParam("modules", modules).
		Get("/v10/finance/quoteSummary/" + symbol)
	if err != nil {
		return yahooModel.RawQuoteSummary{}, fmt.Errorf("dial yahoo api: %w", err)
	}
	if resp.StatusCode() == 404 {
		return yahooModel.RawQuoteSummary{}, externalApi.ErrNotFound
	}
	if resp.IsError() {
		return yahooModel.RawQuoteSummary{}, fmt.Errorf("%w: yahoo quoteSummary status %d", externalApi.ErrUnavailable, resp.StatusCode())
	}

	var raw yahooModel.RawQuoteSummary
	if err := json.Unmarshal(resp.Body(), &raw); err != nil {
		return yahooModel.RawQuoteSummary{}, fmt.Errorf("%w: unmarshal yahoo quoteSummary response: %s", externalApi.ErrUnavailable, err)
	}

	return raw, nil
}

func (a *YahooApi) resolveViaSearch(ctx context.Context, symbol, region string) (string, error) {
	query := symbol
	if region != "" {
		query = symbol + " " + region
	}

	results, err := a.SearchInstruments(ctx, query, 1)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", externalApi.ErrNotFound
	}
	return results[0].Symbol, nil
}

// trailingReturns computes the percentage change from the latest close back
// to the newest close at or before each window boundary. A window with no
// close at or before its boundary is left nil.
func trailingReturns(now time.Time, latest decimal.Decimal, timestamps []int64, closes []*float64) yahooModel.Performance {
	perf := yahooModel.Performance{}

	windows := []struct {
		days int
		dest **decimal.Decimal
	}{
		{7, &perf.Perf1W},
		{30, &perf.Perf1M},
		{90, &perf.Perf3M},
		{365, &perf.Perf1Y},
	}

	for _, w := range windows {
		target := now.AddDate(0, 0, -w.days).Unix()

		var windowClose *float64
		for i := 0; i < len(timestamps) && i < len(closes); i++ {
			if timestamps[i] > target {
				break
			}
			if closes[i] != nil {
				windowClose = closes[i]
			}
		}

		if windowClose == nil || *windowClose == 0 {
			continue
		}

		base := decimal.NewFromFloat(*windowClose)
		change := latest.Sub(base).Div(base).Mul(decimal.NewFromInt(100))
		*w.dest = &change
	}

	return perf
}
