package trading212Api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/kazuke353/Magnus-sub000/config"
	"github.com/kazuke353/Magnus-sub000/internal/externalApi"
	"github.com/kazuke353/Magnus-sub000/internal/model/t212Model"
	"github.com/kazuke353/Magnus-sub000/utils"
)

// Trading212Api wraps the brokerage REST API. Every call is authenticated
// with the caller's own API key, there is no shared credential.
type Trading212Api struct {
	client *resty.Client
}

func New(cfg *config.Config) *Trading212Api {
	client := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout).
		SetBaseURL(cfg.API.Trading212.Url)
	return &Trading212Api{client: client}
}

func (a *Trading212Api) GetCashBalance(ctx context.Context, apiKey string) (t212Model.CashBalance, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Trading212Api.GetCashBalance"

	slog.Debug("GetCashBalance start", slog.String("rqID", rqID), slog.String("op", op))

	var cash t212Model.CashBalance
	err := a.getJSON(ctx, apiKey, "/api/v0/equity/account/cash", &cash)
	if err != nil {
		slog.Error("GetCashBalance failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return t212Model.CashBalance{}, err
	}

	slog.Debug("GetCashBalance completed", slog.String("rqID", rqID), slog.String("op", op))

	return cash, nil
}

func (a *Trading212Api) ListPies(ctx context.Context, apiKey string) ([]t212Model.PieRef, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Trading212Api.ListPies"

	slog.Debug("ListPies start", slog.String("rqID", rqID), slog.String("op", op))

	var pies []t212Model.PieRef
	err := a.getJSON(ctx, apiKey, "/api/v0/equity/pies", &pies)
	if err != nil {
		slog.Error("ListPies failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	slog.Debug("ListPies completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("pies", len(pies)))

	return pies, nil
}

func (a *Trading212Api) GetPieDetail(ctx context.Context, apiKey string, pieID int64) (t212Model.PieDetail, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Trading212Api.GetPieDetail"

	slog.Debug("GetPieDetail start", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("pieID", pieID))

	var detail t212Model.PieDetail
	err := a.getJSON(ctx, apiKey, fmt.Sprintf("/api/v0/equity/pies/%d", pieID), &detail)
	if err != nil {
		slog.Error("GetPieDetail failed", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("pieID", pieID), slog.String("err", err.Error()))
		return t212Model.PieDetail{}, err
	}

	slog.Debug("GetPieDetail completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int64("pieID", pieID))

	return detail, nil
}

// GetInstruments returns the full static instrument metadata list. The
// service fetches it once per aggregation run and joins it onto holdings.
func (a *Trading212Api) GetInstruments(ctx context.Context, apiKey string) ([]t212Model.Instrument, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "Trading212Api.GetInstruments"

	slog.Debug("GetInstruments start", slog.String("rqID", rqID), slog.String("op", op))

	var instruments []t212Model.Instrument
	err := a.getJSON(ctx, apiKey, "/api/v0/equity/metadata/instruments", &instruments)
	if err != nil {
		slog.Error("GetInstruments failed", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	slog.Debug("GetInstruments completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("instruments", len(instruments)))

	return instruments, nil
}

func (a *Trading212Api) getJSON(ctx context.Context, apiKey, url string, dest any) error {
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("Authorization", apiKey).
		Get(url)

	if err != nil {
		return fmt.Errorf("dial trading212 api: %w", err)
	}

	if resp.StatusCode() == 404 {
		return externalApi.ErrNotFound
	}

	if resp.IsError() {
		return fmt.Errorf("%w: trading212 api status %d", externalApi.ErrUnavailable, resp.StatusCode())
	}

	if err := json.Unmarshal(resp.Body(), dest); err != nil {
		return fmt.Errorf("%w: unmarshal trading212 response: %s", externalApi.ErrUnavailable, err)
	}

	return nil
}
