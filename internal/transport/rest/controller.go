package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/kazuke353/Magnus-sub000/data/repository"
	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/kazuke353/Magnus-sub000/internal/model/yahooModel"
	"github.com/kazuke353/Magnus-sub000/internal/service"
	"github.com/shopspring/decimal"
)

const userIDHeader = "X-User-ID"

type PortfolioService interface {
	FetchPortfolioData(ctx context.Context, userID int64, monthlyBudget decimal.Decimal, countryCode string) model.PerformanceMetrics
	PlanRebalance(analysis model.AllocationAnalysis, additionalAmount decimal.Decimal) []model.RebalanceAction
	GeneratePortfolioReport(ctx context.Context, userID int64, countryCode string) (string, error)
	SearchInstruments(ctx context.Context, query string, limit int) ([]yahooModel.SearchResult, error)
	GetInstrumentDetails(ctx context.Context, symbol string) (yahooModel.InstrumentDetails, error)
	SaveBucketTarget(ctx context.Context, userID int64, pref model.BucketPreference) error
	SaveInstrumentNote(ctx context.Context, userID int64, note model.InstrumentNote) error
	GetInstrumentNotes(ctx context.Context, userID int64) ([]model.InstrumentNote, error)
	AddToWatchlist(ctx context.Context, userID int64, ticker string) error
	RemoveFromWatchlist(ctx context.Context, userID int64, ticker string) error
	GetWatchlist(ctx context.Context, userID int64) ([]string, error)
}

type Controller struct {
	portfolioService PortfolioService
}

func NewController(portfolioService PortfolioService) *Controller {
	return &Controller{portfolioService: portfolioService}
}

func (ctrl *Controller) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/portfolio", ctrl.GetPortfolio)
		r.Post("/portfolio/rebalance", ctrl.PlanRebalance)
		r.Get("/portfolio/report", ctrl.GetPortfolioReport)

		r.Get("/instruments/search", ctrl.SearchInstruments)
		r.Get("/instruments/{symbol}", ctrl.GetInstrumentDetails)

		r.Put("/preferences/allocations", ctrl.SaveBucketTarget)
		r.Get("/notes", ctrl.GetInstrumentNotes)
		r.Put("/notes", ctrl.SaveInstrumentNote)

		r.Get("/watchlist", ctrl.GetWatchlist)
		r.Post("/watchlist/{ticker}", ctrl.AddToWatchlist)
		r.Delete("/watchlist/{ticker}", ctrl.RemoveFromWatchlist)
	})

	return r
}

func (ctrl *Controller) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	monthlyBudget := decimal.Zero
	if raw := r.URL.Query().Get("monthlyBudget"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid monthlyBudget")
			return
		}
		monthlyBudget = parsed
	}

	countryCode := r.URL.Query().Get("countryCode")

	metrics := ctrl.portfolioService.FetchPortfolioData(ctx, userID, monthlyBudget, countryCode)

	writeJSON(w, http.StatusOK, metrics)
}

type planRebalanceRequest struct {
	AdditionalAmount decimal.Decimal `json:"additionalAmount"`
	CountryCode      string          `json:"countryCode"`
}

func (ctrl *Controller) PlanRebalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req planRebalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.AdditionalAmount.IsNegative() {
		writeError(w, http.StatusBadRequest, "additionalAmount must be >= 0")
		return
	}

	metrics := ctrl.portfolioService.FetchPortfolioData(ctx, userID, decimal.Zero, req.CountryCode)
	actions := ctrl.portfolioService.PlanRebalance(metrics.AllocationAnalysis, req.AdditionalAmount)

	writeJSON(w, http.StatusOK, actions)
}

func (ctrl *Controller) GetPortfolioReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	link, err := ctrl.portfolioService.GeneratePortfolioReport(ctx, userID, r.URL.Query().Get("countryCode"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "report generation failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"downloadLink": link})
}

func (ctrl *Controller) SearchInstruments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	results, err := ctrl.portfolioService.SearchInstruments(ctx, query, limit)
	if err != nil {
		writeError(w, http.StatusBadGateway, "search unavailable")
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func (ctrl *Controller) GetInstrumentDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	symbol := chi.URLParam(r, "symbol")

	details, err := ctrl.portfolioService.GetInstrumentDetails(ctx, symbol)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			writeError(w, http.StatusNotFound, "instrument not found")
			return
		}
		writeError(w, http.StatusBadGateway, "instrument details unavailable")
		return
	}

	writeJSON(w, http.StatusOK, details)
}

type bucketTargetRequest struct {
	BucketName       string          `json:"bucketName"`
	TargetAllocation decimal.Decimal `json:"targetAllocation"`
}

func (ctrl *Controller) SaveBucketTarget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req bucketTargetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BucketName == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := ctrl.portfolioService.SaveBucketTarget(ctx, userID, model.BucketPreference{
		BucketName:       req.BucketName,
		TargetAllocation: req.TargetAllocation,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "can't save bucket target")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type instrumentNoteRequest struct {
	Ticker string `json:"ticker"`
	Note   string `json:"note"`
}

func (ctrl *Controller) SaveInstrumentNote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	var req instrumentNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Ticker == "" {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := ctrl.portfolioService.SaveInstrumentNote(ctx, userID, model.InstrumentNote{
		Ticker: req.Ticker,
		Note:   req.Note,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "can't save note")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (ctrl *Controller) GetInstrumentNotes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	notes, err := ctrl.portfolioService.GetInstrumentNotes(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "can't load notes")
		return
	}

	writeJSON(w, http.StatusOK, notes)
}

func (ctrl *Controller) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	tickers, err := ctrl.portfolioService.GetWatchlist(ctx, userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "can't load watchlist")
		return
	}

	writeJSON(w, http.StatusOK, tickers)
}

func (ctrl *Controller) AddToWatchlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	err := ctrl.portfolioService.AddToWatchlist(ctx, userID, chi.URLParam(r, "ticker"))
	if err != nil && !errors.Is(err, repository.ErrAlreadyExists) {
		writeError(w, http.StatusInternalServerError, "can't add to watchlist")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (ctrl *Controller) RemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, ok := userIDFromRequest(w, r)
	if !ok {
		return
	}

	err := ctrl.portfolioService.RemoveFromWatchlist(ctx, userID, chi.URLParam(r, "ticker"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "ticker not in watchlist")
			return
		}
		writeError(w, http.StatusInternalServerError, "can't remove from watchlist")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func userIDFromRequest(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := strconv.ParseInt(r.Header.Get(userIDHeader), 10, 64)
	if err != nil || userID <= 0 {
		writeError(w, http.StatusUnauthorized, "missing or invalid "+userIDHeader)
		return 0, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("can't encode response", slog.String("err", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
