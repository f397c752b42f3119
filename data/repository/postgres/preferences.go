package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/kazuke353/Magnus-sub000/data/repository"
	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/kazuke353/Magnus-sub000/utils"
	"github.com/shopspring/decimal"
)

const uniqueViolationCode = "23505"

func (r *Postgres) GetBrokerageApiKey(ctx context.Context, userID int64) (apiKey string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT brokerage_api_key FROM users WHERE user_id = $1`

	slog.Debug("GetBrokerageApiKey start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetBrokerageApiKey failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetBrokerageApiKey completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).GetContext(ctx, &apiKey, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}

	return apiKey, nil
}

func (r *Postgres) UpsertBucketTarget(ctx context.Context, userID int64, pref model.BucketPreference) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `INSERT INTO bucket_preferences(user_id, bucket_name, target_allocation)
		VALUES($1, $2, $3)
		ON CONFLICT (user_id, bucket_name) DO UPDATE SET target_allocation = EXCLUDED.target_allocation`

	slog.Debug("UpsertBucketTarget start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpsertBucketTarget failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertBucketTarget completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, userID, pref.BucketName, pref.TargetAllocation)
	return err
}

// GetBucketTargets returns the user's explicitly stored target allocations
// keyed by bucket name.
func (r *Postgres) GetBucketTargets(ctx context.Context, userID int64) (targets map[string]decimal.Decimal, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT bucket_name, target_allocation FROM bucket_preferences WHERE user_id = $1`

	slog.Debug("GetBucketTargets start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetBucketTargets failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetBucketTargets completed", slog.String("rqID", rqID))
		}
	}()

	var rows []struct {
		BucketName       string          `db:"bucket_name"`
		TargetAllocation decimal.Decimal `db:"target_allocation"`
	}

	err = r.txOrDb(ctx).SelectContext(ctx, &rows, query, userID)
	if err != nil {
		return nil, err
	}

	targets = make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		targets[row.BucketName] = row.TargetAllocation
	}

	return targets, nil
}

func (r *Postgres) UpsertInstrumentNote(ctx context.Context, userID int64, note model.InstrumentNote) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `INSERT INTO instrument_notes(user_id, ticker, note)
		VALUES($1, $2, $3)
		ON CONFLICT (user_id, ticker) DO UPDATE SET note = EXCLUDED.note`

	slog.Debug("UpsertInstrumentNote start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("UpsertInstrumentNote failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("UpsertInstrumentNote completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, userID, note.Ticker, note.Note)
	return err
}

func (r *Postgres) GetInstrumentNotes(ctx context.Context, userID int64) (notes []model.InstrumentNote, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT ticker, note FROM instrument_notes WHERE user_id = $1 ORDER BY ticker`

	slog.Debug("GetInstrumentNotes start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetInstrumentNotes failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetInstrumentNotes completed", slog.String("rqID", rqID))
		}
	}()

	var rows []struct {
		Ticker string `db:"ticker"`
		Note   string `db:"note"`
	}

	err = r.txOrDb(ctx).SelectContext(ctx, &rows, query, userID)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		notes = append(notes, model.InstrumentNote{Ticker: row.Ticker, Note: row.Note})
	}

	return notes, nil
}

func (r *Postgres) AddToWatchlist(ctx context.Context, userID int64, ticker string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `INSERT INTO watchlist(user_id, ticker) VALUES($1, $2)`

	slog.Debug("AddToWatchlist start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("AddToWatchlist failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("AddToWatchlist completed", slog.String("rqID", rqID))
		}
	}()

	_, err = r.txOrDb(ctx).ExecContext(ctx, query, userID, ticker)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return repository.ErrAlreadyExists
		}
		return err
	}

	return nil
}

func (r *Postgres) RemoveFromWatchlist(ctx context.Context, userID int64, ticker string) (err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `DELETE FROM watchlist WHERE user_id = $1 AND ticker = $2`

	slog.Debug("RemoveFromWatchlist start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("RemoveFromWatchlist failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("RemoveFromWatchlist completed", slog.String("rqID", rqID))
		}
	}()

	res, err := r.txOrDb(ctx).ExecContext(ctx, query, userID, ticker)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *Postgres) GetWatchlist(ctx context.Context, userID int64) (tickers []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT ticker FROM watchlist WHERE user_id = $1 ORDER BY ticker`

	slog.Debug("GetWatchlist start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetWatchlist failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetWatchlist completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).SelectContext(ctx, &tickers, query, userID)
	return tickers, err
}

// GetWatchedTickers returns every distinct watchlisted ticker across users,
// for the background performance refresh job.
func (r *Postgres) GetWatchedTickers(ctx context.Context) (tickers []string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	query := `SELECT DISTINCT ticker FROM watchlist ORDER BY ticker`

	slog.Debug("GetWatchedTickers start", slog.String("rqID", rqID), slog.String("query", query))
	defer func() {
		if err != nil {
			slog.Error("GetWatchedTickers failed", slog.String("rqID", rqID), slog.String("err", err.Error()))
		} else {
			slog.Debug("GetWatchedTickers completed", slog.String("rqID", rqID))
		}
	}()

	err = r.txOrDb(ctx).SelectContext(ctx, &tickers, query)
	return tickers, err
}
