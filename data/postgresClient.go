package data

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/kazuke353/Magnus-sub000/config"
)

const (
	pgConnAttempts = 10
	pgConnBackoff  = time.Second
)

// NewPostgresClient connects with retries, applies pool limits from config
// and runs pending migrations before returning.
func NewPostgresClient(cfg *config.Config) *sqlx.DB {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.DbName,
	)

	var db *sqlx.DB
	var err error

	for attempt := 1; attempt <= pgConnAttempts; attempt++ {
		db, err = sqlx.Connect("pgx", dsn)
		if err == nil {
			break
		}

		slog.Info("postgres not ready, retrying", slog.Int("attempt", attempt), slog.String("err", err.Error()))
		time.Sleep(pgConnBackoff)
	}

	if err != nil {
		slog.Error("postgres connect failed after retries")
		panic(err)
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxIdleTime(time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second)

	migratePostgres(db, cfg.Postgres.MigrationDir)
	slog.Info("postgres connected and migrated")

	return db
}

func migratePostgres(db *sqlx.DB, migrationDir string) {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		slog.Error("migration driver init failed", slog.String("err", err.Error()))
		panic(err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationDir),
		"postgres",
		driver,
	)
	if err != nil {
		slog.Error("migration setup failed", slog.String("err", err.Error()))
		panic(err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		slog.Error("migration up failed", slog.String("err", err.Error()))
		panic(err)
	}
}
