package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel    string `env:"LOG_LEVEL"`
	Postgres    Postgres
	Redis       Redis
	API         API
	Cache       Cache
	Jobs        Jobs
	Engine      Engine
	HTTP        HTTP
	GoogleDrive GoogleDrive
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME"`
	MigrationDir    string `env:"PG_MIGRATION_DIR"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB"`
}

type API struct {
	Debug      bool          `env:"API_DEBUG"`
	Timeout    time.Duration `env:"API_TIMEOUT"`
	Trading212 Trading212Api
	Yahoo      YahooApi
}

type Trading212Api struct {
	Url string `env:"TRADING212_API_URL"`
}

type YahooApi struct {
	Url string `env:"YAHOO_API_URL"`
}

type Cache struct {
	PerformanceExpiration time.Duration `env:"CACHE_PERFORMANCE_EXPIRATION"`
	MetricsExpiration     time.Duration `env:"CACHE_METRICS_EXPIRATION"`
}

type Jobs struct {
	RefreshWatchlistInterval time.Duration `env:"REFRESH_WATCHLIST_JOB_INTERVAL"`
	JobTimeout               time.Duration `env:"JOB_TIMEOUT"`
}

type Engine struct {
	BucketConcurrency  int `env:"ENGINE_BUCKET_CONCURRENCY"`
	HoldingConcurrency int `env:"ENGINE_HOLDING_CONCURRENCY"`
}

type HTTP struct {
	Port            int           `env:"HTTP_PORT"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT"`
}

type GoogleDrive struct {
	CredentialsFile string `env:"GOOGLE_DRIVE_CREDENTIALS_FILE"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}
