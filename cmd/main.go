package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/kazuke353/Magnus-sub000/config"
	"github.com/kazuke353/Magnus-sub000/data"
	"github.com/kazuke353/Magnus-sub000/data/cache"
	"github.com/kazuke353/Magnus-sub000/data/repository/postgres"
	"github.com/kazuke353/Magnus-sub000/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/kazuke353/Magnus-sub000/internal/externalApi/trading212Api"
	"github.com/kazuke353/Magnus-sub000/internal/externalApi/yahooApi"
	"github.com/kazuke353/Magnus-sub000/internal/reportGenerator/xlsxGenerator"
	"github.com/kazuke353/Magnus-sub000/internal/scheduler"
	"github.com/kazuke353/Magnus-sub000/internal/service/portfolioService"
	"github.com/kazuke353/Magnus-sub000/internal/transport/rest"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := postgres.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisCache := cache.NewRedisCache(redisClient, cfg)

	brokerageClient := trading212Api.New(cfg)
	marketClient := yahooApi.New(cfg)

	reportGenerator := xlsxGenerator.New()

	googleCloudStorage := googleDriveApi.New(ctx, cfg)

	portfolioSrv := portfolioService.New(cfg, pgRepo, redisCache, brokerageClient, marketClient, reportGenerator, googleCloudStorage)

	sched := scheduler.New()
	sched.NewIntervalJob("refresh watchlist performance", portfolioSrv.RefreshWatchlistPerformance, cfg.Jobs.RefreshWatchlistInterval, cfg.Jobs.JobTimeout, true)
	sched.NewCrontabJob("cleanup old reports", googleCloudStorage.DeleteOldReports, "0 3 * * *", cfg.Jobs.JobTimeout, false)
	sched.Start()
	defer sched.Stop()

	controller := rest.NewController(portfolioSrv)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler: controller.Routes(),
	}

	go func() {
		slog.Info("http server listening", slog.Int("port", cfg.HTTP.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server failed", slog.String("err", err.Error()))
		}
	}()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", slog.String("err", err.Error()))
	}
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
