package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kazuke353/Magnus-sub000/config"
	"github.com/kazuke353/Magnus-sub000/internal/model"
	"github.com/kazuke353/Magnus-sub000/internal/model/yahooModel"
	"github.com/kazuke353/Magnus-sub000/utils"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	redis *redis.Client
	cfg   *config.Config
}

func NewRedisCache(redisClient *redis.Client, cfg *config.Config) *RedisCache {
	return &RedisCache{redis: redisClient, cfg: cfg}
}

func performanceKey(symbol string) string {
	return "perf:" + symbol
}

func metricsKey(userID int64) string {
	return fmt.Sprintf("metrics:%d", userID)
}

func (r *RedisCache) GetPerformance(ctx context.Context, symbol string) (yahooModel.Performance, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	res, err := r.redis.Get(ctx, performanceKey(symbol)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", performanceKey(symbol)))
		}
		return yahooModel.Performance{}, err
	}

	perf := yahooModel.Performance{}
	err = json.Unmarshal([]byte(res), &perf)
	if err != nil {
		slog.Error(
			"can't unmarshall performance in GetPerformance",
			slog.String("rqID", rqID),
			slog.String("err", err.Error()),
			slog.String("resultFromRedis", res),
		)
		return yahooModel.Performance{}, errors.New("can't unmarshall performance")
	}

	return perf, nil
}

func (r *RedisCache) SetPerformance(ctx context.Context, perf yahooModel.Performance) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	perfJson, err := json.Marshal(perf)
	if err != nil {
		slog.Error("can't marshall performance in SetPerformance", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return errors.New("can't marshall performance")
	}

	_, err = r.redis.Set(ctx, performanceKey(perf.Symbol), perfJson, r.cfg.Cache.PerformanceExpiration).Result()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", performanceKey(perf.Symbol)))
		return err
	}

	return nil
}

// SetPerformances stores a batch of performance results in one pipeline
// round trip. Used by the watchlist refresh job.
func (r *RedisCache) SetPerformances(ctx context.Context, perfs []yahooModel.Performance) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	slog.Debug("start SetPerformances", slog.String("rqID", rqID))

	pipe := r.redis.Pipeline()
	for _, perf := range perfs {
		perfJson, err := json.Marshal(perf)
		if err != nil {
			slog.Error(
				"can't marshall performance in SetPerformances",
				slog.String("rqID", rqID),
				slog.String("err", err.Error()),
				slog.Any("performance", perf),
			)
			return errors.New("can't marshall performance")
		}

		pipe.Set(ctx, performanceKey(perf.Symbol), perfJson, r.cfg.Cache.PerformanceExpiration)
	}

	_, err := pipe.Exec(ctx)
	if err != nil {
		slog.Error("failed on pipe.Exec", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SetPerformances completed", slog.String("rqID", rqID))

	return nil
}

func (r *RedisCache) GetMetrics(ctx context.Context, userID int64) (model.PerformanceMetrics, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)

	res, err := r.redis.Get(ctx, metricsKey(userID)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("failed on redis.Get", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", metricsKey(userID)))
		}
		return model.PerformanceMetrics{}, err
	}

	metrics := model.PerformanceMetrics{}
	err = json.Unmarshal([]byte(res), &metrics)
	if err != nil {
		slog.Error("can't unmarshall metrics in GetMetrics", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return model.PerformanceMetrics{}, errors.New("can't unmarshall metrics")
	}

	return metrics, nil
}

func (r *RedisCache) SetMetrics(ctx context.Context, userID int64, metrics model.PerformanceMetrics) error {
	rqID := utils.GetRequestIDFromCtx(ctx)

	metricsJson, err := json.Marshal(metrics)
	if err != nil {
		slog.Error("can't marshall metrics in SetMetrics", slog.String("rqID", rqID), slog.String("err", err.Error()))
		return errors.New("can't marshall metrics")
	}

	_, err = r.redis.Set(ctx, metricsKey(userID), metricsJson, r.cfg.Cache.MetricsExpiration).Result()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", rqID), slog.String("err", err.Error()), slog.String("key", metricsKey(userID)))
		return err
	}

	return nil
}
