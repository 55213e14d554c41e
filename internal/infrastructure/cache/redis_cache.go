package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"cobro-engine/internal/config"
)

// RedisCache backs the route service's liquidation cache. Failures degrade
// to cache misses; the ledger is always recomputable from the snapshot.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisCache(cfg config.CacheConfig, logger *slog.Logger) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	return &RedisCache{
		client: rdb,
		logger: logger.With("component", "RedisCache"),
	}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			r.logger.WarnContext(ctx, "Cache read failed", "key", key, "error", err)
		}
		return "", false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
