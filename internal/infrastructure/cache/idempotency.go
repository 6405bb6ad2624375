// Package cache holds short-lived shared state: the request idempotency keys
// that guard payment and generation endpoints against double submission.
package cache

import (
	"context"
	"time"

	"github.com/carehours/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdempotencyStore remembers keys for a limited time
type IdempotencyStore interface {
	// Claim records key for ttl. It returns false when the key is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release forgets key so the request can be retried
	Release(ctx context.Context, key string) error
	Close() error
}

const idempotencyPrefix = "carehours:idempotency:"

// NewIdempotencyStore returns a Redis store when Redis is enabled and
// reachable, and an in-process one otherwise. The in-process store does not
// protect against duplicates sent to different instances.
func NewIdempotencyStore(cfg config.RedisConfig, log *zap.Logger) IdempotencyStore {
	if !cfg.Enabled {
		log.Info("Redis disabled, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     5,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unreachable, falling back to in-memory idempotency store",
			zap.String("addr", cfg.Addr()), zap.Error(err))
		_ = client.Close()
		return NewInMemoryIdempotencyStore()
	}
	log.Info("Using Redis idempotency store", zap.String("addr", cfg.Addr()))
	return NewRedisIdempotencyStore(client, idempotencyPrefix)
}
