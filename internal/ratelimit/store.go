package ratelimit

import (
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const defaultPrefix = "ratelimit"

// NewRedisLimiter allows limit requests per window per key, counted in Redis
// so every replica shares the budget.
func NewRedisLimiter(client *redis.Client, prefix string, limit int64, window time.Duration) (*limiter.Limiter, error) {
	if prefix == "" {
		prefix = defaultPrefix
	}
	store, err := limiterredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix, MaxRetry: 3})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis store: %w", err)
	}
	return limiter.New(store, limiter.Rate{Period: window, Limit: limit}), nil
}

// NewMemoryLimiter counts in process memory.
func NewMemoryLimiter(limit int64, window time.Duration) *limiter.Limiter {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: defaultPrefix, CleanUpInterval: time.Minute})
	return limiter.New(store, limiter.Rate{Period: window, Limit: limit})
}
