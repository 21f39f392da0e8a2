// Package ratelimit implements fixed window request limits backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts requests per key in fixed windows
type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewLimiter(client *redis.Client, limit int64, window time.Duration) *Limiter {
	return &Limiter{client: client, limit: limit, window: window}
}

// getKey generates the Redis key for a counter
func getKey(key string) string {
	return fmt.Sprintf("rate_limit:%s", key)
}

// Allow records one request for key and reports whether it is within the limit.
// The window starts with the first request and is not extended by later ones.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := getKey(key)

	pipe := l.client.Pipeline()
	count := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to record request: %w", err)
	}

	return count.Val() <= l.limit, nil
}

// Disabled lets every request through. Used when Redis is not configured.
type Disabled struct{}

func (Disabled) Allow(context.Context, string) (bool, error) {
	return true, nil
}
