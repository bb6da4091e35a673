package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter is a fixed-window limiter backed by a shared Redis
// instance, for deployments running more than one process.
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
}

// NewRedisLimiter creates a limiter allowing max failures per window,
// counting in the given Redis client.
func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: max, window: window}
}

func (l *RedisLimiter) key(key string) string {
	return fmt.Sprintf("rl:slug:%s", key)
}

// Allow reports whether another attempt is permitted for key. It only
// reads the counter.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	count, err := l.client.Get(ctx, l.key(key)).Int64()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("rate limit read: %w", err)
	}
	return count < int64(l.max), nil
}

// RecordFailure increments the counter for key, setting the window TTL
// when the key is created.
func (l *RedisLimiter) RecordFailure(ctx context.Context, key string) error {
	count, err := l.client.Incr(ctx, l.key(key)).Result()
	if err != nil {
		return fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, l.key(key), l.window).Err(); err != nil {
			return fmt.Errorf("rate limit expire: %w", err)
		}
	}
	return nil
}
