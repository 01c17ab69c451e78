package counters

import (
	"context"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const redisTimeout = 5 * time.Second

// RedisCounter implements Counter on a Redis instance.
type RedisCounter struct {
	client redis.UniversalClient
}

// NewRedisCounter connects to Redis and verifies the connection.
func NewRedisCounter(ctx context.Context, redisURL string) (*RedisCounter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisCounter{client: client}, nil
}

// Increment atomically increments the key and returns the new count.
func (r *RedisCounter) Increment(ctx context.Context, key string) (int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	count, err := r.client.Incr(opCtx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}

	return count, nil
}

// Get returns the current count, 0 for an absent key.
func (r *RedisCounter) Get(ctx context.Context, key string) (int64, error) {
	opCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	count, err := r.client.Get(opCtx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}

		return 0, fmt.Errorf("failed to get %s: %w", key, err)
	}

	return count, nil
}

// Close releases the underlying connection pool.
func (r *RedisCounter) Close() error {
	return r.client.Close()
}
