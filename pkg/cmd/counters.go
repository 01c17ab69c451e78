package cmd

import (
	"context"
	"fmt"

	"github.com/vallabhn1/MallCCTV/pkg/counters"
)

// NewCounter creates the fast counter cache: Redis when a URL is given,
// otherwise an in-process counter good enough for a single agent.
func NewCounter(ctx context.Context, redisURL string) (counters.Counter, error) {
	if redisURL == "" {
		return counters.NewMemoryCounter(), nil
	}

	counter, err := counters.NewRedisCounter(ctx, redisURL)
	if err != nil {
		return nil, fmt.Errorf("connect redis counter: %w", err)
	}

	return counter, nil
}
