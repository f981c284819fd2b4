package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	red "github.com/redis/go-redis/v9"
)

// RateLimitStore counts attempts per identifier in fixed windows.
type RateLimitStore struct {
	client *red.Client
	prefix string
}

// NewRateLimitStore wires a Redis client into a fixed-window counter store.
func NewRateLimitStore(client *red.Client, keyPrefix string) *RateLimitStore {
	if keyPrefix == "" {
		keyPrefix = "ratelimit"
	}
	return &RateLimitStore{client: client, prefix: keyPrefix}
}

// Hit increments the counter for the identifier and returns the new count.
// The window TTL is applied on first increment.
func (s *RateLimitStore) Hit(ctx context.Context, identifier string, window time.Duration) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	key := fmt.Sprintf("%s:%s", s.prefix, identifier)

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis rate-limit hit: %w", err)
	}

	return int(incr.Val()), nil
}
