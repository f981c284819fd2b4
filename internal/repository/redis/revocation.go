package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"
)

const defaultBlacklistPrefix = "blacklist"

// RevocationStore keeps revoked bearer tokens in Redis. An entry lives as
// long as the token it invalidates, so the set never needs sweeping.
type RevocationStore struct {
	client *red.Client
	prefix string
}

// NewRevocationStore wires a Redis client into a revocation store.
func NewRevocationStore(client *red.Client, keyPrefix string) *RevocationStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultBlacklistPrefix
	}

	return &RevocationStore{client: client, prefix: prefix}
}

// Revoke stores the token with a TTL matching its remaining validity.
func (s *RevocationStore) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key := s.key(token)
	if key == "" {
		return errors.New("token must not be empty")
	}

	if err := s.client.Set(ctx, key, "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked token: %w", err)
	}

	return nil
}

// IsRevoked reports whether the token has been revoked. Store errors are
// returned as-is; the caller decides the failure policy.
func (s *RevocationStore) IsRevoked(ctx context.Context, token string) (bool, error) {
	key := s.key(token)
	if key == "" {
		return false, errors.New("token must not be empty")
	}

	if err := s.client.Get(ctx, key).Err(); err != nil {
		if errors.Is(err, red.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get revoked token: %w", err)
	}

	return true, nil
}

func (s *RevocationStore) key(token string) string {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", s.prefix, trimmed)
}
