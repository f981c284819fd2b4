package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/dkosarev/admincore/internal/repository"
)

const defaultResetCodePrefix = "captcha:email"

// ResetCodeStore keeps short-lived one-time password-reset codes.
type ResetCodeStore struct {
	client *red.Client
	prefix string
}

// NewResetCodeStore wires a Redis client into a reset-code store.
func NewResetCodeStore(client *red.Client, keyPrefix string) *ResetCodeStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultResetCodePrefix
	}

	return &ResetCodeStore{client: client, prefix: prefix}
}

// Put stores the code for the address with the provided TTL, replacing any
// previous code.
func (s *ResetCodeStore) Put(ctx context.Context, email, code string, ttl time.Duration) error {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(code) == "" {
		return errors.New("email and code must not be empty")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	if err := s.client.Set(ctx, s.key(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("redis set reset code: %w", err)
	}
	return nil
}

// Get returns the stored code for the address.
func (s *ResetCodeStore) Get(ctx context.Context, email string) (string, error) {
	code, err := s.client.Get(ctx, s.key(email)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", repository.ErrNotFound
		}
		return "", fmt.Errorf("redis get reset code: %w", err)
	}
	return code, nil
}

// Delete consumes the code for the address.
func (s *ResetCodeStore) Delete(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
		return fmt.Errorf("redis del reset code: %w", err)
	}
	return nil
}

func (s *ResetCodeStore) key(email string) string {
	return fmt.Sprintf("%s:%s", s.prefix, strings.ToLower(strings.TrimSpace(email)))
}
