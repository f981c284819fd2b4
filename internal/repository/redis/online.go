package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/dkosarev/admincore/internal/core/domain"
)

const defaultOnlinePrefix = "online_token"

// OnlineStore tracks live sessions in Redis. Records expire with the token;
// their absence never affects authorization.
type OnlineStore struct {
	client *red.Client
	prefix string
}

// NewOnlineStore wires a Redis client into a live-session tracker.
func NewOnlineStore(client *red.Client, keyPrefix string) *OnlineStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultOnlinePrefix
	}

	return &OnlineStore{client: client, prefix: prefix}
}

// Track stores the session record under its token with the provided TTL.
func (s *OnlineStore) Track(ctx context.Context, session domain.OnlineSession, ttl time.Duration) error {
	if strings.TrimSpace(session.Token) == "" {
		return errors.New("session token must not be empty")
	}
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}

	if err := s.client.Set(ctx, s.key(session.Token), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set session record: %w", err)
	}

	return nil
}

// List scans all live-session records. SCAN keeps the listing from blocking
// the store on large keyspaces.
func (s *OnlineStore) List(ctx context.Context) ([]domain.OnlineSession, error) {
	var sessions []domain.OnlineSession

	iter := s.client.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()

		payload, err := s.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, red.Nil) {
				// expired between scan and read
				continue
			}
			return nil, fmt.Errorf("redis get session record: %w", err)
		}

		var session domain.OnlineSession
		if err := json.Unmarshal([]byte(payload), &session); err != nil {
			return nil, fmt.Errorf("unmarshal session record %s: %w", key, err)
		}
		session.Token = strings.TrimPrefix(key, s.prefix+":")
		sessions = append(sessions, session)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan session records: %w", err)
	}

	return sessions, nil
}

// Remove drops the record for a token.
func (s *OnlineStore) Remove(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token must not be empty")
	}

	if err := s.client.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("redis del session record: %w", err)
	}
	return nil
}

func (s *OnlineStore) key(token string) string {
	return fmt.Sprintf("%s:%s", s.prefix, token)
}
