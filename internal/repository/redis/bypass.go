package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	red "github.com/redis/go-redis/v9"
)

const defaultWhitelistKey = "auth:whitelist"

var (
	// ErrBypassPathExists indicates the path is already whitelisted.
	ErrBypassPathExists = errors.New("bypass path already exists")
	// ErrBypassPathMissing indicates the path is not in the whitelist.
	ErrBypassPathMissing = errors.New("bypass path not found")
)

// renameScript swaps one whitelist member for another atomically. The old
// member is checked inside the script so a missing path never leaves the
// set half-updated.
var renameScript = red.NewScript(`
if redis.call("SREM", KEYS[1], ARGV[1]) == 0 then
	return 0
end
redis.call("SADD", KEYS[1], ARGV[2])
return 1
`)

// BypassStore manages the dynamic authentication whitelist as a Redis set.
type BypassStore struct {
	client *red.Client
	key    string
}

// NewBypassStore wires a Redis client into a bypass-path store.
func NewBypassStore(client *red.Client, key string) *BypassStore {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		trimmed = defaultWhitelistKey
	}

	return &BypassStore{client: client, key: trimmed}
}

// List returns every whitelisted path.
func (s *BypassStore) List(ctx context.Context) ([]string, error) {
	paths, err := s.client.SMembers(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers whitelist: %w", err)
	}
	return paths, nil
}

// Contains reports whether the path is whitelisted.
func (s *BypassStore) Contains(ctx context.Context, path string) (bool, error) {
	member, err := s.client.SIsMember(ctx, s.key, path).Result()
	if err != nil {
		return false, fmt.Errorf("redis sismember whitelist: %w", err)
	}
	return member, nil
}

// Add whitelists a path. Adding an existing path is an error so callers can
// surface the conflict.
func (s *BypassStore) Add(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("path must not be empty")
	}

	added, err := s.client.SAdd(ctx, s.key, path).Result()
	if err != nil {
		return fmt.Errorf("redis sadd whitelist: %w", err)
	}
	if added == 0 {
		return ErrBypassPathExists
	}
	return nil
}

// Remove deletes a path from the whitelist.
func (s *BypassStore) Remove(ctx context.Context, path string) error {
	removed, err := s.client.SRem(ctx, s.key, path).Result()
	if err != nil {
		return fmt.Errorf("redis srem whitelist: %w", err)
	}
	if removed == 0 {
		return ErrBypassPathMissing
	}
	return nil
}

// Rename atomically replaces oldPath with newPath. The swap runs as one
// server-side script: either both membership changes apply or neither does.
// Any error out of this call means the store must be inspected by hand, not
// treated as a partial success.
func (s *BypassStore) Rename(ctx context.Context, oldPath, newPath string) error {
	newPath = strings.TrimSpace(newPath)
	if newPath == "" {
		return errors.New("new path must not be empty")
	}

	swapped, err := renameScript.Run(ctx, s.client, []string{s.key}, oldPath, newPath).Int()
	if err != nil {
		return fmt.Errorf("redis rename whitelist path: %w", err)
	}
	if swapped == 0 {
		return ErrBypassPathMissing
	}
	return nil
}
