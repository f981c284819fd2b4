package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	red "github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*red.Client, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}

	client := red.NewClient(&red.Options{Addr: server.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		server.Close()
	})

	return client, server
}

func TestRevocationStore_RevokeAndCheck(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewRevocationStore(client, "blacklist")

	ctx := context.Background()
	ttl := 2 * time.Minute

	if err := store.Revoke(ctx, "token-123", ttl); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	revoked, err := store.IsRevoked(ctx, "token-123")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if !revoked {
		t.Fatalf("expected token to be revoked")
	}

	remaining := server.TTL("blacklist:token-123")
	if remaining <= 0 || remaining > ttl {
		t.Fatalf("expected ttl within (0, %v], got %v", ttl, remaining)
	}
}

func TestRevocationStore_IsRevokedMiss(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewRevocationStore(client, "blacklist")

	revoked, err := store.IsRevoked(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if revoked {
		t.Fatalf("expected revoked to be false")
	}
}

func TestRevocationStore_InvalidInput(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewRevocationStore(client, "blacklist")

	if err := store.Revoke(context.Background(), "", time.Minute); err == nil {
		t.Fatalf("expected error for empty token")
	}
	if err := store.Revoke(context.Background(), "token", 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
	if _, err := store.IsRevoked(context.Background(), ""); err == nil {
		t.Fatalf("expected error for empty token in IsRevoked")
	}
}

func TestRevocationStore_EntryExpires(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewRevocationStore(client, "blacklist")

	ctx := context.Background()
	if err := store.Revoke(ctx, "token-ttl", time.Second); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}

	server.FastForward(2 * time.Second)

	revoked, err := store.IsRevoked(ctx, "token-ttl")
	if err != nil {
		t.Fatalf("IsRevoked returned error: %v", err)
	}
	if revoked {
		t.Fatalf("expected expired entry to read as not revoked")
	}
}
