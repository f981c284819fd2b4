package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkosarev/admincore/internal/repository"
)

func TestResetCodeStore_PutGetDelete(t *testing.T) {
	client, server := newTestRedis(t)
	store := NewResetCodeStore(client, "captcha:email")

	ctx := context.Background()
	if err := store.Put(ctx, "Alice@Example.com", "482913", 5*time.Minute); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	// lookup is case-insensitive on the address
	code, err := store.Get(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if code != "482913" {
		t.Fatalf("expected code 482913, got %s", code)
	}

	remaining := server.TTL("captcha:email:alice@example.com")
	if remaining <= 0 || remaining > 5*time.Minute {
		t.Fatalf("expected ttl within (0, 5m], got %v", remaining)
	}

	if err := store.Delete(ctx, "alice@example.com"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := store.Get(ctx, "alice@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected repository.ErrNotFound after delete, got %v", err)
	}
}

func TestResetCodeStore_Replace(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewResetCodeStore(client, "captcha:email")

	ctx := context.Background()
	if err := store.Put(ctx, "bob@example.com", "111111", time.Minute); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if err := store.Put(ctx, "bob@example.com", "222222", time.Minute); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	code, err := store.Get(ctx, "bob@example.com")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if code != "222222" {
		t.Fatalf("expected latest code to win, got %s", code)
	}
}

func TestResetCodeStore_MissAndInvalidInput(t *testing.T) {
	client, _ := newTestRedis(t)
	store := NewResetCodeStore(client, "captcha:email")

	ctx := context.Background()
	if _, err := store.Get(ctx, "nobody@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected repository.ErrNotFound, got %v", err)
	}
	if err := store.Put(ctx, "", "123456", time.Minute); err == nil {
		t.Fatalf("expected error for empty email")
	}
	if err := store.Put(ctx, "a@b.c", "", time.Minute); err == nil {
		t.Fatalf("expected error for empty code")
	}
	if err := store.Put(ctx, "a@b.c", "123456", 0); err == nil {
		t.Fatalf("expected error for non-positive ttl")
	}
}
