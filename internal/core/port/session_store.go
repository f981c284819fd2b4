package port

import (
	"context"
	"time"

	"github.com/dkosarev/admincore/internal/core/domain"
)

// RevocationStore caches revoked bearer tokens. Presence of an entry means
// the token must be rejected regardless of cryptographic validity.
type RevocationStore interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// BypassStore manages the dynamic set of request paths exempted from
// authentication.
type BypassStore interface {
	List(ctx context.Context) ([]string, error)
	Contains(ctx context.Context, path string) (bool, error)
	Add(ctx context.Context, path string) error
	Remove(ctx context.Context, path string) error

	// Rename atomically replaces oldPath with newPath. Partial application
	// is a hard error, never a silent partial success.
	Rename(ctx context.Context, oldPath, newPath string) error
}

// SessionTracker records live sessions for observability. Absence of a
// record never affects authorization.
type SessionTracker interface {
	Track(ctx context.Context, session domain.OnlineSession, ttl time.Duration) error
	List(ctx context.Context) ([]domain.OnlineSession, error)
	Remove(ctx context.Context, token string) error
}

// ResetCodeStore keeps short-lived one-time codes for out-of-band
// verification flows.
type ResetCodeStore interface {
	Put(ctx context.Context, email, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, error)
	Delete(ctx context.Context, email string) error
}
