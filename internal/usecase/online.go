package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/core/port"
	"github.com/dkosarev/admincore/internal/infra/security"
)

// SessionService lists live sessions and forces them out.
type SessionService struct {
	tracker     port.SessionTracker
	revocations port.RevocationStore
	tokens      *security.TokenManager
	events      port.EventPublisher
	logger      *zap.Logger
	now         func() time.Time
}

// NewSessionService constructs a SessionService.
func NewSessionService(
	tracker port.SessionTracker,
	revocations port.RevocationStore,
	tokens *security.TokenManager,
	events port.EventPublisher,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		tracker:     tracker,
		revocations: revocations,
		tokens:      tokens,
		events:      events,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List returns every tracked live session.
func (s *SessionService) List(ctx context.Context) ([]domain.OnlineSession, error) {
	sessions, err := s.tracker.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ForceLogout revokes a tracked session's token and drops its record. The
// revocation entry is sized to the token's remaining lifetime so the token
// stays rejected until it would have expired anyway.
func (s *SessionService) ForceLogout(ctx context.Context, actor *domain.Principal, token string) error {
	ttl := s.tokens.TTL()
	var subjectID string
	if claims, err := s.tokens.Parse(token); err == nil {
		subjectID = claims.UserID
		if remaining := s.tokens.RemainingTTL(claims); remaining > 0 {
			ttl = remaining
		}
	}

	if err := s.revocations.Revoke(ctx, token, ttl); err != nil {
		return fmt.Errorf("revoke session token: %w", err)
	}

	if err := s.tracker.Remove(ctx, token); err != nil {
		s.logger.Warn("remove session record failed", zap.Error(err))
	}

	publishEvent(ctx, s.events, s.logger, domain.Event{
		Type:      domain.EventSessionRevoked,
		ActorID:   actorID(actor),
		SubjectID: subjectID,
		Payload:   map[string]any{"reason": "forced"},
	})

	return nil
}
