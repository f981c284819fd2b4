package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/core/port"
	"github.com/dkosarev/admincore/internal/infra/security"
	"github.com/dkosarev/admincore/internal/repository"
)

var (
	// ErrUnauthenticated indicates the token is missing, malformed, or
	// failed signature or expiry checks.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrRevoked indicates the token was explicitly invalidated before its
	// natural expiry. Surfaced distinctly so clients prompt re-login
	// instead of retrying.
	ErrRevoked = errors.New("token revoked")
	// ErrForbidden indicates the principal lacks a required role.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials indicates the username or password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInactiveAccount indicates the account is disabled.
	ErrInactiveAccount = errors.New("account is not active")
)

// AuthService authenticates requests and coordinates the login session
// lifecycle.
type AuthService struct {
	users       port.UserRepository
	permissions port.PermissionRepository
	revocations port.RevocationStore
	bypass      port.BypassStore
	sessions    port.SessionTracker
	tokens      *security.TokenManager
	events      port.EventPublisher
	public      map[string]struct{}
	logger      *zap.Logger
	now         func() time.Time
}

// NewAuthService constructs an AuthService. publicPaths lists routes marked
// public by static route metadata; requests to them are admitted without a
// principal before any store is consulted.
func NewAuthService(
	users port.UserRepository,
	permissions port.PermissionRepository,
	revocations port.RevocationStore,
	bypass port.BypassStore,
	sessions port.SessionTracker,
	tokens *security.TokenManager,
	events port.EventPublisher,
	publicPaths []string,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}

	public := make(map[string]struct{}, len(publicPaths))
	for _, path := range publicPaths {
		public[path] = struct{}{}
	}

	return &AuthService{
		users:       users,
		permissions: permissions,
		revocations: revocations,
		bypass:      bypass,
		sessions:    sessions,
		tokens:      tokens,
		events:      events,
		public:      public,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the service clock for deterministic tests.
func (s *AuthService) WithClock(clock func() time.Time) *AuthService {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Authenticate runs the guard chain for one request and resolves the caller
// to a principal. The checks short-circuit in a fixed order: static public
// routes, the dynamic bypass set, the revocation set, then signature and
// expiry. The revocation check runs before cryptographic validation so a
// blacklisted token is rejected even when its signature would verify.
func (s *AuthService) Authenticate(ctx context.Context, path, bearer string) (*domain.Principal, error) {
	if _, ok := s.public[path]; ok {
		return &domain.Principal{}, nil
	}

	bypassed, err := s.bypass.Contains(ctx, path)
	if err != nil {
		// fail closed: an unreadable bypass set never admits a request
		s.logger.Warn("bypass check failed", zap.String("path", path), zap.Error(err))
		bypassed = false
	}
	if bypassed {
		return &domain.Principal{}, nil
	}

	token := strings.TrimSpace(bearer)
	if token == "" {
		return nil, ErrUnauthenticated
	}

	revoked, err := s.revocations.IsRevoked(ctx, token)
	if err != nil {
		// fail closed: if the revocation set cannot be consulted, the
		// token cannot be trusted
		s.logger.Warn("revocation check failed", zap.Error(err))
		return nil, ErrUnauthenticated
	}
	if revoked {
		return nil, ErrRevoked
	}

	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	principal, err := s.users.GetPrincipal(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}

	return principal, nil
}

// Authorize checks the principal's role set against an endpoint's required
// role codes. An empty requirement allows unconditionally; otherwise any
// intersection allows.
func (s *AuthService) Authorize(principal *domain.Principal, requiredRoles ...string) error {
	if principal.HasAnyRole(requiredRoles...) {
		return nil
	}
	return ErrForbidden
}

// LoginInput carries credentials plus request metadata for the session record.
type LoginInput struct {
	Username string
	Password string
	SourceIP string
}

// LoginResult is the issued token with its expiry and the account it belongs to.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      domain.User
}

// Login validates credentials, issues an access token, and tracks the live
// session.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(input.Username) == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInactiveAccount
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	session := domain.OnlineSession{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		SourceIP:  input.SourceIP,
		IssuedAt:  s.now(),
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Track(ctx, session, s.tokens.TTL()); err != nil {
		// tracking is observability only, never a login failure
		s.logger.Warn("track session failed", zap.String("user_id", user.ID), zap.Error(err))
	}

	result := &LoginResult{Token: token, ExpiresAt: expiresAt, User: *user}
	result.User.PasswordHash = ""
	return result, nil
}

// Logout revokes the token for its remaining validity and drops the live
// session record. The revocation entry outlives the token, so the set never
// needs sweeping.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		if errors.Is(err, security.ErrExpiredToken) {
			// nothing left to revoke, just drop the session record
			return s.sessions.Remove(ctx, token)
		}
		return ErrUnauthenticated
	}

	if ttl := s.tokens.RemainingTTL(claims); ttl > 0 {
		if err := s.revocations.Revoke(ctx, token, ttl); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}

	if err := s.sessions.Remove(ctx, token); err != nil {
		s.logger.Warn("remove session failed", zap.Error(err))
	}

	s.publish(ctx, domain.Event{
		Type:      domain.EventSessionRevoked,
		ActorID:   claims.UserID,
		SubjectID: claims.UserID,
		Payload:   map[string]any{"reason": "logout"},
	})

	return nil
}

// Profile returns the account and the flattened permission codes granted
// through its roles.
func (s *AuthService) Profile(ctx context.Context, principal *domain.Principal) (*domain.User, []string, error) {
	if principal.Anonymous() {
		return nil, nil, ErrUnauthenticated
	}

	user, err := s.users.GetByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrUnauthenticated
		}
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}
	user.PasswordHash = ""

	codes, err := s.permissions.ListCodesByUser(ctx, principal.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load permission codes: %w", err)
	}

	return user, codes, nil
}

func (s *AuthService) publish(ctx context.Context, event domain.Event) {
	if s.events == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.now()
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("type", event.Type), zap.Error(err))
	}
}
