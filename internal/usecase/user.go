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
	"github.com/dkosarev/admincore/internal/query"
	"github.com/dkosarev/admincore/internal/repository"
)

var (
	// ErrUsernameTaken indicates the username is already registered.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrUserNotFound indicates the account does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordMismatch indicates the supplied current password is wrong.
	ErrPasswordMismatch = errors.New("current password does not match")
)

// userFilterRules declares which list-filter fields compile into the user
// query and how. Anything outside this table is ignored.
var userFilterRules = query.Rules{
	"username": {Match: query.MatchContains},
	"nickname": {Match: query.MatchContains},
	"email":    {Match: query.MatchEqual},
	"isActive": {Column: "is_active", Match: query.MatchEqual},
	"unitIds":  {Column: "unit_id", Match: query.MatchInSet},
}

// UserService manages user accounts.
type UserService struct {
	users     port.UserRepository
	scopes    *ScopeService
	validator *security.PasswordValidator
	events    port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(
	users port.UserRepository,
	scopes *ScopeService,
	validator *security.PasswordValidator,
	events port.EventPublisher,
	logger *zap.Logger,
) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validator == nil {
		validator = security.DefaultPasswordValidator()
	}

	return &UserService{
		users:     users,
		scopes:    scopes,
		validator: validator,
		events:    events,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateUserInput carries the fields for a new account.
type CreateUserInput struct {
	Username string
	Nickname string
	Email    string
	Password string
	UnitID   *string
}

// Create registers a new account with a validated, hashed password.
func (s *UserService) Create(ctx context.Context, actor *domain.Principal, input CreateUserInput) (*domain.User, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}

	if err := s.validator.Validate(input.Password); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		IsActive:     true,
		UnitID:       input.UnitID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if nickname := strings.TrimSpace(input.Nickname); nickname != "" {
		user.Nickname = &nickname
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		user.Email = &email
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	publishEvent(ctx, s.events, s.logger, domain.Event{
		Type:      domain.EventUserCreated,
		ActorID:   actorID(actor),
		SubjectID: user.ID,
		Payload:   map[string]any{"username": user.Username},
	})

	user.PasswordHash = ""
	return &user, nil
}

// UpdateUserInput carries the mutable profile fields.
type UpdateUserInput struct {
	ID       string
	Nickname *string
	Email    *string
	IsActive *bool
	UnitID   *string
}

// Update modifies an account's profile fields. Only supplied fields change.
func (s *UserService) Update(ctx context.Context, input UpdateUserInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}

	if input.Nickname != nil {
		user.Nickname = input.Nickname
	}
	if input.Email != nil {
		user.Email = input.Email
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.UnitID != nil {
		user.UnitID = input.UnitID
	}

	if err := s.users.Update(ctx, *user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// Delete removes an account and its role assignments.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

// Get loads one account.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// UserPage is one page of accounts with the total match count.
type UserPage struct {
	Items []domain.User
	Total int
	Page  int
	Limit int
}

// List returns a page of accounts visible to the caller. The caller's data
// scope, the compiled filter, and the time range are AND-ed into one query.
func (s *UserService) List(ctx context.Context, caller *domain.Principal, filter map[string]any, req query.PageRequest) (*UserPage, error) {
	scope, err := s.scopes.Resolve(ctx, caller, "unit_id", "id")
	if err != nil {
		return nil, err
	}

	compiled, err := query.Compile(filter, userFilterRules)
	if err != nil {
		return nil, err
	}

	req = req.Normalize()
	items, total, err := s.users.Page(ctx, scope, compiled, req)
	if err != nil {
		return nil, fmt.Errorf("page users: %w", err)
	}
	for i := range items {
		items[i].PasswordHash = ""
	}

	return &UserPage{Items: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

// AssignRoles replaces the account's role set.
func (s *UserService) AssignRoles(ctx context.Context, actor *domain.Principal, userID string, roleIDs []string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}

	if err := s.users.AssignRoles(ctx, userID, roleIDs); err != nil {
		return fmt.Errorf("assign roles: %w", err)
	}

	publishEvent(ctx, s.events, s.logger, domain.Event{
		Type:      domain.EventUserRolesChanged,
		ActorID:   actorID(actor),
		SubjectID: userID,
		Payload:   map[string]any{"role_ids": roleIDs},
	})

	return nil
}

// ChangePassword rotates the caller's own password after verifying the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}

	ok, err := security.VerifyPassword(currentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return ErrPasswordMismatch
	}

	return s.setPassword(ctx, userID, newPassword)
}

// ResetPassword sets a new password without checking the old one. The
// reset-code flow calls this after the emailed code is verified.
func (s *UserService) ResetPassword(ctx context.Context, userID, newPassword string) error {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("load user: %w", err)
	}
	return s.setPassword(ctx, userID, newPassword)
}

func (s *UserService) setPassword(ctx context.Context, userID, password string) error {
	if err := s.validator.Validate(password); err != nil {
		return err
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("update password: %w", err)
	}

	return nil
}

func actorID(principal *domain.Principal) string {
	if principal.Anonymous() {
		return ""
	}
	return principal.ID
}

func publishEvent(ctx context.Context, events port.EventPublisher, logger *zap.Logger, event domain.Event) {
	if events == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if err := events.Publish(ctx, event); err != nil {
		logger.Warn("publish event failed", zap.String("type", event.Type), zap.Error(err))
	}
}
