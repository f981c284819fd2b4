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
	"github.com/dkosarev/admincore/internal/query"
	"github.com/dkosarev/admincore/internal/repository"
)

var (
	// ErrRoleNotFound indicates the role does not exist.
	ErrRoleNotFound = errors.New("role not found")
	// ErrRoleCodeTaken indicates the role code is already registered.
	ErrRoleCodeTaken = errors.New("role code already taken")
	// ErrInvalidDataScope indicates an unknown data-scope class.
	ErrInvalidDataScope = errors.New("invalid data scope")
	// ErrCustomUnitsNotAllowed indicates a unit set supplied for a role
	// whose scope class is not CUSTOM.
	ErrCustomUnitsNotAllowed = errors.New("unit set only applies to CUSTOM scope")
)

var roleFilterRules = query.Rules{
	"name":      {Match: query.MatchContains},
	"code":      {Match: query.MatchEqual},
	"dataScope": {Column: "data_scope", Match: query.MatchEqual},
}

// RoleService manages roles, their data-scope policy, and their permission
// links.
type RoleService struct {
	roles  port.RoleRepository
	events port.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// NewRoleService constructs a RoleService.
func NewRoleService(roles port.RoleRepository, events port.EventPublisher, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{
		roles:  roles,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RoleInput carries the fields for creating or updating a role.
type RoleInput struct {
	Name      string
	Code      string
	DataScope domain.DataScope
	// UnitIDs is the explicit unit set, valid only with CUSTOM scope.
	UnitIDs []string
}

func (in RoleInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("role name is required")
	}
	if strings.TrimSpace(in.Code) == "" {
		return fmt.Errorf("role code is required")
	}
	if !in.DataScope.Valid() {
		return ErrInvalidDataScope
	}
	if len(in.UnitIDs) > 0 && in.DataScope != domain.ScopeCustom {
		return ErrCustomUnitsNotAllowed
	}
	return nil
}

// Create registers a new role.
func (s *RoleService) Create(ctx context.Context, actor *domain.Principal, input RoleInput) (*domain.Role, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	role := domain.Role{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Code:      strings.TrimSpace(input.Code),
		DataScope: input.DataScope,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.roles.Create(ctx, role); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRoleCodeTaken
		}
		return nil, fmt.Errorf("create role: %w", err)
	}

	if input.DataScope == domain.ScopeCustom && len(input.UnitIDs) > 0 {
		if err := s.roles.SetCustomUnits(ctx, role.ID, input.UnitIDs); err != nil {
			return nil, fmt.Errorf("set custom units: %w", err)
		}
		role.UnitIDs = input.UnitIDs
	}

	return &role, nil
}

// Update modifies a role. A data-scope change is published to the audit
// stream: it silently widens or narrows what every assigned user can see.
func (s *RoleService) Update(ctx context.Context, actor *domain.Principal, id string, input RoleInput) (*domain.Role, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("load role: %w", err)
	}

	scopeChanged := role.DataScope != input.DataScope

	role.Name = strings.TrimSpace(input.Name)
	role.Code = strings.TrimSpace(input.Code)
	role.DataScope = input.DataScope

	if err := s.roles.Update(ctx, *role); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrRoleCodeTaken
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("update role: %w", err)
	}

	if input.DataScope == domain.ScopeCustom {
		if err := s.roles.SetCustomUnits(ctx, role.ID, input.UnitIDs); err != nil {
			return nil, fmt.Errorf("set custom units: %w", err)
		}
		role.UnitIDs = input.UnitIDs
	} else if len(role.UnitIDs) > 0 {
		// leaving CUSTOM scope drops the now-meaningless unit set
		if err := s.roles.SetCustomUnits(ctx, role.ID, nil); err != nil {
			return nil, fmt.Errorf("clear custom units: %w", err)
		}
		role.UnitIDs = nil
	}

	if scopeChanged {
		publishEvent(ctx, s.events, s.logger, domain.Event{
			Type:      domain.EventRoleScopeChanged,
			ActorID:   actorID(actor),
			SubjectID: role.ID,
			Payload:   map[string]any{"data_scope": string(role.DataScope)},
		})
	}

	return role, nil
}

// Delete removes a role together with its links and assignments.
func (s *RoleService) Delete(ctx context.Context, id string) error {
	if err := s.roles.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("delete role: %w", err)
	}
	return nil
}

// Get loads one role with its custom unit set.
func (s *RoleService) Get(ctx context.Context, id string) (*domain.Role, error) {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRoleNotFound
		}
		return nil, fmt.Errorf("load role: %w", err)
	}
	return role, nil
}

// ListAll returns every role, for assignment pickers.
func (s *RoleService) ListAll(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// RolePage is one page of roles with the total match count.
type RolePage struct {
	Items []domain.Role
	Total int
	Page  int
	Limit int
}

// List returns a filtered page of roles. Role administration is not
// unit-scoped, so no scope predicate applies here.
func (s *RoleService) List(ctx context.Context, filter map[string]any, req query.PageRequest) (*RolePage, error) {
	compiled, err := query.Compile(filter, roleFilterRules)
	if err != nil {
		return nil, err
	}

	req = req.Normalize()
	items, total, err := s.roles.Page(ctx, query.Unrestricted(), compiled, req)
	if err != nil {
		return nil, fmt.Errorf("page roles: %w", err)
	}

	return &RolePage{Items: items, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

// AssignPermissions replaces the role's permission links.
func (s *RoleService) AssignPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	if _, err := s.roles.GetByID(ctx, roleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRoleNotFound
		}
		return fmt.Errorf("load role: %w", err)
	}

	if err := s.roles.AssignPermissions(ctx, roleID, permissionIDs); err != nil {
		return fmt.Errorf("assign permissions: %w", err)
	}
	return nil
}

// PermissionIDs returns the permission identifiers linked to the role.
func (s *RoleService) PermissionIDs(ctx context.Context, roleID string) ([]string, error) {
	ids, err := s.roles.ListPermissionIDs(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	return ids, nil
}
