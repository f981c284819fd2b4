package port

import (
	"context"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/query"
)

// RoleRepository provides persistence for roles and their assignments.
type RoleRepository interface {
	Create(ctx context.Context, role domain.Role) error
	Update(ctx context.Context, role domain.Role) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	GetByCode(ctx context.Context, code string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	Page(ctx context.Context, scope, filter query.Predicate, req query.PageRequest) ([]domain.Role, int, error)

	// SetCustomUnits replaces the explicit unit set of a CUSTOM-scope role.
	SetCustomUnits(ctx context.Context, roleID string, unitIDs []string) error
	AssignPermissions(ctx context.Context, roleID string, permissionIDs []string) error
	ListPermissionIDs(ctx context.Context, roleID string) ([]string, error)
}
