package port

import (
	"context"

	"github.com/dkosarev/admincore/internal/core/domain"
)

// PermissionRepository provides persistence for permission (menu) nodes.
type PermissionRepository interface {
	Create(ctx context.Context, permission domain.Permission) error
	Update(ctx context.Context, permission domain.Permission) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Permission, error)
	List(ctx context.Context) ([]domain.Permission, error)
	CountChildren(ctx context.Context, parentID string) (int, error)

	// ListCodesByUser flattens the distinct permission codes granted to a
	// user through its roles.
	ListCodesByUser(ctx context.Context, userID string) ([]string, error)
}
