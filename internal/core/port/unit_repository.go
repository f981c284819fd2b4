package port

import (
	"context"

	"github.com/dkosarev/admincore/internal/core/domain"
)

// UnitRepository provides persistence for organizational units.
type UnitRepository interface {
	Create(ctx context.Context, unit domain.Unit) error
	Update(ctx context.Context, unit domain.Unit) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Unit, error)
	List(ctx context.Context) ([]domain.Unit, error)
	CountChildren(ctx context.Context, parentID string) (int, error)
}
