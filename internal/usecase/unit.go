package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	uuid "github.com/google/uuid"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/core/port"
	"github.com/dkosarev/admincore/internal/repository"
)

var (
	// ErrUnitNotFound indicates the unit does not exist.
	ErrUnitNotFound = errors.New("unit not found")
	// ErrUnitHasChildren blocks deleting a unit with child units.
	ErrUnitHasChildren = errors.New("unit has child units")
	// ErrUnitHasUsers blocks deleting a unit that users still belong to.
	ErrUnitHasUsers = errors.New("unit still has assigned users")
)

// UnitService manages the organizational unit tree.
type UnitService struct {
	units port.UnitRepository
	users port.UserRepository
	now   func() time.Time
}

// NewUnitService constructs a UnitService.
func NewUnitService(units port.UnitRepository, users port.UserRepository) *UnitService {
	return &UnitService{
		units: units,
		users: users,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// UnitInput carries the fields for creating or updating a unit.
type UnitInput struct {
	Name     string
	ParentID *string
	Sort     int
}

// Create inserts a new unit.
func (s *UnitService) Create(ctx context.Context, input UnitInput) (*domain.Unit, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("unit name is required")
	}

	if input.ParentID != nil {
		if _, err := s.units.GetByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrUnitNotFound
			}
			return nil, fmt.Errorf("load parent unit: %w", err)
		}
	}

	now := s.now()
	unit := domain.Unit{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		ParentID:  input.ParentID,
		Sort:      input.Sort,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.units.Create(ctx, unit); err != nil {
		return nil, fmt.Errorf("create unit: %w", err)
	}

	return &unit, nil
}

// Update modifies an existing unit.
func (s *UnitService) Update(ctx context.Context, id string, input UnitInput) (*domain.Unit, error) {
	unit, err := s.units.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("load unit: %w", err)
	}

	if input.ParentID != nil && *input.ParentID == id {
		return nil, fmt.Errorf("unit cannot be its own parent")
	}

	unit.Name = strings.TrimSpace(input.Name)
	unit.ParentID = input.ParentID
	unit.Sort = input.Sort

	if err := s.units.Update(ctx, *unit); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("update unit: %w", err)
	}

	return unit, nil
}

// Delete removes a unit after checking nothing still hangs off it.
func (s *UnitService) Delete(ctx context.Context, id string) error {
	children, err := s.units.CountChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("count unit children: %w", err)
	}
	if children > 0 {
		return ErrUnitHasChildren
	}

	assigned, err := s.users.CountByUnit(ctx, id)
	if err != nil {
		return fmt.Errorf("count unit users: %w", err)
	}
	if assigned > 0 {
		return ErrUnitHasUsers
	}

	if err := s.units.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnitNotFound
		}
		return fmt.Errorf("delete unit: %w", err)
	}
	return nil
}

// Get loads one unit.
func (s *UnitService) Get(ctx context.Context, id string) (*domain.Unit, error) {
	unit, err := s.units.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnitNotFound
		}
		return nil, fmt.Errorf("load unit: %w", err)
	}
	return unit, nil
}

// Tree returns the assembled unit forest.
func (s *UnitService) Tree(ctx context.Context) ([]*domain.UnitNode, error) {
	units, err := s.units.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}
	return domain.BuildUnitTree(units), nil
}
