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
	// ErrPermissionNotFound indicates the permission node does not exist.
	ErrPermissionNotFound = errors.New("permission not found")
	// ErrPermissionHasChildren blocks deleting a node that still has
	// children.
	ErrPermissionHasChildren = errors.New("permission has child nodes")
)

// PermissionService manages the permission (menu) tree.
type PermissionService struct {
	permissions port.PermissionRepository
	now         func() time.Time
}

// NewPermissionService constructs a PermissionService.
func NewPermissionService(permissions port.PermissionRepository) *PermissionService {
	return &PermissionService{
		permissions: permissions,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// PermissionInput carries the fields for creating or updating a node.
type PermissionInput struct {
	Name     string
	Code     string
	Type     string
	ParentID *string
	Sort     int
}

// Create inserts a new permission node.
func (s *PermissionService) Create(ctx context.Context, input PermissionInput) (*domain.Permission, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("permission name is required")
	}

	if input.ParentID != nil {
		if _, err := s.permissions.GetByID(ctx, *input.ParentID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrPermissionNotFound
			}
			return nil, fmt.Errorf("load parent permission: %w", err)
		}
	}

	permission := domain.Permission{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Code:      strings.TrimSpace(input.Code),
		Type:      input.Type,
		ParentID:  input.ParentID,
		Sort:      input.Sort,
		CreatedAt: s.now(),
	}

	if err := s.permissions.Create(ctx, permission); err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}

	return &permission, nil
}

// Update modifies an existing node.
func (s *PermissionService) Update(ctx context.Context, id string, input PermissionInput) (*domain.Permission, error) {
	permission, err := s.permissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("load permission: %w", err)
	}

	permission.Name = strings.TrimSpace(input.Name)
	permission.Code = strings.TrimSpace(input.Code)
	permission.Type = input.Type
	permission.ParentID = input.ParentID
	permission.Sort = input.Sort

	if err := s.permissions.Update(ctx, *permission); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPermissionNotFound
		}
		return nil, fmt.Errorf("update permission: %w", err)
	}

	return permission, nil
}

// Delete removes a leaf node. Nodes with children must be emptied first.
func (s *PermissionService) Delete(ctx context.Context, id string) error {
	children, err := s.permissions.CountChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("count permission children: %w", err)
	}
	if children > 0 {
		return ErrPermissionHasChildren
	}

	if err := s.permissions.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPermissionNotFound
		}
		return fmt.Errorf("delete permission: %w", err)
	}
	return nil
}

// Tree returns the assembled permission forest.
func (s *PermissionService) Tree(ctx context.Context) ([]*domain.PermissionNode, error) {
	permissions, err := s.permissions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return domain.BuildPermissionTree(permissions), nil
}
