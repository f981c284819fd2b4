package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/core/port"
	"github.com/dkosarev/admincore/internal/repository"
)

var permissionColumns = []string{
	"id",
	"name",
	"code",
	"type",
	"parent_id",
	"sort",
	"created_at",
}

// PermissionRepository implements port.PermissionRepository using PostgreSQL.
type PermissionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewPermissionRepository wires a permission repository backed by any executor
// that satisfies pgExecutor.
func NewPermissionRepository(exec pgExecutor) *PermissionRepository {
	return &PermissionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new permission node.
func (r *PermissionRepository) Create(ctx context.Context, permission domain.Permission) error {
	stmt, args, err := r.builder.Insert("sys_permissions").
		Columns(permissionColumns...).
		Values(
			permission.ID,
			permission.Name,
			permission.Code,
			permission.Type,
			permission.ParentID,
			permission.Sort,
			permission.CreatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert permission sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert permission: %w", err)
	}

	return nil
}

// Update modifies an existing permission node.
func (r *PermissionRepository) Update(ctx context.Context, permission domain.Permission) error {
	stmt, args, err := r.builder.Update("sys_permissions").
		Set("name", permission.Name).
		Set("code", permission.Code).
		Set("type", permission.Type).
		Set("parent_id", permission.ParentID).
		Set("sort", permission.Sort).
		Where(squirrel.Eq{"id": permission.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update permission sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("update permission: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a permission node along with its role links.
func (r *PermissionRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("sys_role_permissions").
		Where(squirrel.Eq{"permission_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete permission links sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete permission links: %w", err)
	}

	stmt, args, err = r.builder.Delete("sys_permissions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete permission sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetByID retrieves a permission node by identifier.
func (r *PermissionRepository) GetByID(ctx context.Context, id string) (*domain.Permission, error) {
	stmt, args, err := r.builder.
		Select(permissionColumns...).
		From("sys_permissions").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select permission sql: %w", err)
	}

	var permission domain.Permission
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&permission.ID,
		&permission.Name,
		&permission.Code,
		&permission.Type,
		&permission.ParentID,
		&permission.Sort,
		&permission.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan permission: %w", err)
	}

	return &permission, nil
}

// List returns every permission node ordered by sort key.
func (r *PermissionRepository) List(ctx context.Context) ([]domain.Permission, error) {
	stmt, args, err := r.builder.
		Select(permissionColumns...).
		From("sys_permissions").
		OrderBy("sort ASC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list permissions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	permissions := make([]domain.Permission, 0)
	for rows.Next() {
		var permission domain.Permission
		if err := rows.Scan(
			&permission.ID,
			&permission.Name,
			&permission.Code,
			&permission.Type,
			&permission.ParentID,
			&permission.Sort,
			&permission.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		permissions = append(permissions, permission)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}

	return permissions, nil
}

// CountChildren returns the number of nodes whose parent is the given node.
func (r *PermissionRepository) CountChildren(ctx context.Context, parentID string) (int, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("sys_permissions").
		Where(squirrel.Eq{"parent_id": parentID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count permission children sql: %w", err)
	}

	var count int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("scan permission children count: %w", err)
	}

	return int(count), nil
}

// ListCodesByUser flattens the distinct permission codes granted to a user
// through its roles.
func (r *PermissionRepository) ListCodesByUser(ctx context.Context, userID string) ([]string, error) {
	const stmt = `
		SELECT DISTINCT p.code
		  FROM sys_permissions p
		  JOIN sys_role_permissions rp ON rp.permission_id = p.id
		  JOIN sys_user_roles ur ON ur.role_id = rp.role_id
		 WHERE ur.user_id = $1
		   AND p.code <> ''
		 ORDER BY p.code
	`

	rows, err := r.exec.Query(ctx, stmt, userID)
	if err != nil {
		return nil, fmt.Errorf("query user permission codes: %w", err)
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan permission code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permission codes: %w", err)
	}

	return codes, nil
}

var _ port.PermissionRepository = (*PermissionRepository)(nil)
