package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/core/port"
	"github.com/dkosarev/admincore/internal/query"
	"github.com/dkosarev/admincore/internal/repository"
)

var roleColumns = []string{
	"id",
	"name",
	"code",
	"data_scope",
	"created_at",
	"updated_at",
}

// RoleRepository implements port.RoleRepository using PostgreSQL.
type RoleRepository struct {
	db      pgBeginner
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewRoleRepository wires a role repository backed by any executor that
// satisfies pgExecutor.
func NewRoleRepository(exec pgExecutor) *RoleRepository {
	repo := &RoleRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if db, ok := exec.(pgBeginner); ok {
		repo.db = db
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *RoleRepository) WithTx(tx pgx.Tx) *RoleRepository {
	if tx == nil {
		return r
	}
	return &RoleRepository{
		db:      r.db,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new role row.
func (r *RoleRepository) Create(ctx context.Context, role domain.Role) error {
	stmt, args, err := r.builder.Insert("sys_roles").
		Columns(roleColumns...).
		Values(
			role.ID,
			role.Name,
			role.Code,
			role.DataScope,
			role.CreatedAt,
			role.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert role sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert role: %w", err)
	}

	return nil
}

// Update modifies an existing role's fields.
func (r *RoleRepository) Update(ctx context.Context, role domain.Role) error {
	stmt, args, err := r.builder.Update("sys_roles").
		Set("name", role.Name).
		Set("code", role.Code).
		Set("data_scope", role.DataScope).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": role.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update role sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("update role: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a role together with its unit set, permission links, and
// user assignments.
func (r *RoleRepository) Delete(ctx context.Context, id string) error {
	for _, table := range []string{"sys_role_units", "sys_role_permissions", "sys_user_roles"} {
		stmt, args, err := r.builder.Delete(table).
			Where(squirrel.Eq{"role_id": id}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build delete %s sql: %w", table, err)
		}
		if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
			return fmt.Errorf("delete %s: %w", table, err)
		}
	}

	stmt, args, err := r.builder.Delete("sys_roles").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete role sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete role: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetByID retrieves a role by identifier, including its custom unit set.
func (r *RoleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByCode retrieves a role by its unique code.
func (r *RoleRepository) GetByCode(ctx context.Context, code string) (*domain.Role, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code})
}

func (r *RoleRepository) getOne(ctx context.Context, cond squirrel.Eq) (*domain.Role, error) {
	stmt, args, err := r.builder.
		Select(roleColumns...).
		From("sys_roles").
		Where(cond).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select role sql: %w", err)
	}

	var role domain.Role
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&role.ID,
		&role.Name,
		&role.Code,
		&role.DataScope,
		&role.CreatedAt,
		&role.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan role: %w", err)
	}

	unitIDs, err := r.listUnitIDs(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.UnitIDs = unitIDs

	return &role, nil
}

// List returns every role ordered by creation time.
func (r *RoleRepository) List(ctx context.Context) ([]domain.Role, error) {
	stmt, args, err := r.builder.
		Select(roleColumns...).
		From("sys_roles").
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list roles sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	roles, err := scanRoles(rows)
	if err != nil {
		return nil, err
	}

	return roles, nil
}

// Page returns one page of roles restricted by scope AND filter, plus the
// total match count, read from a single snapshot.
func (r *RoleRepository) Page(ctx context.Context, scope, filter query.Predicate, req query.PageRequest) ([]domain.Role, int, error) {
	countBuilder, sliceBuilder := query.BuildPage("sys_roles", roleColumns, scope, filter, req, "created_at")

	countStmt, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count roles sql: %w", err)
	}
	sliceStmt, sliceArgs, err := sliceBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list roles sql: %w", err)
	}

	if r.db == nil {
		return nil, 0, errors.New("roles page requires a transactional executor")
	}
	tx, err := r.db.BeginTx(ctx, snapshotTxOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("begin roles page tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int64
	if err := tx.QueryRow(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("scan roles count: %w", err)
	}

	rows, err := tx.Query(ctx, sliceStmt, sliceArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query roles page: %w", err)
	}
	defer rows.Close()

	roles, err := scanRoles(rows)
	if err != nil {
		return nil, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("commit roles page tx: %w", err)
	}

	return roles, int(total), nil
}

// SetCustomUnits replaces the explicit unit set of a CUSTOM-scope role.
func (r *RoleRepository) SetCustomUnits(ctx context.Context, roleID string, unitIDs []string) error {
	stmt, args, err := r.builder.Delete("sys_role_units").
		Where(squirrel.Eq{"role_id": roleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear role units sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("clear role units: %w", err)
	}

	if len(unitIDs) == 0 {
		return nil
	}

	insert := r.builder.Insert("sys_role_units").Columns("role_id", "unit_id")
	for _, unitID := range unitIDs {
		insert = insert.Values(roleID, unitID)
	}

	stmt, args, err = insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build insert role units sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert role units: %w", err)
	}

	return nil
}

// AssignPermissions replaces the role's permission links with the provided set.
func (r *RoleRepository) AssignPermissions(ctx context.Context, roleID string, permissionIDs []string) error {
	stmt, args, err := r.builder.Delete("sys_role_permissions").
		Where(squirrel.Eq{"role_id": roleID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear role permissions sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("clear role permissions: %w", err)
	}

	if len(permissionIDs) == 0 {
		return nil
	}

	insert := r.builder.Insert("sys_role_permissions").Columns("role_id", "permission_id")
	for _, permissionID := range permissionIDs {
		insert = insert.Values(roleID, permissionID)
	}

	stmt, args, err = insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build insert role permissions sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert role permissions: %w", err)
	}

	return nil
}

// ListPermissionIDs returns the permission identifiers linked to the role.
func (r *RoleRepository) ListPermissionIDs(ctx context.Context, roleID string) ([]string, error) {
	stmt, args, err := r.builder.Select("permission_id").
		From("sys_role_permissions").
		Where(squirrel.Eq{"role_id": roleID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list role permissions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query role permissions: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan role permission: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role permissions: %w", err)
	}

	return ids, nil
}

func (r *RoleRepository) listUnitIDs(ctx context.Context, roleID string) ([]string, error) {
	stmt, args, err := r.builder.Select("unit_id").
		From("sys_role_units").
		Where(squirrel.Eq{"role_id": roleID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list role units sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query role units: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan role unit: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role units: %w", err)
	}

	return ids, nil
}

func scanRoles(rows pgx.Rows) ([]domain.Role, error) {
	roles := make([]domain.Role, 0)
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(
			&role.ID,
			&role.Name,
			&role.Code,
			&role.DataScope,
			&role.CreatedAt,
			&role.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roles: %w", err)
	}
	return roles, nil
}

var _ port.RoleRepository = (*RoleRepository)(nil)
