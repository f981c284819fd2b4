package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/core/port"
	"github.com/dkosarev/admincore/internal/query"
	"github.com/dkosarev/admincore/internal/repository"
)

var userColumns = []string{
	"id",
	"username",
	"nickname",
	"email",
	"password_hash",
	"is_active",
	"unit_id",
	"created_at",
	"updated_at",
}

// UserRepository implements port.UserRepository using PostgreSQL.
type UserRepository struct {
	db      pgBeginner
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUserRepository wires a user repository backed by any executor that
// satisfies pgExecutor. Paged reads additionally need the executor to open
// transactions.
func NewUserRepository(exec pgExecutor) *UserRepository {
	repo := &UserRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
	if db, ok := exec.(pgBeginner); ok {
		repo.db = db
	}
	return repo
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *UserRepository) WithTx(tx pgx.Tx) *UserRepository {
	if tx == nil {
		return r
	}
	return &UserRepository{
		db:      r.db,
		exec:    tx,
		builder: r.builder,
	}
}

// Create inserts a new user row.
func (r *UserRepository) Create(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Insert("sys_users").
		Columns(userColumns...).
		Values(
			user.ID,
			user.Username,
			user.Nickname,
			user.Email,
			user.PasswordHash,
			user.IsActive,
			user.UnitID,
			user.CreatedAt,
			user.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert user sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// Update modifies an existing user's profile fields.
func (r *UserRepository) Update(ctx context.Context, user domain.User) error {
	stmt, args, err := r.builder.Update("sys_users").
		Set("nickname", user.Nickname).
		Set("email", user.Email).
		Set("is_active", user.IsActive).
		Set("unit_id", user.UnitID).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": user.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update user sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a user row along with its role assignments.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("sys_user_roles").
		Where(squirrel.Eq{"user_id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete user roles sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete user roles: %w", err)
	}

	stmt, args, err = r.builder.Delete("sys_users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete user sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetByID retrieves a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"id": id})
}

// GetByUsername retrieves a user by its unique username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"username": username})
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

func (r *UserRepository) getOne(ctx context.Context, cond squirrel.Eq) (*domain.User, error) {
	stmt, args, err := r.builder.
		Select(userColumns...).
		From("sys_users").
		Where(cond).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select user sql: %w", err)
	}

	row := r.exec.QueryRow(ctx, stmt, args...)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return user, nil
}

// GetPrincipal resolves a user together with its role set in one statement,
// so the identity and the roles come from the same snapshot.
func (r *UserRepository) GetPrincipal(ctx context.Context, id string) (*domain.Principal, error) {
	const stmt = `
		SELECT u.id, u.username, r.id, r.name, r.code, r.data_scope
		  FROM sys_users u
		  LEFT JOIN sys_user_roles ur ON ur.user_id = u.id
		  LEFT JOIN sys_roles r ON r.id = ur.role_id
		 WHERE u.id = $1
		   AND u.is_active = TRUE
	`

	rows, err := r.exec.Query(ctx, stmt, id)
	if err != nil {
		return nil, fmt.Errorf("query principal: %w", err)
	}
	defer rows.Close()

	var principal *domain.Principal
	for rows.Next() {
		var (
			userID    string
			username  string
			roleID    sql.NullString
			roleName  sql.NullString
			roleCode  sql.NullString
			roleScope sql.NullString
		)

		if err := rows.Scan(&userID, &username, &roleID, &roleName, &roleCode, &roleScope); err != nil {
			return nil, fmt.Errorf("scan principal: %w", err)
		}

		if principal == nil {
			principal = &domain.Principal{ID: userID, Username: username}
		}
		if roleID.Valid {
			principal.Roles = append(principal.Roles, domain.Role{
				ID:        roleID.String,
				Name:      roleName.String,
				Code:      roleCode.String,
				DataScope: domain.DataScope(roleScope.String),
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate principal: %w", err)
	}

	if principal == nil {
		return nil, repository.ErrNotFound
	}

	return principal, nil
}

// GetScopeProfile loads the data-scope snapshot in one statement: the user's
// own unit plus every role with its scope class and custom unit set.
func (r *UserRepository) GetScopeProfile(ctx context.Context, id string) (*domain.ScopeProfile, error) {
	const stmt = `
		SELECT u.id, u.username, u.unit_id,
		       r.id, r.name, r.code, r.data_scope,
		       COALESCE(array_agg(ru.unit_id) FILTER (WHERE ru.unit_id IS NOT NULL), '{}')
		  FROM sys_users u
		  LEFT JOIN sys_user_roles ur ON ur.user_id = u.id
		  LEFT JOIN sys_roles r ON r.id = ur.role_id
		  LEFT JOIN sys_role_units ru ON ru.role_id = r.id
		 WHERE u.id = $1
		   AND u.is_active = TRUE
		 GROUP BY u.id, u.username, u.unit_id, r.id, r.name, r.code, r.data_scope
	`

	rows, err := r.exec.Query(ctx, stmt, id)
	if err != nil {
		return nil, fmt.Errorf("query scope profile: %w", err)
	}
	defer rows.Close()

	var profile *domain.ScopeProfile
	for rows.Next() {
		var (
			userID    string
			username  string
			unitID    *string
			roleID    sql.NullString
			roleName  sql.NullString
			roleCode  sql.NullString
			roleScope sql.NullString
			unitIDs   []string
		)

		if err := rows.Scan(&userID, &username, &unitID, &roleID, &roleName, &roleCode, &roleScope, &unitIDs); err != nil {
			return nil, fmt.Errorf("scan scope profile: %w", err)
		}

		if profile == nil {
			profile = &domain.ScopeProfile{
				UserID:   userID,
				Username: username,
				UnitID:   unitID,
			}
		}
		if roleID.Valid {
			profile.Roles = append(profile.Roles, domain.Role{
				ID:        roleID.String,
				Name:      roleName.String,
				Code:      roleCode.String,
				DataScope: domain.DataScope(roleScope.String),
				UnitIDs:   unitIDs,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scope profile: %w", err)
	}

	if profile == nil {
		return nil, repository.ErrNotFound
	}

	return profile, nil
}

// AssignRoles replaces the user's role assignments with the provided set.
func (r *UserRepository) AssignRoles(ctx context.Context, userID string, roleIDs []string) error {
	stmt, args, err := r.builder.Delete("sys_user_roles").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build clear user roles sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("clear user roles: %w", err)
	}

	if len(roleIDs) == 0 {
		return nil
	}

	insert := r.builder.Insert("sys_user_roles").Columns("user_id", "role_id")
	for _, roleID := range roleIDs {
		insert = insert.Values(userID, roleID)
	}

	stmt, args, err = insert.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("build assign roles sql: %w", err)
	}
	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("assign roles: %w", err)
	}

	return nil
}

// UpdatePassword replaces the user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	stmt, args, err := r.builder.Update("sys_users").
		Set("password_hash", passwordHash).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update password sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// CountByUnit returns how many users reference the unit.
func (r *UserRepository) CountByUnit(ctx context.Context, unitID string) (int, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("sys_users").
		Where(squirrel.Eq{"unit_id": unitID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count users by unit sql: %w", err)
	}

	var count int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("scan users count: %w", err)
	}

	return int(count), nil
}

// Page returns one page of users restricted by scope AND filter, plus the
// total match count. Both queries run inside a repeatable-read transaction
// so the count and the slice describe the same state.
func (r *UserRepository) Page(ctx context.Context, scope, filter query.Predicate, req query.PageRequest) ([]domain.User, int, error) {
	countBuilder, sliceBuilder := query.BuildPage("sys_users", userColumns, scope, filter, req, "created_at")

	countStmt, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count users sql: %w", err)
	}
	sliceStmt, sliceArgs, err := sliceBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list users sql: %w", err)
	}

	if r.db == nil {
		return nil, 0, errors.New("users page requires a transactional executor")
	}
	tx, err := r.db.BeginTx(ctx, snapshotTxOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("begin users page tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int64
	if err := tx.QueryRow(ctx, countStmt, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("scan users count: %w", err)
	}

	rows, err := tx.Query(ctx, sliceStmt, sliceArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("query users page: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("commit users page tx: %w", err)
	}

	return users, int(total), nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Nickname,
		&user.Email,
		&user.PasswordHash,
		&user.IsActive,
		&user.UnitID,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ port.UserRepository = (*UserRepository)(nil)
