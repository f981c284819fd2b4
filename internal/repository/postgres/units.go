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
	"github.com/dkosarev/admincore/internal/repository"
)

var unitColumns = []string{
	"id",
	"name",
	"parent_id",
	"sort",
	"created_at",
	"updated_at",
}

// UnitRepository implements port.UnitRepository using PostgreSQL.
type UnitRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewUnitRepository wires a unit repository backed by any executor that
// satisfies pgExecutor.
func NewUnitRepository(exec pgExecutor) *UnitRepository {
	return &UnitRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new unit row.
func (r *UnitRepository) Create(ctx context.Context, unit domain.Unit) error {
	stmt, args, err := r.builder.Insert("sys_units").
		Columns(unitColumns...).
		Values(
			unit.ID,
			unit.Name,
			unit.ParentID,
			unit.Sort,
			unit.CreatedAt,
			unit.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert unit sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert unit: %w", err)
	}

	return nil
}

// Update modifies an existing unit row.
func (r *UnitRepository) Update(ctx context.Context, unit domain.Unit) error {
	stmt, args, err := r.builder.Update("sys_units").
		Set("name", unit.Name).
		Set("parent_id", unit.ParentID).
		Set("sort", unit.Sort).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": unit.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update unit sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update unit: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a unit row. Guard checks (children, assigned users) belong
// to the caller.
func (r *UnitRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Delete("sys_units").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete unit sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete unit: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// GetByID retrieves a unit by identifier.
func (r *UnitRepository) GetByID(ctx context.Context, id string) (*domain.Unit, error) {
	stmt, args, err := r.builder.
		Select(unitColumns...).
		From("sys_units").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select unit sql: %w", err)
	}

	var unit domain.Unit
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&unit.ID,
		&unit.Name,
		&unit.ParentID,
		&unit.Sort,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan unit: %w", err)
	}

	return &unit, nil
}

// List returns every unit ordered by sort key.
func (r *UnitRepository) List(ctx context.Context) ([]domain.Unit, error) {
	stmt, args, err := r.builder.
		Select(unitColumns...).
		From("sys_units").
		OrderBy("sort ASC", "created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list units sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query units: %w", err)
	}
	defer rows.Close()

	units := make([]domain.Unit, 0)
	for rows.Next() {
		var unit domain.Unit
		if err := rows.Scan(
			&unit.ID,
			&unit.Name,
			&unit.ParentID,
			&unit.Sort,
			&unit.CreatedAt,
			&unit.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan unit: %w", err)
		}
		units = append(units, unit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate units: %w", err)
	}

	return units, nil
}

// CountChildren returns the number of units whose parent is the given unit.
func (r *UnitRepository) CountChildren(ctx context.Context, parentID string) (int, error) {
	stmt, args, err := r.builder.Select("COUNT(*)").
		From("sys_units").
		Where(squirrel.Eq{"parent_id": parentID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count unit children sql: %w", err)
	}

	var count int64
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("scan unit children count: %w", err)
	}

	return int(count), nil
}

var _ port.UnitRepository = (*UnitRepository)(nil)
