package postgres

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/query"
)

func TestRoleRepositoryPage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRoleRepository(mock)

	now := time.Now().UTC()
	req := query.PageRequest{Page: 1, Limit: 2, SortField: "name", SortOrder: "asc"}

	rows := pgxmock.NewRows(roleColumns).
		AddRow("role-1", "Auditor", "auditor", domain.DataScope("OWN_UNIT"), now, now).
		AddRow("role-2", "Viewer", "viewer", domain.DataScope("SELF"), now, now)

	mock.ExpectBeginTx(snapshotTxOptions)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sys_roles`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery(`FROM sys_roles ORDER BY name ASC LIMIT 2 OFFSET 0`).
		WillReturnRows(rows)
	mock.ExpectCommit()

	roles, total, err := repo.Page(context.Background(), query.Unrestricted(), query.Unrestricted(), req)
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(roles))
	}
	if roles[0].Code != "auditor" {
		t.Fatalf("unexpected first role: %+v", roles[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRoleRepositoryPageDenyAllScope(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewRoleRepository(mock)

	mock.ExpectBeginTx(snapshotTxOptions)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sys_roles WHERE 1=0`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery(`FROM sys_roles WHERE 1=0 ORDER BY created_at DESC`).
		WillReturnRows(pgxmock.NewRows(roleColumns))
	mock.ExpectCommit()

	roles, total, err := repo.Page(context.Background(), query.DenyAll(), query.Unrestricted(), query.PageRequest{})
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	if total != 0 || len(roles) != 0 {
		t.Fatalf("expected empty page, got total %d with %d rows", total, len(roles))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
