package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/dkosarev/admincore/internal/query"
	"github.com/dkosarev/admincore/internal/repository"
)

func newUserMock(t *testing.T) (pgxmock.PgxPoolIface, *UserRepository) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock, NewUserRepository(mock)
}

func userPageRows(total int, now time.Time) *pgxmock.Rows {
	rows := pgxmock.NewRows(userColumns)
	for i := 0; i < total; i++ {
		rows.AddRow("user-"+string(rune('a'+i)), "account-"+string(rune('a'+i)), nil, nil, "hash", true, nil, now, now)
	}
	return rows
}

func TestUserRepositoryPage(t *testing.T) {
	mock, repo := newUserMock(t)

	now := time.Now().UTC()
	scope := query.FromSqlizer(squirrel.Eq{"unit_id": "unit-1"})
	req := query.PageRequest{Page: 2, Limit: 10}

	mock.ExpectBeginTx(snapshotTxOptions)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sys_users WHERE unit_id = \$1`).
		WithArgs("unit-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(15)))
	mock.ExpectQuery(`SELECT id, username, .* FROM sys_users WHERE unit_id = \$1 ORDER BY created_at DESC LIMIT 10 OFFSET 10`).
		WithArgs("unit-1").
		WillReturnRows(userPageRows(5, now))
	mock.ExpectCommit()

	users, total, err := repo.Page(context.Background(), scope, query.Unrestricted(), req)
	if err != nil {
		t.Fatalf("Page returned error: %v", err)
	}
	if total != 15 {
		t.Fatalf("expected total 15, got %d", total)
	}
	if len(users) != 5 {
		t.Fatalf("expected 5 users on the last page, got %d", len(users))
	}
	if users[0].Username != "account-a" {
		t.Fatalf("unexpected first row: %+v", users[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryPageClampsSortColumn(t *testing.T) {
	mock, repo := newUserMock(t)

	now := time.Now().UTC()
	req := query.PageRequest{SortField: "created_at; DROP TABLE sys_users; --"}

	mock.ExpectBeginTx(snapshotTxOptions)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM sys_users`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`FROM sys_users ORDER BY created_at DESC LIMIT 10 OFFSET 0`).
		WillReturnRows(userPageRows(1, now))
	mock.ExpectCommit()

	if _, _, err := repo.Page(context.Background(), query.Unrestricted(), query.Unrestricted(), req); err != nil {
		t.Fatalf("Page returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryPageWithoutPool(t *testing.T) {
	mock, repo := newUserMock(t)

	scoped := repo.WithTx(nil)
	if scoped != repo {
		t.Fatalf("WithTx(nil) must return the receiver")
	}

	bare := &UserRepository{exec: mock, builder: repo.builder}
	if _, _, err := bare.Page(context.Background(), query.Unrestricted(), query.Unrestricted(), query.PageRequest{}); err == nil {
		t.Fatal("expected error when no transactional executor is available")
	}
}

func TestUserRepositoryGetPrincipal(t *testing.T) {
	mock, repo := newUserMock(t)

	rows := pgxmock.NewRows([]string{"id", "username", "role_id", "role_name", "role_code", "data_scope"}).
		AddRow("user-1", "ann", "role-1", "Auditor", "auditor", "OWN_UNIT").
		AddRow("user-1", "ann", "role-2", "Viewer", "viewer", "SELF")

	mock.ExpectQuery(`SELECT u\.id, u\.username, r\.id, r\.name, r\.code, r\.data_scope`).
		WithArgs("user-1").
		WillReturnRows(rows)

	principal, err := repo.GetPrincipal(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetPrincipal returned error: %v", err)
	}
	if principal.ID != "user-1" || principal.Username != "ann" {
		t.Fatalf("unexpected principal: %+v", principal)
	}
	if len(principal.Roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(principal.Roles))
	}
	if principal.Roles[0].Code != "auditor" || principal.Roles[1].Code != "viewer" {
		t.Fatalf("unexpected role codes: %+v", principal.Roles)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryGetPrincipalRoleless(t *testing.T) {
	mock, repo := newUserMock(t)

	rows := pgxmock.NewRows([]string{"id", "username", "role_id", "role_name", "role_code", "data_scope"}).
		AddRow("user-2", "bob", nil, nil, nil, nil)

	mock.ExpectQuery(`SELECT u\.id, u\.username, r\.id, r\.name, r\.code, r\.data_scope`).
		WithArgs("user-2").
		WillReturnRows(rows)

	principal, err := repo.GetPrincipal(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("GetPrincipal returned error: %v", err)
	}
	if len(principal.Roles) != 0 {
		t.Fatalf("expected no roles, got %+v", principal.Roles)
	}
}

func TestUserRepositoryGetPrincipalNotFound(t *testing.T) {
	mock, repo := newUserMock(t)

	mock.ExpectQuery(`SELECT u\.id, u\.username, r\.id, r\.name, r\.code, r\.data_scope`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "role_id", "role_name", "role_code", "data_scope"}))

	if _, err := repo.GetPrincipal(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepositoryGetScopeProfile(t *testing.T) {
	mock, repo := newUserMock(t)

	unitID := "unit-7"
	rows := pgxmock.NewRows([]string{"id", "username", "unit_id", "role_id", "role_name", "role_code", "data_scope", "unit_ids"}).
		AddRow("user-1", "ann", &unitID, "role-1", "Regional", "regional", "CUSTOM", []string{"unit-1", "unit-2"}).
		AddRow("user-1", "ann", &unitID, "role-2", "Viewer", "viewer", "SELF", []string{})

	mock.ExpectQuery(`SELECT u\.id, u\.username, u\.unit_id`).
		WithArgs("user-1").
		WillReturnRows(rows)

	profile, err := repo.GetScopeProfile(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("GetScopeProfile returned error: %v", err)
	}
	if profile.UnitID == nil || *profile.UnitID != unitID {
		t.Fatalf("expected unit %s, got %+v", unitID, profile.UnitID)
	}
	if len(profile.Roles) != 2 {
		t.Fatalf("expected 2 roles, got %d", len(profile.Roles))
	}
	if len(profile.Roles[0].UnitIDs) != 2 || profile.Roles[0].UnitIDs[0] != "unit-1" {
		t.Fatalf("unexpected custom unit set: %+v", profile.Roles[0].UnitIDs)
	}
	if len(profile.Roles[1].UnitIDs) != 0 {
		t.Fatalf("expected empty unit set for SELF role, got %+v", profile.Roles[1].UnitIDs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepositoryGetScopeProfileNotFound(t *testing.T) {
	mock, repo := newUserMock(t)

	mock.ExpectQuery(`SELECT u\.id, u\.username, u\.unit_id`).
		WithArgs("ghost").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "unit_id", "role_id", "role_name", "role_code", "data_scope", "unit_ids"}))

	if _, err := repo.GetScopeProfile(context.Background(), "ghost"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
