package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/infra/security"
	"github.com/dkosarev/admincore/internal/query"
)

func newTestUserService(users *userRepoStub, events *eventPublisherStub) *UserService {
	if events == nil {
		events = &eventPublisherStub{}
	}
	return NewUserService(users, NewScopeService(users), nil, events, nil)
}

func TestUserCreate(t *testing.T) {
	users := newUserRepoStub()
	events := &eventPublisherStub{}
	service := newTestUserService(users, events)
	actor := &domain.Principal{ID: "admin-id", Username: "admin"}

	created, err := service.Create(context.Background(), actor, CreateUserInput{
		Username: "alice",
		Nickname: "Alice",
		Password: "tr0ub4dor&3 horse",
		UnitID:   strPtr("U1"),
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.PasswordHash != "" {
		t.Fatalf("expected password hash to be stripped from result")
	}

	stored, err := users.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername returned error: %v", err)
	}
	if stored.PasswordHash == "" {
		t.Fatalf("expected stored password hash")
	}
	ok, err := security.VerifyPassword("tr0ub4dor&3 horse", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected stored hash to verify, ok=%v err=%v", ok, err)
	}

	if len(events.events) != 1 || events.events[0].Type != domain.EventUserCreated {
		t.Fatalf("expected one user.created event, got %+v", events.events)
	}
	if events.events[0].ActorID != "admin-id" {
		t.Fatalf("expected actor id on event, got %q", events.events[0].ActorID)
	}

	if _, err := service.Create(context.Background(), actor, CreateUserInput{
		Username: "alice",
		Password: "tr0ub4dor&3 horse",
	}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestUserCreate_WeakPasswordRejected(t *testing.T) {
	service := newTestUserService(newUserRepoStub(), nil)

	_, err := service.Create(context.Background(), &domain.Principal{ID: "a"}, CreateUserInput{
		Username: "bob",
		Password: "short",
	})
	if err == nil {
		t.Fatalf("expected weak password to be rejected")
	}
	var validation *security.PasswordValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected PasswordValidationError, got %v", err)
	}
}

func TestUserList_CombinesScopeAndFilter(t *testing.T) {
	users := newUserRepoStub()
	users.profiles["u1"] = scopeProfile(strPtr("U1"), domain.Role{Code: "staff", DataScope: domain.ScopeOwnUnit})
	users.pageItems = []domain.User{{ID: "u2", Username: "bob", PasswordHash: "secret"}}
	users.pageTotal = 15

	service := newTestUserService(users, nil)
	caller := &domain.Principal{ID: "u1", Username: "alice"}

	page, err := service.List(context.Background(), caller, map[string]any{
		"username": "bo",
		"ignored":  "anything",
	}, query.PageRequest{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if page.Total != 15 || page.Page != 2 || page.Limit != 10 {
		t.Fatalf("unexpected page envelope: %+v", page)
	}
	if len(page.Items) != 1 || page.Items[0].PasswordHash != "" {
		t.Fatalf("expected sanitized items, got %+v", page.Items)
	}

	scopeSQL, scopeArgs, err := users.pageScope.ToSql()
	if err != nil {
		t.Fatalf("scope ToSql returned error: %v", err)
	}
	if scopeSQL != "unit_id = ?" || scopeArgs[0] != "U1" {
		t.Fatalf("unexpected scope predicate: %q %v", scopeSQL, scopeArgs)
	}

	filterSQL, filterArgs, err := users.pageFilter.ToSql()
	if err != nil {
		t.Fatalf("filter ToSql returned error: %v", err)
	}
	if filterSQL != "(username LIKE ?)" || filterArgs[0] != "%bo%" {
		t.Fatalf("unexpected filter predicate: %q %v", filterSQL, filterArgs)
	}
}

func TestUserList_BadFilterSurfaces(t *testing.T) {
	users := newUserRepoStub()
	users.profiles["u1"] = scopeProfile(nil, domain.Role{Code: "staff", DataScope: domain.ScopeSelf})

	service := newTestUserService(users, nil)
	caller := &domain.Principal{ID: "u1", Username: "alice"}

	_, err := service.List(context.Background(), caller, map[string]any{
		"unitIds": 42,
	}, query.PageRequest{})
	if !errors.Is(err, query.ErrBadFilterValue) {
		t.Fatalf("expected ErrBadFilterValue, got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	users := newUserRepoStub()
	hash, err := security.HashPassword("original password 1A")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	users.add(domain.User{ID: "u1", Username: "alice", PasswordHash: hash, IsActive: true})

	service := newTestUserService(users, nil)

	if err := service.ChangePassword(context.Background(), "u1", "wrong", "replacement pass 2B"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}

	if err := service.ChangePassword(context.Background(), "u1", "original password 1A", "replacement pass 2B"); err != nil {
		t.Fatalf("ChangePassword returned error: %v", err)
	}
	ok, err := security.VerifyPassword("replacement pass 2B", users.updatedPassword)
	if err != nil || !ok {
		t.Fatalf("expected new hash to verify, ok=%v err=%v", ok, err)
	}
}

func TestAssignRoles_PublishesEvent(t *testing.T) {
	users := newUserRepoStub()
	users.add(domain.User{ID: "u1", Username: "alice", IsActive: true})
	events := &eventPublisherStub{}
	service := newTestUserService(users, events)

	if err := service.AssignRoles(context.Background(), &domain.Principal{ID: "admin-id"}, "u1", []string{"r1", "r2"}); err != nil {
		t.Fatalf("AssignRoles returned error: %v", err)
	}
	if users.assignedRole.userID != "u1" || len(users.assignedRole.roleIDs) != 2 {
		t.Fatalf("unexpected assignment: %+v", users.assignedRole)
	}
	if len(events.events) != 1 || events.events[0].Type != domain.EventUserRolesChanged {
		t.Fatalf("expected one roles-changed event, got %+v", events.events)
	}

	if err := service.AssignRoles(context.Background(), &domain.Principal{ID: "admin-id"}, "ghost", nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
