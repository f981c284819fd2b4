package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/infra/security"
)

func newTestResetService(users *userRepoStub, codes *resetCodeStoreStub, notifier *notifierStub) *PasswordResetService {
	scopes := NewScopeService(users)
	accounts := NewUserService(users, scopes, nil, &eventPublisherStub{}, nil)
	return NewPasswordResetService(users, codes, notifier, accounts, nil)
}

func TestResetRequestIssuesCode(t *testing.T) {
	users := newUserRepoStub()
	email := "alice@example.com"
	users.add(domain.User{ID: "u1", Username: "alice", Email: &email, IsActive: true})

	codes := newResetCodeStoreStub()
	notifier := &notifierStub{}
	svc := newTestResetService(users, codes, notifier)

	if err := svc.Request(context.Background(), "  Alice@Example.COM "); err != nil {
		t.Fatalf("Request returned error: %v", err)
	}

	code, ok := codes.codes[email]
	if !ok {
		t.Fatal("expected a stored code for the lowercased address")
	}
	if len(code) != resetCodeLength {
		t.Fatalf("expected %d-digit code, got %q", resetCodeLength, code)
	}
	if codes.ttls[email] != resetCodeTTL {
		t.Fatalf("unexpected code ttl %v", codes.ttls[email])
	}

	if len(notifier.emails) != 1 || notifier.emails[0] != email {
		t.Fatalf("expected notification to %q, got %v", email, notifier.emails)
	}
	if notifier.codes[0] != code {
		t.Fatal("expected notifier to carry the stored code")
	}
}

func TestResetRequestUnknownAddressSucceedsSilently(t *testing.T) {
	codes := newResetCodeStoreStub()
	notifier := &notifierStub{}
	svc := newTestResetService(newUserRepoStub(), codes, notifier)

	if err := svc.Request(context.Background(), "nobody@example.com"); err != nil {
		t.Fatalf("Request returned error: %v", err)
	}

	if len(codes.codes) != 0 {
		t.Fatal("expected no code stored for unknown address")
	}
	if len(notifier.emails) != 0 {
		t.Fatal("expected no notification for unknown address")
	}
}

func TestResetConfirmSetsPasswordAndBurnsCode(t *testing.T) {
	users := newUserRepoStub()
	email := "alice@example.com"
	users.add(domain.User{ID: "u1", Username: "alice", Email: &email, IsActive: true})

	codes := newResetCodeStoreStub()
	codes.codes[email] = "123456"
	svc := newTestResetService(users, codes, &notifierStub{})

	if err := svc.Confirm(context.Background(), email, "123456", "Volatile-Harbor-1984"); err != nil {
		t.Fatalf("Confirm returned error: %v", err)
	}

	ok, err := security.VerifyPassword("Volatile-Harbor-1984", users.users["u1"].PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected new password stored, got ok=%v err=%v", ok, err)
	}

	if _, ok := codes.codes[email]; ok {
		t.Fatal("expected code deleted after successful reset")
	}
}

func TestResetConfirmWrongCode(t *testing.T) {
	users := newUserRepoStub()
	email := "alice@example.com"
	users.add(domain.User{ID: "u1", Username: "alice", Email: &email, IsActive: true})

	codes := newResetCodeStoreStub()
	codes.codes[email] = "123456"
	svc := newTestResetService(users, codes, &notifierStub{})

	if err := svc.Confirm(context.Background(), email, "654321", "Volatile-Harbor-1984"); !errors.Is(err, ErrResetCodeInvalid) {
		t.Fatalf("expected ErrResetCodeInvalid, got %v", err)
	}
	if _, ok := codes.codes[email]; !ok {
		t.Fatal("expected code kept after failed attempt")
	}
}

func TestResetConfirmWeakPasswordKeepsCode(t *testing.T) {
	users := newUserRepoStub()
	email := "alice@example.com"
	users.add(domain.User{ID: "u1", Username: "alice", Email: &email, IsActive: true})

	codes := newResetCodeStoreStub()
	codes.codes[email] = "123456"
	svc := newTestResetService(users, codes, &notifierStub{})

	err := svc.Confirm(context.Background(), email, "123456", "weak")
	if err == nil {
		t.Fatal("expected weak password to be rejected")
	}

	var violation *security.PasswordValidationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected PasswordValidationError, got %v", err)
	}

	if _, ok := codes.codes[email]; !ok {
		t.Fatal("expected code kept when the new password is rejected")
	}
}

func TestResetConfirmMissingCode(t *testing.T) {
	svc := newTestResetService(newUserRepoStub(), newResetCodeStoreStub(), &notifierStub{})

	if err := svc.Confirm(context.Background(), "alice@example.com", "123456", "Volatile-Harbor-1984"); !errors.Is(err, ErrResetCodeInvalid) {
		t.Fatalf("expected ErrResetCodeInvalid, got %v", err)
	}
}
