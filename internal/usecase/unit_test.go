package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/dkosarev/admincore/internal/core/domain"
)

func TestUnitCreateAndTree(t *testing.T) {
	units := newUnitRepoStub()
	svc := NewUnitService(units, newUserRepoStub())

	root, err := svc.Create(context.Background(), UnitInput{Name: "Headquarters", Sort: 1})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	branch, err := svc.Create(context.Background(), UnitInput{Name: "East Branch", ParentID: &root.ID, Sort: 2})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	tree, err := svc.Tree(context.Background())
	if err != nil {
		t.Fatalf("Tree returned error: %v", err)
	}
	if len(tree) != 1 || tree[0].ID != root.ID {
		t.Fatalf("unexpected tree roots %+v", tree)
	}
	if len(tree[0].Children) != 1 || tree[0].Children[0].ID != branch.ID {
		t.Fatalf("expected branch under root, got %+v", tree[0].Children)
	}
}

func TestUnitUpdate_RejectsSelfParent(t *testing.T) {
	units := newUnitRepoStub()
	svc := NewUnitService(units, newUserRepoStub())

	unit, err := svc.Create(context.Background(), UnitInput{Name: "Headquarters"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := svc.Update(context.Background(), unit.ID, UnitInput{Name: "Headquarters", ParentID: &unit.ID}); err == nil {
		t.Fatal("expected self-parent update to fail")
	}
}

func TestUnitDelete_GuardsChildrenAndUsers(t *testing.T) {
	units := newUnitRepoStub()
	users := newUserRepoStub()
	svc := NewUnitService(units, users)

	root, err := svc.Create(context.Background(), UnitInput{Name: "Headquarters"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	branch, err := svc.Create(context.Background(), UnitInput{Name: "East Branch", ParentID: &root.ID})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := svc.Delete(context.Background(), root.ID); !errors.Is(err, ErrUnitHasChildren) {
		t.Fatalf("expected ErrUnitHasChildren, got %v", err)
	}

	users.add(domain.User{ID: "u1", Username: "alice", UnitID: &branch.ID})
	if err := svc.Delete(context.Background(), branch.ID); !errors.Is(err, ErrUnitHasUsers) {
		t.Fatalf("expected ErrUnitHasUsers, got %v", err)
	}

	delete(users.users, "u1")
	if err := svc.Delete(context.Background(), branch.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if err := svc.Delete(context.Background(), root.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
}

func TestUnitGet_NotFound(t *testing.T) {
	svc := NewUnitService(newUnitRepoStub(), newUserRepoStub())

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrUnitNotFound) {
		t.Fatalf("expected ErrUnitNotFound, got %v", err)
	}
}
