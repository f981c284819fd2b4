package port

import (
	"context"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/query"
)

// UserRepository provides persistence for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	Update(ctx context.Context, user domain.User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetPrincipal resolves a user together with its role set in one
	// consistent read. Used by the token guard once per request.
	GetPrincipal(ctx context.Context, id string) (*domain.Principal, error)

	// GetScopeProfile loads the data-scope snapshot (own unit, roles with
	// scope classes and custom unit sets) in one consistent read.
	GetScopeProfile(ctx context.Context, id string) (*domain.ScopeProfile, error)

	AssignRoles(ctx context.Context, userID string, roleIDs []string) error
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	CountByUnit(ctx context.Context, unitID string) (int, error)

	// Page returns one page of users matching the AND of the scope and
	// filter predicates, plus the total match count, read from a single
	// snapshot.
	Page(ctx context.Context, scope, filter query.Predicate, req query.PageRequest) ([]domain.User, int, error)
}
