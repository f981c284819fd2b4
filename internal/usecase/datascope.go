package usecase

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/core/port"
	"github.com/dkosarev/admincore/internal/query"
	"github.com/dkosarev/admincore/internal/repository"
)

// ScopeService derives the row-visibility predicate for a request from the
// caller's role set.
type ScopeService struct {
	users port.UserRepository
}

// NewScopeService constructs a ScopeService.
func NewScopeService(users port.UserRepository) *ScopeService {
	return &ScopeService{users: users}
}

// Resolve computes the visibility predicate for the principal over a table
// whose unit and owner columns are named by the caller.
//
// The superuser account is always unrestricted. Otherwise the scope profile
// is read once and each role contributes at most one clause:
//
//   - ALL short-circuits to unrestricted, widest scope wins
//   - CUSTOM restricts to the role's explicit unit set, skipped when empty
//   - OWN_UNIT and OWN_UNIT_AND_BELOW restrict to the user's own unit
//   - SELF restricts to rows owned by the user
//
// Clauses are OR-combined. A principal whose roles contribute no usable
// clause resolves to the deny-all predicate: no applicable scope means zero
// visibility, not full visibility.
func (s *ScopeService) Resolve(ctx context.Context, principal *domain.Principal, unitColumn, ownerColumn string) (query.Predicate, error) {
	if principal.Anonymous() {
		return query.DenyAll(), nil
	}
	if principal.IsSuperuser() {
		return query.Unrestricted(), nil
	}

	profile, err := s.users.GetScopeProfile(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return query.DenyAll(), nil
		}
		return query.Predicate{}, fmt.Errorf("load scope profile: %w", err)
	}

	result := query.DenyAll()
	for _, role := range profile.Roles {
		switch role.DataScope {
		case domain.ScopeAll:
			return query.Unrestricted(), nil
		case domain.ScopeCustom:
			if len(role.UnitIDs) == 0 {
				continue
			}
			result = result.Or(query.FromSqlizer(squirrel.Eq{unitColumn: role.UnitIDs}))
		case domain.ScopeOwnUnit, domain.ScopeOwnUnitAndBelow:
			if profile.UnitID == nil {
				continue
			}
			result = result.Or(query.FromSqlizer(squirrel.Eq{unitColumn: *profile.UnitID}))
		case domain.ScopeSelf:
			result = result.Or(query.FromSqlizer(squirrel.Eq{ownerColumn: profile.UserID}))
		}
	}

	return result, nil
}
