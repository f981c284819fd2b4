package domain

import "time"

// SuperuserName is the fixed root account that bypasses data-scope restrictions.
const SuperuserName = "admin"

// User mirrors the persisted representation in the sys_users table.
type User struct {
	ID           string
	Username     string
	Nickname     *string
	Email        *string
	PasswordHash string
	IsActive     bool
	UnitID       *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated identity resolved for a single request.
// Built once by the token guard, never mutated afterwards.
type Principal struct {
	ID       string
	Username string
	Roles    []Role
}

// Anonymous reports whether the principal represents an unauthenticated
// caller, e.g. a request admitted through a public route or the bypass set.
func (p *Principal) Anonymous() bool {
	return p == nil || p.ID == ""
}

// HasAnyRole reports whether the principal carries at least one of the
// required role codes. An empty requirement always passes.
func (p *Principal) HasAnyRole(required ...string) bool {
	if len(required) == 0 {
		return true
	}
	if p.Anonymous() || len(p.Roles) == 0 {
		return false
	}

	codes := make(map[string]struct{}, len(p.Roles))
	for _, role := range p.Roles {
		codes[role.Code] = struct{}{}
	}

	for _, code := range required {
		if _, ok := codes[code]; ok {
			return true
		}
	}
	return false
}

// IsSuperuser reports whether the principal is the fixed root account.
func (p *Principal) IsSuperuser() bool {
	return !p.Anonymous() && p.Username == SuperuserName
}

// ScopeProfile is the single-read snapshot the data-scope resolver works
// from: the user's own unit plus every role with its scope class and custom
// unit set. Reading it once per request keeps the decision consistent even
// when role assignments change concurrently.
type ScopeProfile struct {
	UserID   string
	Username string
	UnitID   *string
	Roles    []Role
}
