package usecase

import (
	"context"
	"time"

	"github.com/dkosarev/admincore/internal/core/domain"
	"github.com/dkosarev/admincore/internal/query"
	"github.com/dkosarev/admincore/internal/repository"
)

type userRepoStub struct {
	users      map[string]*domain.User
	byUsername map[string]*domain.User
	byEmail    map[string]*domain.User
	principals map[string]*domain.Principal
	profiles   map[string]*domain.ScopeProfile

	principalErr error
	assignedRole struct {
		userID  string
		roleIDs []string
	}
	updatedPassword string

	pageScope  query.Predicate
	pageFilter query.Predicate
	pageReq    query.PageRequest
	pageItems  []domain.User
	pageTotal  int
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{
		users:      make(map[string]*domain.User),
		byUsername: make(map[string]*domain.User),
		byEmail:    make(map[string]*domain.User),
		principals: make(map[string]*domain.Principal),
		profiles:   make(map[string]*domain.ScopeProfile),
	}
}

func (s *userRepoStub) add(user domain.User) {
	u := user
	s.users[u.ID] = &u
	s.byUsername[u.Username] = &u
	if u.Email != nil {
		s.byEmail[*u.Email] = &u
	}
}

func (s *userRepoStub) Create(_ context.Context, user domain.User) error {
	if _, ok := s.byUsername[user.Username]; ok {
		return repository.ErrConflict
	}
	s.add(user)
	return nil
}

func (s *userRepoStub) Update(_ context.Context, user domain.User) error {
	if _, ok := s.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	s.add(user)
	return nil
}

func (s *userRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := s.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *userRepoStub) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *userRepoStub) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	user, ok := s.byUsername[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *userRepoStub) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *userRepoStub) GetPrincipal(_ context.Context, id string) (*domain.Principal, error) {
	if s.principalErr != nil {
		return nil, s.principalErr
	}
	principal, ok := s.principals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return principal, nil
}

func (s *userRepoStub) GetScopeProfile(_ context.Context, id string) (*domain.ScopeProfile, error) {
	profile, ok := s.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return profile, nil
}

func (s *userRepoStub) AssignRoles(_ context.Context, userID string, roleIDs []string) error {
	s.assignedRole.userID = userID
	s.assignedRole.roleIDs = roleIDs
	return nil
}

func (s *userRepoStub) UpdatePassword(_ context.Context, id string, passwordHash string) error {
	user, ok := s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	s.updatedPassword = passwordHash
	return nil
}

func (s *userRepoStub) CountByUnit(_ context.Context, unitID string) (int, error) {
	count := 0
	for _, user := range s.users {
		if user.UnitID != nil && *user.UnitID == unitID {
			count++
		}
	}
	return count, nil
}

func (s *userRepoStub) Page(_ context.Context, scope, filter query.Predicate, req query.PageRequest) ([]domain.User, int, error) {
	s.pageScope = scope
	s.pageFilter = filter
	s.pageReq = req
	return s.pageItems, s.pageTotal, nil
}

type revocationStoreStub struct {
	revoked map[string]time.Duration
	err     error
}

func newRevocationStoreStub() *revocationStoreStub {
	return &revocationStoreStub{revoked: make(map[string]time.Duration)}
}

func (s *revocationStoreStub) Revoke(_ context.Context, token string, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.revoked[token] = ttl
	return nil
}

func (s *revocationStoreStub) IsRevoked(_ context.Context, token string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.revoked[token]
	return ok, nil
}

type bypassStoreStub struct {
	paths map[string]struct{}
	err   error
}

func newBypassStoreStub(paths ...string) *bypassStoreStub {
	stub := &bypassStoreStub{paths: make(map[string]struct{})}
	for _, path := range paths {
		stub.paths[path] = struct{}{}
	}
	return stub
}

func (s *bypassStoreStub) List(_ context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	paths := make([]string, 0, len(s.paths))
	for path := range s.paths {
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *bypassStoreStub) Contains(_ context.Context, path string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.paths[path]
	return ok, nil
}

func (s *bypassStoreStub) Add(_ context.Context, path string) error {
	s.paths[path] = struct{}{}
	return nil
}

func (s *bypassStoreStub) Remove(_ context.Context, path string) error {
	delete(s.paths, path)
	return nil
}

func (s *bypassStoreStub) Rename(_ context.Context, oldPath, newPath string) error {
	delete(s.paths, oldPath)
	s.paths[newPath] = struct{}{}
	return nil
}

type sessionTrackerStub struct {
	tracked map[string]domain.OnlineSession
	err     error
}

func newSessionTrackerStub() *sessionTrackerStub {
	return &sessionTrackerStub{tracked: make(map[string]domain.OnlineSession)}
}

func (s *sessionTrackerStub) Track(_ context.Context, session domain.OnlineSession, _ time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.tracked[session.Token] = session
	return nil
}

func (s *sessionTrackerStub) List(_ context.Context) ([]domain.OnlineSession, error) {
	sessions := make([]domain.OnlineSession, 0, len(s.tracked))
	for _, session := range s.tracked {
		sessions = append(sessions, session)
	}
	return sessions, nil
}

func (s *sessionTrackerStub) Remove(_ context.Context, token string) error {
	delete(s.tracked, token)
	return nil
}

type roleRepoStub struct {
	roles   map[string]*domain.Role
	byCode  map[string]*domain.Role
	units   map[string][]string
	granted map[string][]string

	pageFilter query.Predicate
	pageReq    query.PageRequest
	pageItems  []domain.Role
	pageTotal  int
}

func newRoleRepoStub() *roleRepoStub {
	return &roleRepoStub{
		roles:   make(map[string]*domain.Role),
		byCode:  make(map[string]*domain.Role),
		units:   make(map[string][]string),
		granted: make(map[string][]string),
	}
}

func (s *roleRepoStub) add(role domain.Role) {
	r := role
	s.roles[r.ID] = &r
	s.byCode[r.Code] = &r
}

func (s *roleRepoStub) Create(_ context.Context, role domain.Role) error {
	if _, ok := s.byCode[role.Code]; ok {
		return repository.ErrConflict
	}
	s.add(role)
	return nil
}

func (s *roleRepoStub) Update(_ context.Context, role domain.Role) error {
	existing, ok := s.roles[role.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if other, taken := s.byCode[role.Code]; taken && other.ID != role.ID {
		return repository.ErrConflict
	}
	delete(s.byCode, existing.Code)
	s.add(role)
	return nil
}

func (s *roleRepoStub) Delete(_ context.Context, id string) error {
	role, ok := s.roles[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.byCode, role.Code)
	delete(s.roles, id)
	return nil
}

func (s *roleRepoStub) GetByID(_ context.Context, id string) (*domain.Role, error) {
	role, ok := s.roles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *role
	copied.UnitIDs = append([]string(nil), s.units[id]...)
	return &copied, nil
}

func (s *roleRepoStub) GetByCode(_ context.Context, code string) (*domain.Role, error) {
	role, ok := s.byCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *role
	return &copied, nil
}

func (s *roleRepoStub) List(_ context.Context) ([]domain.Role, error) {
	roles := make([]domain.Role, 0, len(s.roles))
	for _, role := range s.roles {
		roles = append(roles, *role)
	}
	return roles, nil
}

func (s *roleRepoStub) Page(_ context.Context, _, filter query.Predicate, req query.PageRequest) ([]domain.Role, int, error) {
	s.pageFilter = filter
	s.pageReq = req
	return s.pageItems, s.pageTotal, nil
}

func (s *roleRepoStub) SetCustomUnits(_ context.Context, roleID string, unitIDs []string) error {
	if len(unitIDs) == 0 {
		delete(s.units, roleID)
		return nil
	}
	s.units[roleID] = append([]string(nil), unitIDs...)
	return nil
}

func (s *roleRepoStub) AssignPermissions(_ context.Context, roleID string, permissionIDs []string) error {
	s.granted[roleID] = append([]string(nil), permissionIDs...)
	return nil
}

func (s *roleRepoStub) ListPermissionIDs(_ context.Context, roleID string) ([]string, error) {
	return s.granted[roleID], nil
}

type permissionRepoStub struct {
	permissions map[string]*domain.Permission
	codesByUser map[string][]string
}

func newPermissionRepoStub() *permissionRepoStub {
	return &permissionRepoStub{
		permissions: make(map[string]*domain.Permission),
		codesByUser: make(map[string][]string),
	}
}

func (s *permissionRepoStub) Create(_ context.Context, permission domain.Permission) error {
	p := permission
	s.permissions[p.ID] = &p
	return nil
}

func (s *permissionRepoStub) Update(_ context.Context, permission domain.Permission) error {
	if _, ok := s.permissions[permission.ID]; !ok {
		return repository.ErrNotFound
	}
	p := permission
	s.permissions[p.ID] = &p
	return nil
}

func (s *permissionRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := s.permissions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.permissions, id)
	return nil
}

func (s *permissionRepoStub) GetByID(_ context.Context, id string) (*domain.Permission, error) {
	permission, ok := s.permissions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *permission
	return &copied, nil
}

func (s *permissionRepoStub) List(_ context.Context) ([]domain.Permission, error) {
	permissions := make([]domain.Permission, 0, len(s.permissions))
	for _, permission := range s.permissions {
		permissions = append(permissions, *permission)
	}
	return permissions, nil
}

func (s *permissionRepoStub) CountChildren(_ context.Context, parentID string) (int, error) {
	count := 0
	for _, permission := range s.permissions {
		if permission.ParentID != nil && *permission.ParentID == parentID {
			count++
		}
	}
	return count, nil
}

func (s *permissionRepoStub) ListCodesByUser(_ context.Context, userID string) ([]string, error) {
	return s.codesByUser[userID], nil
}

type unitRepoStub struct {
	units map[string]*domain.Unit
}

func newUnitRepoStub() *unitRepoStub {
	return &unitRepoStub{units: make(map[string]*domain.Unit)}
}

func (s *unitRepoStub) Create(_ context.Context, unit domain.Unit) error {
	u := unit
	s.units[u.ID] = &u
	return nil
}

func (s *unitRepoStub) Update(_ context.Context, unit domain.Unit) error {
	if _, ok := s.units[unit.ID]; !ok {
		return repository.ErrNotFound
	}
	u := unit
	s.units[u.ID] = &u
	return nil
}

func (s *unitRepoStub) Delete(_ context.Context, id string) error {
	if _, ok := s.units[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.units, id)
	return nil
}

func (s *unitRepoStub) GetByID(_ context.Context, id string) (*domain.Unit, error) {
	unit, ok := s.units[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *unit
	return &copied, nil
}

func (s *unitRepoStub) List(_ context.Context) ([]domain.Unit, error) {
	units := make([]domain.Unit, 0, len(s.units))
	for _, unit := range s.units {
		units = append(units, *unit)
	}
	return units, nil
}

func (s *unitRepoStub) CountChildren(_ context.Context, parentID string) (int, error) {
	count := 0
	for _, unit := range s.units {
		if unit.ParentID != nil && *unit.ParentID == parentID {
			count++
		}
	}
	return count, nil
}

type resetCodeStoreStub struct {
	codes map[string]string
	ttls  map[string]time.Duration
	err   error
}

func newResetCodeStoreStub() *resetCodeStoreStub {
	return &resetCodeStoreStub{
		codes: make(map[string]string),
		ttls:  make(map[string]time.Duration),
	}
}

func (s *resetCodeStoreStub) Put(_ context.Context, email, code string, ttl time.Duration) error {
	if s.err != nil {
		return s.err
	}
	s.codes[email] = code
	s.ttls[email] = ttl
	return nil
}

func (s *resetCodeStoreStub) Get(_ context.Context, email string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	code, ok := s.codes[email]
	if !ok {
		return "", repository.ErrNotFound
	}
	return code, nil
}

func (s *resetCodeStoreStub) Delete(_ context.Context, email string) error {
	delete(s.codes, email)
	return nil
}

type notifierStub struct {
	emails []string
	codes  []string
	err    error
}

func (s *notifierStub) SendResetCode(_ context.Context, email, code string) error {
	if s.err != nil {
		return s.err
	}
	s.emails = append(s.emails, email)
	s.codes = append(s.codes, code)
	return nil
}

type eventPublisherStub struct {
	events []domain.Event
}

func (s *eventPublisherStub) Publish(_ context.Context, event domain.Event) error {
	s.events = append(s.events, event)
	return nil
}

func (s *eventPublisherStub) Close() error { return nil }
