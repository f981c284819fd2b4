package postgres

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Users       *UserRepository
	Roles       *RoleRepository
	Permissions *PermissionRepository
	Units       *UnitRepository
}

// NewRepositories wires all repositories over the same executor, in practice
// the shared connection pool.
func NewRepositories(exec pgExecutor) *Repositories {
	return &Repositories{
		Users:       NewUserRepository(exec),
		Roles:       NewRoleRepository(exec),
		Permissions: NewPermissionRepository(exec),
		Units:       NewUnitRepository(exec),
	}
}
