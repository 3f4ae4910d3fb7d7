package repository

import "gorm.io/gorm"

// Repositories bundles every repository plus the transaction manager for one storage driver.
type Repositories struct {
	Users        UserRepository
	Roles        RoleRepository
	Permissions  PermissionRepository
	AccessTokens AccessTokenRepository
	Tx           TransactionManager
}

// NewGormRepositories wires the postgres-backed repositories.
func NewGormRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Users:        NewUserRepository(db),
		Roles:        NewRoleRepository(db),
		Permissions:  NewPermissionRepository(db),
		AccessTokens: NewAccessTokenRepository(db),
		Tx:           NewTransactionManager(db),
	}
}
