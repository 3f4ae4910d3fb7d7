package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbac-backend/internal/authz"
	"rbac-backend/internal/model"
	"rbac-backend/internal/repository/memory"
)

func TestSeedCreatesDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	perms, err := env.repos.Permissions.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 12, perms)

	admin, err := env.repos.Users.FindByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.NotNil(t, admin.EmailVerifiedAt)
	assert.True(t, env.hasher.Compare(admin.Password, DemoPassword))
	assert.ElementsMatch(t, DefaultPermissions, authz.FromUser(admin).Permissions())

	mod, err := env.repos.Users.FindByEmail(ctx, "moderator@example.com")
	require.NoError(t, err)
	assert.Equal(t, []string{RoleModerator}, mod.RoleNames())
	assert.Empty(t, authz.FromUser(mod).Permissions())
}

func TestSeedIsIdempotent(t *testing.T) {
	store := memory.NewStore()
	repos := store.Repositories()
	seeder := NewSeeder(repos, NewBcryptHasher(4), true)
	ctx := context.Background()

	first, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Permissions: 12, Roles: 3, Users: 3}, first)

	second, err := seeder.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, second)

	users, err := repos.Users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, users)
}

func TestSeedKeepsOperatorGrants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	extra := &model.Permission{Name: "export-reports", GuardName: model.DefaultGuard}
	require.NoError(t, env.repos.Permissions.Create(ctx, extra))
	roles, err := env.repos.Roles.FindByNames(ctx, model.DefaultGuard, []string{RoleAdmin})
	require.NoError(t, err)
	require.Len(t, roles, 1)
	_, err = env.roles.Update(ctx, roles[0].ID, UpdateRoleRequest{Permissions: &[]string{"export-reports", PermViewUsers}})
	require.NoError(t, err)

	_, err = NewSeeder(env.repos, env.hasher, false).Seed(ctx)
	require.NoError(t, err)

	admin, err := env.repos.Roles.FindByID(ctx, roles[0].ID)
	require.NoError(t, err)
	assert.Len(t, admin.Permissions, 13)
	assert.Contains(t, admin.PermissionNames(), "export-reports")
}
