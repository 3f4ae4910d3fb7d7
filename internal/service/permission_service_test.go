package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbac-backend/internal/authz"
	"rbac-backend/pkg/pagination"
)

func TestPermissionCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	perm, err := env.permissions.Create(ctx, CreatePermissionRequest{Name: "export-reports"})
	require.NoError(t, err)
	assert.Equal(t, "export-reports", perm.Name)

	_, err = env.permissions.Create(ctx, CreatePermissionRequest{Name: "export-reports"})
	requireFieldError(t, err, "name")

	renamed := "export-data"
	perm, err = env.permissions.Update(ctx, perm.ID, UpdatePermissionRequest{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, "export-data", perm.Name)

	taken := PermViewUsers
	_, err = env.permissions.Update(ctx, perm.ID, UpdatePermissionRequest{Name: &taken})
	requireFieldError(t, err, "name")

	require.NoError(t, env.permissions.Delete(ctx, perm.ID))
	_, err = env.permissions.Get(ctx, perm.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{EventPermissionCreated, EventPermissionUpdated, EventPermissionDeleted}, env.events.types())
}

func TestDeletePermissionRemovesItFromEffectiveSets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	perms, err := env.repos.Permissions.FindByNames(ctx, "api", []string{PermDeleteUsers})
	require.NoError(t, err)
	require.Len(t, perms, 1)

	user := findUser(t, env, "user@example.com")
	env.store.GrantPermissions(user.ID, perms[0].ID)
	require.True(t, authz.FromUser(findUser(t, env, "user@example.com")).HasPermission(PermDeleteUsers))

	require.NoError(t, env.permissions.Delete(ctx, perms[0].ID))

	assert.False(t, authz.FromUser(findUser(t, env, "admin@example.com")).HasPermission(PermDeleteUsers))
	assert.False(t, authz.FromUser(findUser(t, env, "user@example.com")).HasPermission(PermDeleteUsers))
}

func TestPermissionNotFound(t *testing.T) {
	env := newTestEnv(t)
	name := "x"
	_, err := env.permissions.Update(context.Background(), uuid.New(), UpdatePermissionRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.permissions.Delete(context.Background(), uuid.New()), ErrNotFound)
}

func TestListPermissionsPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, total, err := env.permissions.List(ctx, pagination.New(1))
	require.NoError(t, err)
	assert.EqualValues(t, 12, total)
	assert.Len(t, first, pagination.PerPage)

	second, _, err := env.permissions.List(ctx, pagination.New(2))
	require.NoError(t, err)
	assert.Len(t, second, 2)
}
