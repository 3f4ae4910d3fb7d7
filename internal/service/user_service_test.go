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

func newUserRequest(email string) CreateUserRequest {
	return CreateUserRequest{
		Name:                 "Jane Doe",
		Email:                email,
		Password:             "secret-pass",
		PasswordConfirmation: "secret-pass",
	}
}

func TestCreateUserWithRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := newUserRequest("jane@example.com")
	req.Role = RoleModerator
	req.Roles = []string{RoleUser, RoleModerator}
	user, err := env.users.Create(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, "jane@example.com", user.Email)
	assert.Nil(t, user.EmailVerifiedAt)
	names := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, []string{RoleUser, RoleModerator}, names)

	stored := findUser(t, env, "jane@example.com")
	assert.True(t, env.hasher.Compare(stored.Password, "secret-pass"))
	assert.Equal(t, RoleModerator, authz.FromUser(stored).PrimaryRole())
	assert.Equal(t, []string{EventUserCreated}, env.events.types())
}

func TestCreateUserValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := newUserRequest("admin@example.com")
	req.PasswordConfirmation = "different"
	req.Role = "ghost"
	req.Roles = []string{RoleUser, "phantom"}

	_, err := env.users.Create(ctx, req)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "role")
	assert.Contains(t, verr.Fields, "roles.1")
	assert.NotContains(t, verr.Fields, "roles.0")

	total, err := env.repos.Users.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestUpdateUserSyncsRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	target := findUser(t, env, "user@example.com")

	roles := []string{RoleModerator}
	_, err := env.users.Update(ctx, target.ID, UpdateUserRequest{Roles: &roles})
	require.NoError(t, err)
	assert.Equal(t, []string{RoleModerator}, findUser(t, env, "user@example.com").RoleNames())

	name := "Renamed"
	updated, err := env.users.Update(ctx, target.ID, UpdateUserRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	require.Len(t, updated.Roles, 1, "roles untouched without role fields")

	empty := []string{}
	updated, err = env.users.Update(ctx, target.ID, UpdateUserRequest{Roles: &empty})
	require.NoError(t, err)
	assert.Empty(t, updated.Roles)

	assert.Equal(t, []string{
		EventUserUpdated, EventUserRolesSynced,
		EventUserUpdated,
		EventUserUpdated, EventUserRolesSynced,
	}, env.events.types())
}

func TestUpdateUserEmailAndPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	target := findUser(t, env, "user@example.com")

	taken := "admin@example.com"
	_, err := env.users.Update(ctx, target.ID, UpdateUserRequest{Email: &taken})
	requireFieldError(t, err, "email")

	pw := "brand-new-pass"
	_, err = env.users.Update(ctx, target.ID, UpdateUserRequest{Password: &pw, PasswordConfirmation: "nope"})
	requireFieldError(t, err, "password")

	email := "fresh@example.com"
	updated, err := env.users.Update(ctx, target.ID, UpdateUserRequest{
		Email: &email, Password: &pw, PasswordConfirmation: pw,
	})
	require.NoError(t, err)
	assert.Equal(t, email, updated.Email)
	assert.Nil(t, updated.EmailVerifiedAt, "changing email clears verification")

	_, err = env.auth.Login(ctx, LoginRequest{Email: email, Password: pw})
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	target := findUser(t, env, "user@example.com")

	require.NoError(t, env.users.Delete(ctx, target.ID))
	_, err := env.users.Get(ctx, target.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.users.Delete(ctx, uuid.New()), ErrNotFound)
}

func TestListUsers(t *testing.T) {
	env := newTestEnv(t)
	users, total, err := env.users.List(context.Background(), pagination.New(1))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, users, 3)
	assert.Equal(t, "admin@example.com", users[0].Email)
	require.Len(t, users[0].Roles, 1)
	assert.Equal(t, RoleAdmin, users[0].Roles[0].Name)
}
