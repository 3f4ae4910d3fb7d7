package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginReturnsSnapshot(t *testing.T) {
	env := newTestEnv(t)

	res, err := env.auth.Login(context.Background(), LoginRequest{Email: "admin@example.com", Password: DemoPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "admin@example.com", res.User.Email)
	require.Len(t, res.User.Roles, 1)
	assert.Equal(t, RoleAdmin, res.User.Roles[0].Name)
	assert.Len(t, res.User.Permissions, len(DefaultPermissions))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Login(ctx, LoginRequest{Email: "admin@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.auth.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: DemoPassword})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginIssuesDistinctTokensAndLogoutRevokesOnlyOne(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	creds := LoginRequest{Email: "user@example.com", Password: DemoPassword}

	first, err := env.auth.Login(ctx, creds)
	require.NoError(t, err)
	second, err := env.auth.Login(ctx, creds)
	require.NoError(t, err)
	require.NotEqual(t, first.Token, second.Token)

	p1, err := env.auth.Authenticate(ctx, first.Token)
	require.NoError(t, err)
	p2, err := env.auth.Authenticate(ctx, second.Token)
	require.NoError(t, err)
	require.NotEqual(t, p1.TokenID, p2.TokenID)

	require.NoError(t, env.auth.Logout(ctx, p1.TokenID))

	_, err = env.auth.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = env.auth.Authenticate(ctx, second.Token)
	assert.NoError(t, err)

	assert.ErrorIs(t, env.auth.Logout(ctx, p1.TokenID), ErrUnauthenticated)
}

func TestAuthenticateRejectsForeignAndMalformedTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.auth.Login(ctx, LoginRequest{Email: "user@example.com", Password: DemoPassword})
	require.NoError(t, err)

	other, err := NewAuthService(env.repos, env.hasher, AuthConfig{Secret: []byte("other-secret"), Issuer: "rbac-test"})
	require.NoError(t, err)
	_, err = other.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = env.auth.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestAuthenticateLoadsFreshGrants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.auth.Login(ctx, LoginRequest{Email: "moderator@example.com", Password: DemoPassword})
	require.NoError(t, err)
	assert.Empty(t, res.User.Permissions)

	mod := findRole(t, env, RoleModerator)
	_, err = env.roles.Update(ctx, mod, UpdateRoleRequest{Permissions: &[]string{PermViewUsers}})
	require.NoError(t, err)

	p, err := env.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{PermViewUsers}, permissionNames(Snapshot(p.User).Permissions))
}

func TestExpiredTokensAreRejectedAndPruned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	svc, err := NewAuthService(env.repos, env.hasher, AuthConfig{Secret: []byte("s"), TTL: time.Hour})
	require.NoError(t, err)
	auth := svc.(*authService)

	res, err := auth.Login(ctx, LoginRequest{Email: "user@example.com", Password: DemoPassword})
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)

	auth.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	n, err := auth.PruneExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestAuthenticateRejectsDeletedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.auth.Login(ctx, LoginRequest{Email: "user@example.com", Password: DemoPassword})
	require.NoError(t, err)
	require.NoError(t, env.users.Delete(ctx, res.User.ID))

	_, err = env.auth.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestNewAuthServiceRequiresSecret(t *testing.T) {
	env := newTestEnv(t)
	_, err := NewAuthService(env.repos, env.hasher, AuthConfig{})
	assert.Error(t, err)
}
