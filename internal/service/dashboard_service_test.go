package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbac-backend/internal/model"
)

func TestBuildStatsBranches(t *testing.T) {
	self := &model.User{Name: "Sam", Email: "sam@example.com"}
	data := DashboardData{
		TotalUsers:       7,
		TotalRoles:       3,
		TotalPermissions: 12,
		RecentUsers:      []model.User{{Name: "a"}, {Name: "b"}},
	}

	tests := []struct {
		role    string
		present []string
		absent  []string
	}{
		{RoleAdmin, []string{"total_users", "total_roles", "total_permissions", "recent_users"}, []string{"welcome_message", "profile"}},
		{RoleModerator, []string{"total_users", "recent_users"}, []string{"total_roles", "total_permissions", "profile"}},
		{RoleUser, []string{"welcome_message", "profile"}, []string{"total_users", "recent_users"}},
		{"", []string{"welcome_message", "profile"}, []string{"total_users"}},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			raw, err := json.Marshal(BuildStats(tt.role, self, data))
			require.NoError(t, err)
			var keys map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(raw, &keys))
			for _, k := range tt.present {
				assert.Contains(t, keys, k)
			}
			for _, k := range tt.absent {
				assert.NotContains(t, keys, k)
			}
		})
	}
}

func TestDashboardForModerator(t *testing.T) {
	env := newTestEnv(t)
	mod := findUser(t, env, "moderator@example.com")

	res, err := env.dashboard.Dashboard(context.Background(), mod)
	require.NoError(t, err)
	require.NotNil(t, res.Stats.TotalUsers)
	assert.EqualValues(t, 3, *res.Stats.TotalUsers)
	assert.Len(t, res.Stats.RecentUsers, 3)
	assert.Equal(t, "user@example.com", res.Stats.RecentUsers[0].Email)
	assert.Nil(t, res.Stats.TotalRoles)
	assert.Nil(t, res.Stats.TotalPermissions)
	assert.Empty(t, res.Permissions)
}

func TestDashboardForAdmin(t *testing.T) {
	env := newTestEnv(t)
	admin := findUser(t, env, "admin@example.com")

	res, err := env.dashboard.Dashboard(context.Background(), admin)
	require.NoError(t, err)
	require.NotNil(t, res.Stats.TotalRoles)
	assert.EqualValues(t, 3, *res.Stats.TotalRoles)
	assert.EqualValues(t, 12, *res.Stats.TotalPermissions)
	assert.Len(t, res.Permissions, 12)
	assert.Equal(t, "admin@example.com", res.User.Email)
}

func TestDashboardPrimaryRoleUsesRank(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	target := findUser(t, env, "user@example.com")

	roles := []string{RoleUser, RoleAdmin}
	_, err := env.users.Update(ctx, target.ID, UpdateUserRequest{Roles: &roles})
	require.NoError(t, err)

	res, err := env.dashboard.Dashboard(ctx, findUser(t, env, "user@example.com"))
	require.NoError(t, err)
	assert.NotNil(t, res.Stats.TotalRoles, "admin outranks user regardless of order")
}

func TestDashboardForRegularUser(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.dashboard.Dashboard(context.Background(), findUser(t, env, "user@example.com"))
	require.NoError(t, err)
	assert.Equal(t, WelcomeMessage, res.Stats.WelcomeMessage)
	require.NotNil(t, res.Stats.Profile)
	assert.Equal(t, "user@example.com", res.Stats.Profile.Email)
	assert.Nil(t, res.Stats.TotalUsers)
}
