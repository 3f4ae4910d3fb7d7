package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"rbac-backend/internal/model"
	"rbac-backend/internal/repository"
	"rbac-backend/internal/repository/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	store  *memory.Store
	repos  repository.Repositories
	hasher PasswordHasher
	events *recordingPublisher

	auth        AuthService
	users       UserService
	roles       RoleService
	permissions PermissionService
	dashboard   DashboardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	hasher := NewBcryptHasher(bcrypt.MinCost)
	events := &recordingPublisher{}

	_, err := NewSeeder(repos, hasher, true).Seed(context.Background())
	require.NoError(t, err)

	auth, err := NewAuthService(repos, hasher, AuthConfig{Secret: []byte("test-secret"), Issuer: "rbac-test"})
	require.NoError(t, err)

	return &testEnv{
		store:       store,
		repos:       repos,
		hasher:      hasher,
		events:      events,
		auth:        auth,
		users:       NewUserService(repos, hasher, events),
		roles:       NewRoleService(repos, events),
		permissions: NewPermissionService(repos, events),
		dashboard:   NewDashboardService(repos),
	}
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, field)
}

func permissionNames(perms []PermissionResponse) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.Name)
	}
	return out
}

func findRole(t *testing.T, env *testEnv, name string) uuid.UUID {
	t.Helper()
	roles, err := env.repos.Roles.FindByNames(context.Background(), model.DefaultGuard, []string{name})
	require.NoError(t, err)
	require.Len(t, roles, 1)
	return roles[0].ID
}

func findUser(t *testing.T, env *testEnv, email string) *model.User {
	t.Helper()
	u, err := env.repos.Users.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return u
}
