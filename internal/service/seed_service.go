package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"rbac-backend/internal/model"
	"rbac-backend/internal/repository"
)

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleUser      = "user"
)

const (
	PermViewUsers         = "view-users"
	PermCreateUsers       = "create-users"
	PermEditUsers         = "edit-users"
	PermDeleteUsers       = "delete-users"
	PermViewRoles         = "view-roles"
	PermCreateRoles       = "create-roles"
	PermEditRoles         = "edit-roles"
	PermDeleteRoles       = "delete-roles"
	PermViewPermissions   = "view-permissions"
	PermCreatePermissions = "create-permissions"
	PermEditPermissions   = "edit-permissions"
	PermDeletePermissions = "delete-permissions"
)

// DefaultPermissions are the CRUD capabilities over users, roles and permissions.
var DefaultPermissions = []string{
	PermViewUsers, PermCreateUsers, PermEditUsers, PermDeleteUsers,
	PermViewRoles, PermCreateRoles, PermEditRoles, PermDeleteRoles,
	PermViewPermissions, PermCreatePermissions, PermEditPermissions, PermDeletePermissions,
}

// DemoPassword is the password of every seeded demo account.
const DemoPassword = "password123"

type roleSeed struct {
	name  string
	rank  int
	perms []string
}

var defaultRoles = []roleSeed{
	{name: RoleAdmin, rank: 100, perms: DefaultPermissions},
	{name: RoleModerator, rank: 50},
	{name: RoleUser, rank: 10},
}

type userSeed struct {
	name  string
	email string
	role  string
}

var demoUsers = []userSeed{
	{name: "Admin User", email: "admin@example.com", role: RoleAdmin},
	{name: "Moderator User", email: "moderator@example.com", role: RoleModerator},
	{name: "Regular User", email: "user@example.com", role: RoleUser},
}

// SeedResult counts the rows a seed run created.
type SeedResult struct {
	Permissions int `json:"permissions"`
	Roles       int `json:"roles"`
	Users       int `json:"users"`
}

// Seeder creates the default permissions, roles and demo accounts. Running it
// again only fills in what is missing.
type Seeder interface {
	Seed(ctx context.Context) (SeedResult, error)
}

type seeder struct {
	repos     repository.Repositories
	hasher    PasswordHasher
	demoUsers bool
	now       func() time.Time
}

// NewSeeder returns a Seeder. demoUsers controls whether the example accounts are created.
func NewSeeder(repos repository.Repositories, hasher PasswordHasher, demoUsers bool) Seeder {
	return &seeder{repos: repos, hasher: hasher, demoUsers: demoUsers, now: time.Now}
}

func (s *seeder) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult
	err := s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		res = SeedResult{}
		perms, err := s.seedPermissions(txCtx, &res)
		if err != nil {
			return err
		}
		roles, err := s.seedRoles(txCtx, perms, &res)
		if err != nil {
			return err
		}
		if s.demoUsers {
			return s.seedUsers(txCtx, roles, &res)
		}
		return nil
	})
	return res, err
}

func (s *seeder) seedPermissions(ctx context.Context, res *SeedResult) (map[string]uuid.UUID, error) {
	existing, err := s.repos.Permissions.FindByNames(ctx, model.DefaultGuard, DefaultPermissions)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]uuid.UUID, len(DefaultPermissions))
	for _, p := range existing {
		ids[p.Name] = p.ID
	}
	for _, name := range DefaultPermissions {
		if _, ok := ids[name]; ok {
			continue
		}
		perm := &model.Permission{Name: name, GuardName: model.DefaultGuard}
		if err := s.repos.Permissions.Create(ctx, perm); err != nil {
			return nil, err
		}
		ids[name] = perm.ID
		res.Permissions++
	}
	return ids, nil
}

// seedRoles creates missing roles and makes sure each holds at least its
// default permissions. Permissions granted later by an operator are kept.
func (s *seeder) seedRoles(ctx context.Context, perms map[string]uuid.UUID, res *SeedResult) (map[string]uuid.UUID, error) {
	names := make([]string, 0, len(defaultRoles))
	for _, r := range defaultRoles {
		names = append(names, r.name)
	}
	existing, err := s.repos.Roles.FindByNames(ctx, model.DefaultGuard, names)
	if err != nil {
		return nil, err
	}
	ids := make(map[string]uuid.UUID, len(defaultRoles))
	for _, r := range existing {
		ids[r.Name] = r.ID
	}

	for _, seed := range defaultRoles {
		id, ok := ids[seed.name]
		if !ok {
			role := &model.Role{Name: seed.name, GuardName: model.DefaultGuard, Rank: seed.rank}
			if err := s.repos.Roles.Create(ctx, role); err != nil {
				return nil, err
			}
			id = role.ID
			ids[seed.name] = id
			res.Roles++
		}
		if len(seed.perms) == 0 {
			continue
		}

		role, err := s.repos.Roles.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		want := make([]uuid.UUID, 0, len(role.Permissions)+len(seed.perms))
		for _, p := range role.Permissions {
			want = appendID(want, p.ID)
		}
		missing := false
		for _, name := range seed.perms {
			before := len(want)
			want = appendID(want, perms[name])
			missing = missing || len(want) != before
		}
		if missing {
			if err := s.repos.Roles.ReplacePermissions(ctx, id, want); err != nil {
				return nil, err
			}
		}
	}
	return ids, nil
}

func (s *seeder) seedUsers(ctx context.Context, roles map[string]uuid.UUID, res *SeedResult) error {
	for _, seed := range demoUsers {
		taken, err := s.repos.Users.EmailTaken(ctx, seed.email, uuid.Nil)
		if err != nil {
			return err
		}
		if taken {
			continue
		}
		hashed, err := s.hasher.Hash(DemoPassword)
		if err != nil {
			return err
		}
		verified := s.now().UTC()
		user := &model.User{
			Name:            seed.name,
			Email:           seed.email,
			Password:        hashed,
			EmailVerifiedAt: &verified,
		}
		if err := s.repos.Users.Create(ctx, user); err != nil {
			return err
		}
		if err := s.repos.Users.ReplaceRoles(ctx, user.ID, []uuid.UUID{roles[seed.role]}); err != nil {
			return err
		}
		res.Users++
	}
	return nil
}
