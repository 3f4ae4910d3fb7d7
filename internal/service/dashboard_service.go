package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"rbac-backend/internal/authz"
	"rbac-backend/internal/model"
	"rbac-backend/internal/repository"
)

const (
	RecentUsersLimit = 5
	WelcomeMessage   = "Welcome to your dashboard!"
)

type ProfileSummary struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DashboardStats holds the keys one role branch fills in; the rest are omitted.
type DashboardStats struct {
	TotalUsers       *int64          `json:"total_users,omitempty"`
	TotalRoles       *int64          `json:"total_roles,omitempty"`
	TotalPermissions *int64          `json:"total_permissions,omitempty"`
	RecentUsers      []UserResponse  `json:"recent_users,omitempty"`
	WelcomeMessage   string          `json:"welcome_message,omitempty"`
	Profile          *ProfileSummary `json:"profile,omitempty"`
}

type DashboardResponse struct {
	User        UserResponse   `json:"user"`
	Stats       DashboardStats `json:"stats"`
	Permissions []string       `json:"permissions"`
}

// DashboardData is what the storage queries returned for one dashboard.
type DashboardData struct {
	TotalUsers       int64
	TotalRoles       int64
	TotalPermissions int64
	RecentUsers      []model.User
}

type dashboardScope int

const (
	scopeProfile dashboardScope = iota
	scopeModerator
	scopeAdmin
)

func scopeFor(primaryRole string) dashboardScope {
	switch primaryRole {
	case RoleAdmin:
		return scopeAdmin
	case RoleModerator:
		return scopeModerator
	default:
		return scopeProfile
	}
}

// BuildStats picks the statistics for the caller's primary role. It does no I/O.
func BuildStats(primaryRole string, self *model.User, data DashboardData) DashboardStats {
	switch scopeFor(primaryRole) {
	case scopeAdmin:
		users, roles, perms := data.TotalUsers, data.TotalRoles, data.TotalPermissions
		return DashboardStats{
			TotalUsers:       &users,
			TotalRoles:       &roles,
			TotalPermissions: &perms,
			RecentUsers:      mapUsers(data.RecentUsers),
		}
	case scopeModerator:
		users := data.TotalUsers
		return DashboardStats{
			TotalUsers:  &users,
			RecentUsers: mapUsers(data.RecentUsers),
		}
	default:
		return DashboardStats{
			WelcomeMessage: WelcomeMessage,
			Profile:        &ProfileSummary{Name: self.Name, Email: self.Email},
		}
	}
}

// DashboardService aggregates the role-dependent dashboard
type DashboardService interface {
	Dashboard(ctx context.Context, user *model.User) (*DashboardResponse, error)
}

type dashboardService struct {
	repos repository.Repositories
}

// NewDashboardService returns a new instance of DashboardService
func NewDashboardService(repos repository.Repositories) DashboardService {
	return &dashboardService{repos: repos}
}

func (s *dashboardService) Dashboard(ctx context.Context, user *model.User) (*DashboardResponse, error) {
	grants := authz.FromUser(user)
	primary := grants.PrimaryRole()

	data, err := s.load(ctx, scopeFor(primary))
	if err != nil {
		return nil, err
	}
	return &DashboardResponse{
		User:        mapUser(user),
		Stats:       BuildStats(primary, user, data),
		Permissions: grants.Permissions(),
	}, nil
}

// load runs only the queries the scope needs, concurrently.
func (s *dashboardService) load(ctx context.Context, scope dashboardScope) (DashboardData, error) {
	var data DashboardData
	if scope == scopeProfile {
		return data, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.repos.Users.Count(gctx)
		data.TotalUsers = n
		return err
	})
	g.Go(func() error {
		users, err := s.repos.Users.Recent(gctx, RecentUsersLimit)
		data.RecentUsers = users
		return err
	})
	if scope == scopeAdmin {
		g.Go(func() error {
			n, err := s.repos.Roles.Count(gctx)
			data.TotalRoles = n
			return err
		})
		g.Go(func() error {
			n, err := s.repos.Permissions.Count(gctx)
			data.TotalPermissions = n
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return DashboardData{}, err
	}
	return data, nil
}
