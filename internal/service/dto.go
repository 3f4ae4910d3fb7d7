package service

import (
	"time"

	"github.com/google/uuid"

	"rbac-backend/internal/authz"
	"rbac-backend/internal/model"
)

type PermissionResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	GuardName string    `json:"guard_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RoleResponse struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	GuardName   string               `json:"guard_name"`
	Rank        int                  `json:"rank"`
	Permissions []PermissionResponse `json:"permissions"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// UserResponse never exposes the password hash. Permissions are the direct grants only.
type UserResponse struct {
	ID              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	Email           string               `json:"email"`
	EmailVerifiedAt *time.Time           `json:"email_verified_at"`
	Roles           []RoleResponse       `json:"roles"`
	Permissions     []PermissionResponse `json:"permissions"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// UserSnapshot is the identity returned by login and GET /user. Permissions is
// the effective set: role permissions plus direct grants.
type UserSnapshot struct {
	ID          uuid.UUID            `json:"id"`
	Name        string               `json:"name"`
	Email       string               `json:"email"`
	Roles       []RoleResponse       `json:"roles"`
	Permissions []PermissionResponse `json:"permissions"`
}

func mapPermission(p model.Permission) PermissionResponse {
	return PermissionResponse{
		ID:        p.ID,
		Name:      p.Name,
		GuardName: p.GuardName,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func mapPermissions(perms []model.Permission) []PermissionResponse {
	out := make([]PermissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, mapPermission(p))
	}
	return out
}

func mapRole(r model.Role) RoleResponse {
	return RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		GuardName:   r.GuardName,
		Rank:        r.Rank,
		Permissions: mapPermissions(r.Permissions),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func mapRoles(roles []model.Role) []RoleResponse {
	out := make([]RoleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, mapRole(r))
	}
	return out
}

func mapUser(u *model.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		EmailVerifiedAt: u.EmailVerifiedAt,
		Roles:           mapRoles(u.Roles),
		Permissions:     mapPermissions(u.Permissions),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func mapUsers(users []model.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, mapUser(&users[i]))
	}
	return out
}

// Snapshot builds the identity snapshot of a user loaded with its grants.
func Snapshot(u *model.User) UserSnapshot {
	return UserSnapshot{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Roles:       mapRoles(u.Roles),
		Permissions: mapPermissions(authz.EffectivePermissions(u)),
	}
}

// Profile renders a user with roles and direct permissions.
func Profile(u *model.User) UserResponse {
	return mapUser(u)
}
