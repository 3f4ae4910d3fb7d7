package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultGuard is the guard every role and permission belongs to unless told otherwise.
const DefaultGuard = "api"

// Role groups a set of permissions. Rank orders roles by privilege when a
// single primary role has to be picked for a user.
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(255);not null;uniqueIndex:idx_roles_name_guard" json:"name"`
	GuardName   string       `gorm:"type:varchar(50);not null;default:api;uniqueIndex:idx_roles_name_guard" json:"guard_name"`
	Rank        int          `gorm:"not null;default:0" json:"rank"`
	Permissions []Permission `gorm:"many2many:role_permissions;constraint:OnDelete:CASCADE;" json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission is an atomic named capability such as "view-users".
type Permission struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_permissions_name_guard" json:"name"`
	GuardName string    `gorm:"type:varchar(50);not null;default:api;uniqueIndex:idx_permissions_name_guard" json:"guard_name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PermissionNames returns the names of the role's loaded permissions.
func (r *Role) PermissionNames() []string {
	names := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		names = append(names, p.Name)
	}
	return names
}
