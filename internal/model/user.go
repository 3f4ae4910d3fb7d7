package model

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated identity. Grants come from Roles plus any direct Permissions.
type User struct {
	ID              uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name            string       `gorm:"type:varchar(255);not null" json:"name"`
	Email           string       `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Password        string       `gorm:"type:varchar(255);not null" json:"-"` // bcrypt hash, never serialized
	EmailVerifiedAt *time.Time   `json:"email_verified_at"`
	Roles           []Role       `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE;" json:"roles"`
	Permissions     []Permission `gorm:"many2many:user_permissions;constraint:OnDelete:CASCADE;" json:"permissions"`
	CreatedAt       time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

// RoleNames returns the names of the loaded roles in their stored order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}
