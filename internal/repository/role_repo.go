package repository

import (
	"context"

	"rbac-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleRepository interface {
	Create(ctx context.Context, role *model.Role) error
	Update(ctx context.Context, role *model.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error)
	FindByNames(ctx context.Context, guard string, names []string) ([]model.Role, error)
	NameTaken(ctx context.Context, guard, name string, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, offset, limit int) ([]model.Role, error)
	Count(ctx context.Context) (int64, error)
	ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

func (r *roleRepository) Create(ctx context.Context, role *model.Role) error {
	return translate(conn(ctx, r.db).Omit("Permissions").Create(role).Error)
}

func (r *roleRepository) Update(ctx context.Context, role *model.Role) error {
	return translate(conn(ctx, r.db).Omit("Permissions").Save(role).Error)
}

// Delete removes the role together with its permission grants and user memberships.
func (r *roleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE role_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_roles WHERE role_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Role{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *roleRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Role, error) {
	var role model.Role
	if err := conn(ctx, r.db).Preload("Permissions").First(&role, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &role, nil
}

func (r *roleRepository) FindByNames(ctx context.Context, guard string, names []string) ([]model.Role, error) {
	var roles []model.Role
	if len(names) == 0 {
		return roles, nil
	}
	err := conn(ctx, r.db).Where("guard_name = ? AND name IN ?", guard, names).Find(&roles).Error
	return roles, err
}

func (r *roleRepository) NameTaken(ctx context.Context, guard, name string, exclude uuid.UUID) (bool, error) {
	var n int64
	q := conn(ctx, r.db).Model(&model.Role{}).Where("guard_name = ? AND name = ?", guard, name)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *roleRepository) List(ctx context.Context, offset, limit int) ([]model.Role, error) {
	var roles []model.Role
	err := conn(ctx, r.db).Preload("Permissions").
		Order("created_at asc, id asc").
		Offset(offset).Limit(limit).
		Find(&roles).Error
	return roles, err
}

func (r *roleRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := conn(ctx, r.db).Model(&model.Role{}).Count(&total).Error
	return total, err
}

// ReplacePermissions syncs the role's grants to exactly permissionIDs.
func (r *roleRepository) ReplacePermissions(ctx context.Context, roleID uuid.UUID, permissionIDs []uuid.UUID) error {
	db := conn(ctx, r.db)
	var role model.Role
	if err := db.First(&role, "id = ?", roleID).Error; err != nil {
		return translate(err)
	}
	if len(permissionIDs) == 0 {
		return db.Model(&role).Association("Permissions").Clear()
	}

	var perms []model.Permission
	if err := db.Where("id IN ?", permissionIDs).Find(&perms).Error; err != nil {
		return err
	}

	return db.Model(&role).Association("Permissions").Replace(perms)
}
