package repository

import (
	"context"

	"rbac-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PermissionRepository interface {
	Create(ctx context.Context, perm *model.Permission) error
	Update(ctx context.Context, perm *model.Permission) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Permission, error)
	FindByNames(ctx context.Context, guard string, names []string) ([]model.Permission, error)
	NameTaken(ctx context.Context, guard, name string, exclude uuid.UUID) (bool, error)
	List(ctx context.Context, offset, limit int) ([]model.Permission, error)
	Count(ctx context.Context) (int64, error)
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Create(ctx context.Context, perm *model.Permission) error {
	return translate(conn(ctx, r.db).Create(perm).Error)
}

func (r *permissionRepository) Update(ctx context.Context, perm *model.Permission) error {
	return translate(conn(ctx, r.db).Save(perm).Error)
}

// Delete removes the permission from every role and user holding it, then the row itself.
func (r *permissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM role_permissions WHERE permission_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM user_permissions WHERE permission_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.Permission{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *permissionRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Permission, error) {
	var perm model.Permission
	if err := conn(ctx, r.db).First(&perm, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &perm, nil
}

func (r *permissionRepository) FindByNames(ctx context.Context, guard string, names []string) ([]model.Permission, error) {
	var perms []model.Permission
	if len(names) == 0 {
		return perms, nil
	}
	err := conn(ctx, r.db).Where("guard_name = ? AND name IN ?", guard, names).Find(&perms).Error
	return perms, err
}

func (r *permissionRepository) NameTaken(ctx context.Context, guard, name string, exclude uuid.UUID) (bool, error) {
	var n int64
	q := conn(ctx, r.db).Model(&model.Permission{}).Where("guard_name = ? AND name = ?", guard, name)
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *permissionRepository) List(ctx context.Context, offset, limit int) ([]model.Permission, error) {
	var perms []model.Permission
	err := conn(ctx, r.db).Order("created_at asc, id asc").Offset(offset).Limit(limit).Find(&perms).Error
	return perms, err
}

func (r *permissionRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := conn(ctx, r.db).Model(&model.Permission{}).Count(&total).Error
	return total, err
}
