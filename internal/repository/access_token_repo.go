package repository

import (
	"context"
	"time"

	"rbac-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessTokenRepository stores issued bearer credentials.
type AccessTokenRepository interface {
	Create(ctx context.Context, token *model.AccessToken) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AccessToken, error)
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type accessTokenRepository struct {
	db *gorm.DB
}

func NewAccessTokenRepository(db *gorm.DB) AccessTokenRepository {
	return &accessTokenRepository{db: db}
}

func (r *accessTokenRepository) Create(ctx context.Context, token *model.AccessToken) error {
	return translate(conn(ctx, r.db).Omit("User").Create(token).Error)
}

func (r *accessTokenRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AccessToken, error) {
	var token model.AccessToken
	if err := conn(ctx, r.db).First(&token, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *accessTokenRepository) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	return conn(ctx, r.db).Model(&model.AccessToken{}).Where("id = ?", id).Update("last_used_at", at).Error
}

func (r *accessTokenRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := conn(ctx, r.db).Where("id = ?", id).Delete(&model.AccessToken{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *accessTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res := conn(ctx, r.db).Where("expires_at IS NOT NULL AND expires_at <= ?", before).Delete(&model.AccessToken{})
	return res.RowsAffected, res.Error
}
