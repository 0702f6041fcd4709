package repository

import (
	"context"
	"time"

	"github.com/remindx-lab/backend/internal/entity"
	"github.com/remindx-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RefreshTokenRepository interface {
	Create(ctx context.Context, data *entity.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error)
	Revoke(ctx context.Context, id string) error
	RevokeAllByUserID(ctx context.Context, userID string) (int64, error)
	CountActiveByUserID(ctx context.Context, userID string) (int64, error)
}

type refreshTokenRepository struct{}

func NewRefreshTokenRepository() *refreshTokenRepository {
	return &refreshTokenRepository{}
}

func (r *refreshTokenRepository) Create(ctx context.Context, data *entity.RefreshToken) error {
	return xcontext.DB(ctx).Create(data).Error
}

// GetByToken finds the row by the token digest and locks it until the surrounding transaction
// ends.
func (r *refreshTokenRepository) GetByToken(ctx context.Context, token string) (*entity.RefreshToken, error) {
	var result entity.RefreshToken
	err := xcontext.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&result, "token=?", token).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// Revoke marks an active token as revoked. It returns gorm.ErrRecordNotFound if the token does
// not exist or somebody else revoked it first.
func (r *refreshTokenRepository) Revoke(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).Model(&entity.RefreshToken{}).
		Where("id=? AND revoked=?", id, false).
		Updates(map[string]any{
			"revoked":    true,
			"revoked_at": time.Now(),
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *refreshTokenRepository) RevokeAllByUserID(ctx context.Context, userID string) (int64, error) {
	tx := xcontext.DB(ctx).Model(&entity.RefreshToken{}).
		Where("user_id=? AND revoked=?", userID, false).
		Updates(map[string]any{
			"revoked":    true,
			"revoked_at": time.Now(),
		})

	return tx.RowsAffected, tx.Error
}

func (r *refreshTokenRepository) CountActiveByUserID(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.RefreshToken{}).
		Where("user_id=? AND revoked=?", userID, false).
		Count(&count).Error

	return count, err
}
