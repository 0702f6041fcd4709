package repository

import (
	"context"

	"github.com/remindx-lab/backend/internal/entity"
	"github.com/remindx-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Create(ctx context.Context, data *entity.User) error
	Update(ctx context.Context, data *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByDiscordID(ctx context.Context, discordID string) (*entity.User, error)
	LockByID(ctx context.Context, id string) (*entity.User, error)
	DeleteByID(ctx context.Context, id string) error
}

type userRepository struct{}

func NewUserRepository() *userRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, data *entity.User) error {
	return xcontext.DB(ctx).Create(data).Error
}

// Update overwrites the profile fields of the user with data.ID, empty values included.
func (r *userRepository) Update(ctx context.Context, data *entity.User) error {
	tx := xcontext.DB(ctx).Model(&entity.User{}).
		Where("id=?", data.ID).
		Updates(map[string]any{
			"name":   data.Name,
			"email":  data.Email,
			"avatar": data.Avatar,
		})
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var record entity.User
	if err := xcontext.DB(ctx).Take(&record, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &record, nil
}

// GetByDiscordID locks the returned row until the surrounding transaction ends.
func (r *userRepository) GetByDiscordID(ctx context.Context, discordID string) (*entity.User, error) {
	var record entity.User
	err := xcontext.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&record, "discord_id=?", discordID).Error
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// LockByID locks the row of the user until the surrounding transaction ends.
func (r *userRepository) LockByID(ctx context.Context, id string) (*entity.User, error) {
	var record entity.User
	err := xcontext.DB(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Take(&record, "id=?", id).Error
	if err != nil {
		return nil, err
	}

	return &record, nil
}

// DeleteByID soft-deletes the user.
func (r *userRepository) DeleteByID(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).Delete(&entity.User{}, "id=?", id)
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
