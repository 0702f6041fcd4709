package domain

import (
	"context"
	"errors"

	"github.com/remindx-lab/backend/internal/model"
	"github.com/remindx-lab/backend/internal/repository"
	"github.com/remindx-lab/backend/pkg/errorx"
	"github.com/remindx-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type UserDomain interface {
	GetMe(ctx context.Context, accessToken string) (*model.User, error)
	Delete(ctx context.Context, userID string) error
}

type userDomain struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	authDomain       AuthDomain
}

func NewUserDomain(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	authDomain AuthDomain,
) UserDomain {
	return &userDomain{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		authDomain:       authDomain,
	}
}

func (d *userDomain) GetMe(ctx context.Context, accessToken string) (*model.User, error) {
	user, err := d.authDomain.GetIdentityFromAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	result := model.ConvertUser(user, true)
	return &result, nil
}

// Delete soft-deletes the user and revokes all of its refresh tokens. Access tokens of the user
// stay valid until they expire but no longer resolve to a user.
func (d *userDomain) Delete(ctx context.Context, userID string) error {
	return withinTransaction(ctx, "delete user", func(ctx context.Context) error {
		if err := d.userRepo.DeleteByID(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errorx.New(errorx.NotFound, "Not found user")
			}

			xcontext.Logger(ctx).Errorf("Cannot delete user %s: %v", userID, err)
			return errorx.Unknown
		}

		n, err := d.refreshTokenRepo.RevokeAllByUserID(ctx, userID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot revoke refresh tokens of user %s: %v", userID, err)
			return errorx.Unknown
		}

		xcontext.Logger(ctx).Infof("Deleted user %s and revoked %d refresh tokens", userID, n)
		return nil
	})
}
