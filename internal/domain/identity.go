package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/remindx-lab/backend/internal/entity"
	"github.com/remindx-lab/backend/internal/model"
	"github.com/remindx-lab/backend/internal/repository"
	"github.com/remindx-lab/backend/pkg/errorx"
	"github.com/remindx-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type IdentityDomain interface {
	// Reconcile creates the user of an authenticated profile, or overwrites the profile fields of
	// the existing one.
	Reconcile(context.Context, *model.Profile) (*entity.User, error)
}

type identityDomain struct {
	userRepo repository.UserRepository
}

func NewIdentityDomain(userRepo repository.UserRepository) IdentityDomain {
	return &identityDomain{userRepo: userRepo}
}

func (d *identityDomain) Reconcile(ctx context.Context, profile *model.Profile) (*entity.User, error) {
	if profile == nil || profile.ExternalID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require an external id")
	}

	var user *entity.User
	err := withinTransaction(ctx, "reconcile user", func(ctx context.Context) error {
		// The row lock serializes concurrent reconciliations of the same external id.
		existing, err := d.userRepo.GetByDiscordID(ctx, profile.ExternalID)
		if err == nil {
			existing.Name = profile.DisplayName
			existing.Email = profile.Email
			existing.Avatar = profile.AvatarRef
			if err := d.userRepo.Update(ctx, existing); err != nil {
				xcontext.Logger(ctx).Errorf("Cannot update user %s: %v", existing.ID, err)
				return errorx.Unknown
			}

			user, err = d.userRepo.GetByID(ctx, existing.ID)
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot get user %s: %v", existing.ID, err)
				return errorx.Unknown
			}

			return nil
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get user by discord id: %v", err)
			return errorx.Unknown
		}

		user = &entity.User{
			Base:      entity.Base{ID: uuid.NewString()},
			DiscordID: profile.ExternalID,
			Name:      profile.DisplayName,
			Email:     profile.Email,
			Avatar:    profile.AvatarRef,
		}
		if err := d.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errorx.New(errorx.AlreadyExists, "The user is being created by another request")
			}

			xcontext.Logger(ctx).Errorf("Cannot create user: %v", err)
			return errorx.Unknown
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}
