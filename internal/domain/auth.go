package domain

import (
	"context"
	"errors"
	"time"

	"github.com/remindx-lab/backend/config"
	"github.com/remindx-lab/backend/internal/entity"
	"github.com/remindx-lab/backend/internal/model"
	"github.com/remindx-lab/backend/internal/repository"
	"github.com/remindx-lab/backend/pkg/api/discord"
	"github.com/remindx-lab/backend/pkg/authenticator"
	"github.com/remindx-lab/backend/pkg/crypto"
	"github.com/remindx-lab/backend/pkg/errorx"
	"github.com/remindx-lab/backend/pkg/token"
	"github.com/remindx-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type AuthDomain interface {
	IssueTokens(context.Context, *entity.User) (*model.TokenPair, error)
	Verify(ctx context.Context, token string, kind model.TokenKind) (*model.TokenPayload, error)
	GetIdentityFromAccessToken(ctx context.Context, accessToken string) (*entity.User, error)
	Rotate(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	Revoke(ctx context.Context, refreshToken string) error
	OAuth2Verify(context.Context, *model.OAuth2VerifyRequest) (*model.OAuth2VerifyResponse, error)
}

type authDomain struct {
	cfg                config.AuthConfigs
	accessTokenEngine  token.Engine
	refreshTokenEngine token.Engine

	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	identityDomain   IdentityDomain
	oauth2Services   []authenticator.IOAuth2Service
}

// NewAuthDomain keeps its own copy of cfg, the expirations never change after construction.
func NewAuthDomain(
	cfg config.AuthConfigs,
	accessTokenEngine token.Engine,
	refreshTokenEngine token.Engine,
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	identityDomain IdentityDomain,
	oauth2Services []authenticator.IOAuth2Service,
) AuthDomain {
	return &authDomain{
		cfg:                cfg,
		accessTokenEngine:  accessTokenEngine,
		refreshTokenEngine: refreshTokenEngine,
		userRepo:           userRepo,
		refreshTokenRepo:   refreshTokenRepo,
		identityDomain:     identityDomain,
		oauth2Services:     oauth2Services,
	}
}

func (d *authDomain) IssueTokens(ctx context.Context, user *entity.User) (*model.TokenPair, error) {
	var pair *model.TokenPair
	err := withinTransaction(ctx, "issue tokens", func(ctx context.Context) error {
		lockedUser, err := d.userRepo.LockByID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errorx.New(errorx.NotFound, "Not found user")
			}

			xcontext.Logger(ctx).Errorf("Cannot lock user %s: %v", user.ID, err)
			return errorx.Unknown
		}

		pair, err = d.issueTokens(ctx, lockedUser)
		return err
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// issueTokens must be called in a transaction which holds the lock of the user row. It revokes
// every active refresh token of the user and records the new one.
func (d *authDomain) issueTokens(ctx context.Context, user *entity.User) (*model.TokenPair, error) {
	accessToken, _, err := d.accessTokenEngine.Generate(
		user.ID,
		d.cfg.AccessToken.Expiration.Duration,
		model.TokenObject{ID: user.ID, DiscordID: user.DiscordID, Kind: model.AccessTokenKind},
	)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate access token: %v", err)
		return nil, errorx.Unknown
	}

	refreshToken, meta, err := d.refreshTokenEngine.Generate(
		user.ID,
		d.cfg.RefreshToken.Expiration.Duration,
		model.TokenObject{ID: user.ID, DiscordID: user.DiscordID, Kind: model.RefreshTokenKind},
	)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate refresh token: %v", err)
		return nil, errorx.Unknown
	}

	if _, err := d.refreshTokenRepo.RevokeAllByUserID(ctx, user.ID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot revoke refresh tokens of user %s: %v", user.ID, err)
		return nil, errorx.Unknown
	}

	err = d.refreshTokenRepo.Create(ctx, &entity.RefreshToken{
		ID:     meta.ID,
		UserID: user.ID,
		Token:  crypto.SHA256([]byte(refreshToken)),
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create refresh token: %v", err)
		return nil, errorx.Unknown
	}

	return &model.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (d *authDomain) Verify(
	ctx context.Context, tokenString string, kind model.TokenKind,
) (*model.TokenPayload, error) {
	var engine token.Engine
	switch kind {
	case model.AccessTokenKind:
		engine = d.accessTokenEngine
	case model.RefreshTokenKind:
		engine = d.refreshTokenEngine
	default:
		return nil, errorx.New(errorx.TokenInvalid, "Unknown token kind %s", kind)
	}

	var obj model.TokenObject
	meta, err := engine.Verify(tokenString, &obj)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrExpired):
			return nil, errorx.New(errorx.TokenExpired, "Your %s token is expired", kind)
		case errors.Is(err, token.ErrInvalid):
			xcontext.Logger(ctx).Debugf("Failed to verify %s token: %v", kind, err)
			return nil, errorx.New(errorx.TokenInvalid, "Your %s token is invalid", kind)
		default:
			xcontext.Logger(ctx).Errorf("Cannot verify %s token: %v", kind, err)
			return nil, errorx.Unknown
		}
	}

	if obj.Kind != kind || obj.ID == "" || obj.ID != meta.Subject {
		xcontext.Logger(ctx).Debugf("Got a %s token with object %+v and subject %s", kind, obj, meta.Subject)
		return nil, errorx.New(errorx.TokenInvalid, "Your %s token is invalid", kind)
	}

	return &model.TokenPayload{
		TokenID:   meta.ID,
		UserID:    obj.ID,
		DiscordID: obj.DiscordID,
		Kind:      obj.Kind,
		IssuedAt:  meta.IssuedAt,
		ExpiresAt: meta.ExpiresAt,
	}, nil
}

func (d *authDomain) GetIdentityFromAccessToken(ctx context.Context, accessToken string) (*entity.User, error) {
	payload, err := d.Verify(ctx, accessToken, model.AccessTokenKind)
	if err != nil {
		return nil, err
	}

	user, err := d.userRepo.GetByID(ctx, payload.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user %s: %v", payload.UserID, err)
		return nil, errorx.Unknown
	}

	return user, nil
}

func (d *authDomain) Rotate(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	payload, err := d.Verify(ctx, refreshToken, model.RefreshTokenKind)
	if err != nil {
		return nil, err
	}

	var pair *model.TokenPair
	err = withinTransaction(ctx, "rotate refresh token", func(ctx context.Context) error {
		user, err := d.userRepo.LockByID(ctx, payload.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errorx.New(errorx.NotFound, "Not found user")
			}

			xcontext.Logger(ctx).Errorf("Cannot lock user %s: %v", payload.UserID, err)
			return errorx.Unknown
		}

		if err := d.consumeRefreshToken(ctx, user.ID, refreshToken, payload); err != nil {
			return err
		}

		pair, err = d.issueTokens(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}

	return pair, nil
}

func (d *authDomain) Revoke(ctx context.Context, refreshToken string) error {
	payload, err := d.Verify(ctx, refreshToken, model.RefreshTokenKind)
	if err != nil {
		return err
	}

	return withinTransaction(ctx, "revoke refresh token", func(ctx context.Context) error {
		return d.consumeRefreshToken(ctx, payload.UserID, refreshToken, payload)
	})
}

// consumeRefreshToken marks the presented refresh token as revoked. A token which has been
// revoked before is a replay and fails with TokenRevoked.
func (d *authDomain) consumeRefreshToken(
	ctx context.Context, userID, refreshToken string, payload *model.TokenPayload,
) error {
	hashedToken := crypto.SHA256([]byte(refreshToken))
	storageToken, err := d.refreshTokenRepo.GetByToken(ctx, hashedToken)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get refresh token %s: %v", payload.TokenID, err)
			return errorx.Unknown
		}

		// A token signed by us but never recorded. Record it as used so that it cannot be
		// presented again.
		now := time.Now()
		err := d.refreshTokenRepo.Create(ctx, &entity.RefreshToken{
			ID:        payload.TokenID,
			UserID:    userID,
			Token:     hashedToken,
			Revoked:   true,
			RevokedAt: &now,
		})
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return errorx.New(errorx.TokenRevoked, "Your refresh token has been revoked")
			}

			xcontext.Logger(ctx).Errorf("Cannot record refresh token %s: %v", payload.TokenID, err)
			return errorx.Unknown
		}

		xcontext.Logger(ctx).Warnf("Refresh token %s of user %s was not recorded", payload.TokenID, userID)
		return nil
	}

	if storageToken.UserID != userID {
		xcontext.Logger(ctx).Warnf("Refresh token %s belongs to user %s, not %s",
			storageToken.ID, storageToken.UserID, userID)
		return errorx.New(errorx.TokenInvalid, "Your refresh token is invalid")
	}

	if storageToken.Revoked {
		xcontext.Logger(ctx).Warnf("Detected a replay of revoked refresh token %s of user %s",
			storageToken.ID, userID)
		return errorx.New(errorx.TokenRevoked, "Your refresh token has been revoked")
	}

	if err := d.refreshTokenRepo.Revoke(ctx, storageToken.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.TokenRevoked, "Your refresh token has been revoked")
		}

		xcontext.Logger(ctx).Errorf("Cannot revoke refresh token %s: %v", storageToken.ID, err)
		return errorx.Unknown
	}

	return nil
}

func (d *authDomain) OAuth2Verify(
	ctx context.Context, req *model.OAuth2VerifyRequest,
) (*model.OAuth2VerifyResponse, error) {
	service, ok := d.getOAuth2Service(req.Type)
	if !ok {
		return nil, errorx.New(errorx.BadRequest, "Unsupported type %s", req.Type)
	}

	var serviceUser authenticator.OAuth2User
	var err error
	var oauth2Method string
	if req.AccessToken != "" {
		oauth2Method = "access token"
		serviceUser, err = service.GetUser(ctx, req.AccessToken)
	} else if req.Code != "" {
		oauth2Method = "authorization code"
		serviceUser, err = service.VerifyAuthorizationCode(
			ctx, req.Code, req.CodeVerifier, req.RedirectURI)
	} else if req.IDToken != "" {
		oauth2Method = "id token"
		serviceUser, err = service.VerifyIDToken(ctx, req.IDToken)
	}

	if oauth2Method == "" {
		return nil, errorx.New(errorx.BadRequest, "Please provide at least one method to authorize")
	}

	if err != nil {
		if errors.Is(err, authenticator.ErrUnsupportedMethod) {
			return nil, errorx.New(errorx.BadRequest, "%s does not support %s", service.Service(), oauth2Method)
		}

		if resetAt, ok := discord.IsRateLimit(err); ok {
			return nil, errorx.New(errorx.TooManyRequests,
				"Too many requests to %s, retry after %s", service.Service(), resetAt.Format(time.RFC3339))
		}

		xcontext.Logger(ctx).Errorf("Cannot verify %s: %v", oauth2Method, err)
		return nil, errorx.Unknown
	}

	user, err := d.identityDomain.Reconcile(ctx, &model.Profile{
		ExternalID:  serviceUser.ID,
		DisplayName: serviceUser.Username,
		Email:       serviceUser.Email,
		AvatarRef:   serviceUser.Avatar,
	})
	if err != nil {
		return nil, err
	}

	pair, err := d.IssueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &model.OAuth2VerifyResponse{
		User:         model.ConvertUser(user, true),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (d *authDomain) getOAuth2Service(name string) (authenticator.IOAuth2Service, bool) {
	for _, s := range d.oauth2Services {
		if s.Service() == name {
			return s, true
		}
	}

	return nil, false
}
