package domain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/remindx-lab/backend/internal/entity"
	"github.com/remindx-lab/backend/internal/model"
	"github.com/remindx-lab/backend/internal/repository"
	"github.com/remindx-lab/backend/pkg/api/discord"
	"github.com/remindx-lab/backend/pkg/authenticator"
	"github.com/remindx-lab/backend/pkg/crypto"
	"github.com/remindx-lab/backend/pkg/errorx"
	"github.com/remindx-lab/backend/pkg/testutil"
	"github.com/remindx-lab/backend/pkg/token"
	"github.com/remindx-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func Test_authDomain_IssueTokens_SingleActiveRefreshToken(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	domain := newTestAuthDomain(ctx, nil)

	var last *model.TokenPair
	for i := 0; i < 3; i++ {
		pair, err := domain.IssueTokens(ctx, testutil.User1)
		require.NoError(t, err)
		require.NotEmpty(t, pair.AccessToken)
		require.NotEmpty(t, pair.RefreshToken)
		last = pair
	}

	require.Equal(t, int64(1), countActiveRefreshTokens(t, ctx, testutil.User1.ID))

	// The active one is the most recently issued.
	stored, err := repository.NewRefreshTokenRepository().GetByToken(ctx, crypto.SHA256([]byte(last.RefreshToken)))
	require.NoError(t, err)
	require.False(t, stored.Revoked)

	var total int64
	require.NoError(t, xcontext.DB(ctx).Model(&entity.RefreshToken{}).
		Where("user_id=?", testutil.User1.ID).Count(&total).Error)
	require.Equal(t, int64(3), total)

	// Other users are not affected.
	require.Zero(t, countActiveRefreshTokens(t, ctx, testutil.User2.ID))
}

func Test_authDomain_IssueTokens_UnknownUser(t *testing.T) {
	ctx := testutil.MockContext()
	domain := newTestAuthDomain(ctx, nil)

	_, err := domain.IssueTokens(ctx, testutil.User1)
	requireErrorCode(t, err, errorx.NotFound)
}

func Test_authDomain_IssueTokens_KeyUnavailable(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	domain := newTestAuthDomain(ctx, nil)
	domain.refreshTokenEngine = token.NewEngine("")

	_, err := domain.IssueTokens(ctx, testutil.User1)
	require.Equal(t, errorx.Unknown, err)
	require.Zero(t, countActiveRefreshTokens(t, ctx, testutil.User1.ID))
}

func Test_authDomain_Verify(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	domain := newTestAuthDomain(ctx, nil)

	pair, err := domain.IssueTokens(ctx, testutil.User1)
	require.NoError(t, err)

	payload, err := domain.Verify(ctx, pair.AccessToken, model.AccessTokenKind)
	require.NoError(t, err)
	require.Equal(t, testutil.User1.ID, payload.UserID)
	require.Equal(t, testutil.User1.DiscordID, payload.DiscordID)
	require.Equal(t, model.AccessTokenKind, payload.Kind)
	require.True(t, payload.ExpiresAt.After(payload.IssuedAt))

	payload, err = domain.Verify(ctx, pair.RefreshToken, model.RefreshTokenKind)
	require.NoError(t, err)
	require.Equal(t, model.RefreshTokenKind, payload.Kind)
	require.NotEmpty(t, payload.TokenID)
}

func Test_authDomain_Verify_KindSeparation(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	domain := newTestAuthDomain(ctx, nil)

	pair, err := domain.IssueTokens(ctx, testutil.User1)
	require.NoError(t, err)

	_, err = domain.Verify(ctx, pair.AccessToken, model.RefreshTokenKind)
	requireErrorCode(t, err, errorx.TokenInvalid)

	_, err = domain.Verify(ctx, pair.RefreshToken, model.AccessTokenKind)
	requireErrorCode(t, err, errorx.TokenInvalid)

	// A token signed with the right secret but carrying the other kind is rejected too.
	forged, _, err := domain.accessTokenEngine.Generate(testutil.User1.ID, time.Minute, model.TokenObject{
		ID:   testutil.User1.ID,
		Kind: model.RefreshTokenKind,
	})
	require.NoError(t, err)
	_, err = domain.Verify(ctx, forged, model.AccessTokenKind)
	requireErrorCode(t, err, errorx.TokenInvalid)

	_, err = domain.Verify(ctx, pair.AccessToken, model.TokenKind("other"))
	requireErrorCode(t, err, errorx.TokenInvalid)
}

func Test_authDomain_Verify_Expired(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	clock := &testClock{now: time.Now()}
	domain := newTestAuthDomain(ctx, clock)

	pair, err := domain.IssueTokens(ctx, testutil.User1)
	require.NoError(t, err)

	// Access tokens live one minute, refresh tokens one hour in the test configs.
	clock.Advance(2 * time.Minute)
	_, err = domain.Verify(ctx, pair.AccessToken, model.AccessTokenKind)
	requireErrorCode(t, err, errorx.TokenExpired)

	_, err = domain.Verify(ctx, pair.RefreshToken, model.RefreshTokenKind)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	_, err = domain.Verify(ctx, pair.RefreshToken, model.RefreshTokenKind)
	requireErrorCode(t, err, errorx.TokenExpired)

	// Expired refresh tokens cannot be rotated.
	_, err = domain.Rotate(ctx, pair.RefreshToken)
	requireErrorCode(t, err, errorx.TokenExpired)
}

func Test_authDomain_Verify_Invalid(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	domain := newTestAuthDomain(ctx, nil)

	_, err := domain.Verify(ctx, "not-a-token", model.AccessTokenKind)
	requireErrorCode(t, err, errorx.TokenInvalid)

	other := token.NewEngine("other-secret")
	foreign, _, err := other.Generate(testutil.User1.ID, time.Minute, model.TokenObject{
		ID:   testutil.User1.ID,
		Kind: model.AccessTokenKind,
	})
	require.NoError(t, err)

	_, err = domain.Verify(ctx, foreign, model.AccessTokenKind)
	requireErrorCode(t, err, errorx.TokenInvalid)
}

func Test_authDomain_Verify_KeyUnavailable(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	domain := newTestAuthDomain(ctx, nil)

	pair, err := domain.IssueTokens(ctx, testutil.User1)
	require.NoError(t, err)

	domain.accessTokenEngine = token.NewEngine("")
	_, err = domain.Verify(ctx, pair.AccessToken, model.AccessTokenKind)
	require.Equal(t, errorx.Unknown, err)
}

func Test_authDomain_GetIdentityFromAccessToken(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	clock := &testClock{now: time.Now()}
	domain := newTestAuthDomain(ctx, clock)

	pair, err := domain.IssueTokens(ctx, testutil.User1)
	require.NoError(t, err)

	user, err := domain.GetIdentityFromAccessToken(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, testutil.User1.ID, user.ID)
	require.Equal(t, testutil.User1.Name, user.Name)

	_, err = domain.GetIdentityFromAccessToken(ctx, pair.RefreshToken)
	requireErrorCode(t, err, errorx.TokenInvalid)

	require.NoError(t, repository.NewUserRepository().DeleteByID(ctx, testutil.User1.ID))
	_, err = domain.GetIdentityFromAccessToken(ctx, pair.AccessToken)
	requireErrorCode(t, err, errorx.NotFound)

	clock.Advance(2 * time.Minute)
	_, err = domain.GetIdentityFromAccessToken(ctx, pair.AccessToken)
	requireErrorCode(t, err, errorx.TokenExpired)
}

func Test_authDomain_Rotate_ReplayRejected(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	domain := newTestAuthDomain(ctx, nil)

	pair, err := domain.IssueTokens(ctx, testutil.User1)
	require.NoError(t, err)

	rotated, err := domain.Rotate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, rotated.RefreshToken)

	refreshTokenRepo := repository.NewRefreshTokenRepository()
	old, err := refreshTokenRepo.GetByToken(ctx, crypto.SHA256([]byte(pair.RefreshToken)))
	require.NoError(t, err)
	require.True(t, old.Revoked)

	current, err := refreshTokenRepo.GetByToken(ctx, crypto.SHA256([]byte(rotated.RefreshToken)))
	require.NoError(t, err)
	require.False(t, current.Revoked)

	// Replaying the consumed token fails and issues nothing.
	_, err = domain.Rotate(ctx, pair.RefreshToken)
	requireErrorCode(t, err, errorx.TokenRevoked)

	current, err = refreshTokenRepo.GetByToken(ctx, crypto.SHA256([]byte(rotated.RefreshToken)))
	require.NoError(t, err)
	require.False(t, current.Revoked)
	require.Equal(t, int64(1), countActiveRefreshTokens(t, ctx, testutil.User1.ID))

	// Tokens which were revoked by a later issuance are rejected too.
	newer, err := domain.IssueTokens(ctx, testutil.User1)
	require.NoError(t, err)

	_, err = domain.Rotate(ctx, rotated.RefreshToken)
	requireErrorCode(t, err, errorx.TokenRevoked)

	_, err = domain.Rotate(ctx, newer.RefreshToken)
	require.NoError(t, err)
}

func Test_authDomain_Rotate_UnknownUser(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	domain := newTestAuthDomain(ctx, nil)

	pair, err := domain.IssueTokens(ctx, testutil.User2)
	require.NoError(t, err)

	require.NoError(t, repository.NewUserRepository().DeleteByID(ctx, testutil.User2.ID))

	_, err = domain.Rotate(ctx, pair.RefreshToken)
	requireErrorCode(t, err, errorx.NotFound)
}

func Test_authDomain_Rotate_UnrecordedToken(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	domain := newTestAuthDomain(ctx, nil)

	// Signed with the refresh secret but never written to the ledger.
	refreshToken, _, err := domain.refreshTokenEngine.Generate(testutil.User1.ID, time.Hour, model.TokenObject{
		ID:        testutil.User1.ID,
		DiscordID: testutil.User1.DiscordID,
		Kind:      model.RefreshTokenKind,
	})
	require.NoError(t, err)

	_, err = domain.Rotate(ctx, refreshToken)
	require.NoError(t, err)

	stored, err := repository.NewRefreshTokenRepository().GetByToken(ctx, crypto.SHA256([]byte(refreshToken)))
	require.NoError(t, err)
	require.True(t, stored.Revoked)
	require.Equal(t, int64(1), countActiveRefreshTokens(t, ctx, testutil.User1.ID))

	_, err = domain.Rotate(ctx, refreshToken)
	requireErrorCode(t, err, errorx.TokenRevoked)
}

func Test_authDomain_Rotate_Concurrent(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	domain := newTestAuthDomain(ctx, nil)

	pair, err := domain.IssueTokens(ctx, testutil.User1)
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = domain.Rotate(ctx, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}

		requireErrorCode(t, err, errorx.TokenRevoked)
	}

	require.Equal(t, 1, succeeded)
	require.Equal(t, int64(1), countActiveRefreshTokens(t, ctx, testutil.User1.ID))
}

func Test_authDomain_Revoke(t *testing.T) {
	ctx := testutil.CreateFixtureContext()
	domain := newTestAuthDomain(ctx, nil)

	pair, err := domain.IssueTokens(ctx, testutil.User1)
	require.NoError(t, err)

	require.NoError(t, domain.Revoke(ctx, pair.RefreshToken))
	require.Zero(t, countActiveRefreshTokens(t, ctx, testutil.User1.ID))

	requireErrorCode(t, domain.Revoke(ctx, pair.RefreshToken), errorx.TokenRevoked)

	_, err = domain.Rotate(ctx, pair.RefreshToken)
	requireErrorCode(t, err, errorx.TokenRevoked)

	requireErrorCode(t, domain.Revoke(ctx, pair.AccessToken), errorx.TokenInvalid)
}

func Test_authDomain_EndToEnd(t *testing.T) {
	ctx := testutil.MockContext()
	domain := newTestAuthDomain(ctx, nil)

	u1, err := domain.identityDomain.Reconcile(ctx, &model.Profile{
		ExternalID:  "d123",
		DisplayName: "Ada",
		Email:       "a@x.com",
	})
	require.NoError(t, err)

	first, err := domain.IssueTokens(ctx, u1)
	require.NoError(t, err)

	user, err := domain.GetIdentityFromAccessToken(ctx, first.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u1.ID, user.ID)
	require.Equal(t, "Ada", user.Name)

	second, err := domain.Rotate(ctx, first.RefreshToken)
	require.NoError(t, err)

	payload, err := domain.Verify(ctx, second.AccessToken, model.AccessTokenKind)
	require.NoError(t, err)
	require.Equal(t, u1.ID, payload.UserID)

	_, err = domain.Rotate(ctx, first.RefreshToken)
	requireErrorCode(t, err, errorx.TokenRevoked)
}

func Test_authDomain_OAuth2Verify(t *testing.T) {
	discordService := testutil.NewMockOAuth2("discord")
	discordService.GetUserFunc = func(ctx context.Context, accessToken string) (authenticator.OAuth2User, error) {
		if accessToken == "limited" {
			return authenticator.OAuth2User{}, fmt.Errorf("%w:%d", discord.ErrRateLimit, time.Now().Add(time.Minute).UnixMilli())
		}
		if accessToken != "discord-access" {
			return authenticator.OAuth2User{}, errors.New("invalid token")
		}
		return authenticator.OAuth2User{ID: "d123", Username: "ada", Email: "a@x.com", Avatar: "a1"}, nil
	}
	discordService.VerifyAuthorizationCodeFunc = func(
		ctx context.Context, code, codeVerifier, redirectURI string,
	) (authenticator.OAuth2User, error) {
		return authenticator.OAuth2User{ID: "d123", Username: "ada lovelace"}, nil
	}
	discordService.VerifyIDTokenFunc = func(ctx context.Context, rawIDToken string) (authenticator.OAuth2User, error) {
		return authenticator.OAuth2User{}, authenticator.ErrUnsupportedMethod
	}

	ctx := testutil.MockContext()
	domain := newTestAuthDomain(ctx, nil, discordService)

	resp, err := domain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{Type: "discord", AccessToken: "discord-access"})
	require.NoError(t, err)
	require.Equal(t, "d123", resp.User.DiscordID)
	require.Equal(t, "a@x.com", resp.User.Email)

	user, err := domain.GetIdentityFromAccessToken(ctx, resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, user.ID)

	// Logging in again updates the same user and replaces the refresh token.
	again, err := domain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{Type: "discord", Code: "code"})
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, again.User.ID)
	require.Equal(t, "ada lovelace", again.User.Name)
	require.Equal(t, int64(1), countActiveRefreshTokens(t, ctx, user.ID))

	_, err = domain.Rotate(ctx, resp.RefreshToken)
	requireErrorCode(t, err, errorx.TokenRevoked)

	_, err = domain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{Type: "twitter", AccessToken: "x"})
	requireErrorCode(t, err, errorx.BadRequest)

	_, err = domain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{Type: "discord"})
	requireErrorCode(t, err, errorx.BadRequest)

	_, err = domain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{Type: "discord", IDToken: "id"})
	requireErrorCode(t, err, errorx.BadRequest)

	_, err = domain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{Type: "discord", AccessToken: "wrong"})
	require.Equal(t, errorx.Unknown, err)

	_, err = domain.OAuth2Verify(ctx, &model.OAuth2VerifyRequest{Type: "discord", AccessToken: "limited"})
	requireErrorCode(t, err, errorx.TooManyRequests)
}
