package domain

import (
	"context"
	"testing"
	"time"

	"github.com/remindx-lab/backend/internal/entity"
	"github.com/remindx-lab/backend/internal/repository"
	"github.com/remindx-lab/backend/pkg/authenticator"
	"github.com/remindx-lab/backend/pkg/errorx"
	"github.com/remindx-lab/backend/pkg/token"
	"github.com/remindx-lab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

// testClock is a manual clock shared by the token engines of a test.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestAuthDomain(ctx context.Context, clock *testClock, services ...authenticator.IOAuth2Service) *authDomain {
	cfg := xcontext.Configs(ctx).Auth

	var opts []token.Option
	if clock != nil {
		opts = append(opts, token.WithClock(clock.Now))
	}

	userRepo := repository.NewUserRepository()
	return NewAuthDomain(
		cfg,
		token.NewEngine(cfg.AccessToken.Secret, opts...),
		token.NewEngine(cfg.RefreshToken.Secret, opts...),
		userRepo,
		repository.NewRefreshTokenRepository(),
		NewIdentityDomain(userRepo),
		services,
	).(*authDomain)
}

func requireErrorCode(t *testing.T, err error, code errorx.Code) {
	t.Helper()

	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, code, errx.Code, errx.Message)
}

func countActiveRefreshTokens(t *testing.T, ctx context.Context, userID string) int64 {
	t.Helper()

	count, err := repository.NewRefreshTokenRepository().CountActiveByUserID(ctx, userID)
	require.NoError(t, err)
	return count
}

func getUser(t *testing.T, ctx context.Context, id string) *entity.User {
	t.Helper()

	user, err := repository.NewUserRepository().GetByID(ctx, id)
	require.NoError(t, err)
	return user
}
