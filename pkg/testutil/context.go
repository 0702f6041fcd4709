package testutil

import (
	"context"
	"time"

	"github.com/remindx-lab/backend/config"
	"github.com/remindx-lab/backend/migration"
	"github.com/remindx-lab/backend/pkg/logger"
	"github.com/remindx-lab/backend/pkg/xcontext"
)

func MockConfigs() config.Configs {
	cfg := config.Default()
	cfg.Env = "test"
	cfg.Database.Database = ":memory:"
	cfg.Auth.AccessToken.Secret = "access-secret"
	cfg.Auth.AccessToken.Expiration = config.Duration{Duration: time.Minute}
	cfg.Auth.RefreshToken.Secret = "refresh-secret"
	cfg.Auth.RefreshToken.Expiration = config.Duration{Duration: time.Hour}
	return cfg
}

// MockContext returns a context with test configs, a silent logger and a migrated in-memory
// database.
func MockContext() context.Context {
	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, MockConfigs())
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	ctx = xcontext.WithDB(ctx, NewMockDB())

	if err := migration.Migrate(ctx); err != nil {
		panic(err)
	}

	return ctx
}
