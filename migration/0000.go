package migration

import (
	"context"

	"github.com/remindx-lab/backend/internal/entity"
	"github.com/remindx-lab/backend/pkg/xcontext"
)

// migrate0000 creates the tables.
func migrate0000(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&entity.User{},
		&entity.RefreshToken{},
	)
}
