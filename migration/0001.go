package migration

import (
	"context"

	"github.com/remindx-lab/backend/pkg/xcontext"
)

// migrate0001 makes discord_id unique among users which are not soft-deleted. Both postgres and
// sqlite support partial indexes.
func migrate0001(ctx context.Context) error {
	return xcontext.DB(ctx).Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_users_discord_id_active " +
			"ON users (discord_id) WHERE deleted_at IS NULL",
	).Error
}
