package migration

import (
	"context"
	"errors"
	"time"

	"github.com/remindx-lab/backend/internal/entity"
	"github.com/remindx-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type migrator struct {
	version int
	migrate func(context.Context) error
}

// Versions must be appended in increasing order and never edited once released.
var migrators = []migrator{
	{version: 0, migrate: migrate0000},
	{version: 1, migrate: migrate0001},
}

// Migrate applies every migrator whose version has not been recorded in the migrations table
// yet. Each version runs in its own transaction together with its record.
func Migrate(ctx context.Context) error {
	if err := xcontext.DB(ctx).AutoMigrate(&entity.Migration{}); err != nil {
		return err
	}

	for _, m := range migrators {
		err := xcontext.DB(ctx).Take(&entity.Migration{}, "version=?", m.version).Error
		if err == nil {
			continue
		}

		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		err = xcontext.WithinTransaction(ctx, func(ctx context.Context) error {
			if err := m.migrate(ctx); err != nil {
				return err
			}

			return xcontext.DB(ctx).Create(&entity.Migration{
				Version:   m.version,
				AppliedAt: time.Now(),
			}).Error
		})
		if err != nil {
			return err
		}

		xcontext.Logger(ctx).Infof("Applied migration %04d", m.version)
	}

	return nil
}

// LatestVersion returns the highest version applied to the database, or -1 if nothing was
// applied.
func LatestVersion(ctx context.Context) (int, error) {
	var m entity.Migration
	err := xcontext.DB(ctx).Order("version DESC").Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return -1, nil
	}

	if err != nil {
		return 0, err
	}

	return m.Version, nil
}
