package main

import (
	"github.com/remindx-lab/backend/migration"
	"github.com/remindx-lab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(cctx *cli.Context) error {
	if err := s.loadConfig(cctx); err != nil {
		return err
	}

	s.loadLogger()
	if err := s.loadDatabase(); err != nil {
		return err
	}

	if err := migration.Migrate(s.ctx); err != nil {
		return err
	}

	version, err := migration.LatestVersion(s.ctx)
	if err != nil {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Database is at version %04d", version)
	return printJSON(cctx, map[string]int{"version": version})
}
