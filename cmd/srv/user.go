package main

import "github.com/urfave/cli/v2"

func (s *srv) startMe(cctx *cli.Context) error {
	if err := s.load(cctx); err != nil {
		return err
	}

	user, err := s.userDomain.GetMe(s.ctx, cctx.String("token"))
	if err != nil {
		return err
	}

	return printJSON(cctx, user)
}

func (s *srv) startDeleteUser(cctx *cli.Context) error {
	if err := s.load(cctx); err != nil {
		return err
	}

	if err := s.userDomain.Delete(s.ctx, cctx.String("id")); err != nil {
		return err
	}

	return printJSON(cctx, map[string]bool{"deleted": true})
}
