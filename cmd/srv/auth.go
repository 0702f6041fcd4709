package main

import (
	"fmt"

	"github.com/remindx-lab/backend/internal/model"
	"github.com/remindx-lab/backend/pkg/crypto"
	"github.com/remindx-lab/backend/pkg/enum"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"
)

type loginURL struct {
	URL          string `json:"url"`
	State        string `json:"state"`
	CodeVerifier string `json:"code_verifier"`
}

func (s *srv) startLogin(cctx *cli.Context) error {
	if err := s.load(cctx); err != nil {
		return err
	}

	req := &model.OAuth2VerifyRequest{
		Type:         cctx.String("type"),
		AccessToken:  cctx.String("access-token"),
		Code:         cctx.String("code"),
		CodeVerifier: cctx.String("code-verifier"),
		RedirectURI:  cctx.String("redirect-uri"),
		IDToken:      cctx.String("id-token"),
	}

	if req.AccessToken == "" && req.Code == "" && req.IDToken == "" {
		service, err := s.getOAuth2Service(req.Type)
		if err != nil {
			return err
		}

		state, err := crypto.GenerateRandomString()
		if err != nil {
			return err
		}

		verifier := oauth2.GenerateVerifier()
		return printJSON(cctx, loginURL{
			URL:          service.AuthCodeURL(state, verifier),
			State:        state,
			CodeVerifier: verifier,
		})
	}

	resp, err := s.authDomain.OAuth2Verify(s.ctx, req)
	if err != nil {
		return err
	}

	return printJSON(cctx, resp)
}

func (s *srv) startIssue(cctx *cli.Context) error {
	if err := s.load(cctx); err != nil {
		return err
	}

	user, err := s.identityDomain.Reconcile(s.ctx, &model.Profile{
		ExternalID:  cctx.String("discord-id"),
		DisplayName: cctx.String("name"),
		Email:       cctx.String("email"),
		AvatarRef:   cctx.String("avatar"),
	})
	if err != nil {
		return err
	}

	pair, err := s.authDomain.IssueTokens(s.ctx, user)
	if err != nil {
		return err
	}

	return printJSON(cctx, model.OAuth2VerifyResponse{
		User:         model.ConvertUser(user, true),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (s *srv) startVerify(cctx *cli.Context) error {
	kind, err := enum.ToEnum[model.TokenKind](cctx.String("kind"))
	if err != nil {
		return fmt.Errorf("unknown token kind: %w", err)
	}

	if err := s.load(cctx); err != nil {
		return err
	}

	payload, err := s.authDomain.Verify(s.ctx, cctx.String("token"), kind)
	if err != nil {
		return err
	}

	return printJSON(cctx, payload)
}

func (s *srv) startRotate(cctx *cli.Context) error {
	if err := s.load(cctx); err != nil {
		return err
	}

	pair, err := s.authDomain.Rotate(s.ctx, cctx.String("token"))
	if err != nil {
		return err
	}

	return printJSON(cctx, pair)
}

func (s *srv) startRevoke(cctx *cli.Context) error {
	if err := s.load(cctx); err != nil {
		return err
	}

	if err := s.authDomain.Revoke(s.ctx, cctx.String("token")); err != nil {
		return err
	}

	return printJSON(cctx, map[string]bool{"revoked": true})
}
