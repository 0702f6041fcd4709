package authenticator

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/remindx-lab/backend/config"
	"github.com/remindx-lab/backend/pkg/xcontext"
	"golang.org/x/oauth2"
)

type oidcClaims struct {
	Subject           string `json:"sub"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	Picture           string `json:"picture"`
}

func (c oidcClaims) user() (OAuth2User, error) {
	if c.Subject == "" {
		return OAuth2User{}, errors.New("empty subject")
	}

	username := c.PreferredUsername
	if username == "" {
		username = c.Name
	}

	return OAuth2User{
		ID:       c.Subject,
		Username: username,
		Email:    c.Email,
		Avatar:   c.Picture,
	}, nil
}

type oidcService struct {
	name     string
	config   oauth2.Config
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
}

// NewOIDCService discovers the provider from cfg.Issuer.
func NewOIDCService(ctx context.Context, cfg config.OAuth2Config) (*oidcService, error) {
	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, xcontext.HTTPClient(ctx)), cfg.Issuer)
	if err != nil {
		return nil, err
	}

	return &oidcService{
		name: cfg.Name,
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
		},
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (s *oidcService) Service() string {
	return s.name
}

func (s *oidcService) AuthCodeURL(state, codeVerifier string) string {
	return authCodeURL(s.config, state, codeVerifier)
}

func (s *oidcService) GetUser(ctx context.Context, accessToken string) (OAuth2User, error) {
	if s.provider == nil {
		return OAuth2User{}, ErrUnsupportedMethod
	}

	ctx = oidc.ClientContext(ctx, xcontext.HTTPClient(ctx))
	info, err := s.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return OAuth2User{}, err
	}

	var claims oidcClaims
	if err := info.Claims(&claims); err != nil {
		return OAuth2User{}, fmt.Errorf("invalid user info: %w", err)
	}

	return claims.user()
}

func (s *oidcService) VerifyIDToken(ctx context.Context, rawIDToken string) (OAuth2User, error) {
	ctx = oidc.ClientContext(ctx, xcontext.HTTPClient(ctx))
	idToken, err := s.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return OAuth2User{}, err
	}

	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		return OAuth2User{}, fmt.Errorf("invalid id token: %w", err)
	}

	return claims.user()
}

func (s *oidcService) VerifyAuthorizationCode(
	ctx context.Context, code, codeVerifier, redirectURI string,
) (OAuth2User, error) {
	token, err := exchange(ctx, s.config, code, codeVerifier, redirectURI)
	if err != nil {
		return OAuth2User{}, err
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return OAuth2User{}, errors.New("no id_token field in oauth2 token")
	}

	return s.VerifyIDToken(ctx, rawIDToken)
}
