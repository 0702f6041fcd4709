package authenticator

import (
	"context"

	"github.com/remindx-lab/backend/pkg/xcontext"
	"golang.org/x/oauth2"
)

func authCodeURL(cfg oauth2.Config, state, codeVerifier string) string {
	if codeVerifier == "" {
		return cfg.AuthCodeURL(state)
	}

	return cfg.AuthCodeURL(state, oauth2.S256ChallengeOption(codeVerifier))
}

// exchange trades the authorization code for a token with the http client of ctx.
func exchange(
	ctx context.Context, cfg oauth2.Config, code, codeVerifier, redirectURI string,
) (*oauth2.Token, error) {
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}

	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(codeVerifier))
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, xcontext.HTTPClient(ctx))
	return cfg.Exchange(ctx, code, opts...)
}
