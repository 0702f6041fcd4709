package authenticator

import (
	"context"
	"errors"
)

var ErrUnsupportedMethod = errors.New("unsupported method")

// OAuth2User is the profile of a user which the provider has authenticated.
type OAuth2User struct {
	ID       string
	Username string
	Email    string
	Avatar   string
}

type IOAuth2Service interface {
	Service() string

	// AuthCodeURL returns the url of the consent page. The codeVerifier is optional, if it is set
	// the S256 challenge of it is attached.
	AuthCodeURL(state, codeVerifier string) string

	GetUser(ctx context.Context, accessToken string) (OAuth2User, error)
	VerifyIDToken(ctx context.Context, rawIDToken string) (OAuth2User, error)
	VerifyAuthorizationCode(ctx context.Context, code, codeVerifier, redirectURI string) (OAuth2User, error)
}
