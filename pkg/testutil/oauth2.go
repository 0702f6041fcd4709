package testutil

import (
	"context"

	"github.com/remindx-lab/backend/pkg/authenticator"
)

type MockOAuth2 struct {
	Name                        string
	AuthCodeURLFunc             func(state, codeVerifier string) string
	GetUserFunc                 func(ctx context.Context, accessToken string) (authenticator.OAuth2User, error)
	VerifyIDTokenFunc           func(ctx context.Context, rawIDToken string) (authenticator.OAuth2User, error)
	VerifyAuthorizationCodeFunc func(ctx context.Context, code, codeVerifier, redirectURI string) (authenticator.OAuth2User, error)
}

func NewMockOAuth2(name string) *MockOAuth2 {
	return &MockOAuth2{Name: name}
}

func (m *MockOAuth2) Service() string {
	return m.Name
}

func (m *MockOAuth2) AuthCodeURL(state, codeVerifier string) string {
	if m.AuthCodeURLFunc != nil {
		return m.AuthCodeURLFunc(state, codeVerifier)
	}

	return ""
}

func (m *MockOAuth2) GetUser(ctx context.Context, accessToken string) (authenticator.OAuth2User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, accessToken)
	}

	return authenticator.OAuth2User{}, nil
}

func (m *MockOAuth2) VerifyIDToken(ctx context.Context, rawIDToken string) (authenticator.OAuth2User, error) {
	if m.VerifyIDTokenFunc != nil {
		return m.VerifyIDTokenFunc(ctx, rawIDToken)
	}

	return authenticator.OAuth2User{}, nil
}

func (m *MockOAuth2) VerifyAuthorizationCode(
	ctx context.Context, code, codeVerifier, redirectURI string,
) (authenticator.OAuth2User, error) {
	if m.VerifyAuthorizationCodeFunc != nil {
		return m.VerifyAuthorizationCodeFunc(ctx, code, codeVerifier, redirectURI)
	}

	return authenticator.OAuth2User{}, nil
}
