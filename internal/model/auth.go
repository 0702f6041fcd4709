package model

import (
	"time"

	"github.com/remindx-lab/backend/pkg/enum"
)

// TokenKind tells an access token from a refresh token. Each kind is signed with its own secret
// and carries its kind in the payload, so one kind is never accepted as the other.
type TokenKind string

var (
	AccessTokenKind  = enum.New(TokenKind("access"))
	RefreshTokenKind = enum.New(TokenKind("refresh"))
)

// TokenObject is the private claim of both access and refresh tokens.
type TokenObject struct {
	ID        string    `json:"id" mapstructure:"id"`
	DiscordID string    `json:"discord_id" mapstructure:"discord_id"`
	Kind      TokenKind `json:"kind" mapstructure:"kind"`
}

// TokenPayload is the verified content of a token.
type TokenPayload struct {
	TokenID   string    `json:"token_id"`
	UserID    string    `json:"user_id"`
	DiscordID string    `json:"discord_id"`
	Kind      TokenKind `json:"kind"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Profile is an identity which the provider has already authenticated.
type Profile struct {
	ExternalID  string `json:"external_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	AvatarRef   string `json:"avatar_ref"`
}

// OAuth2 Verify
type OAuth2VerifyRequest struct {
	Type string `json:"type"`

	// Only one of the following fields is used, in this order.
	AccessToken  string `json:"access_token"`
	Code         string `json:"code"`
	CodeVerifier string `json:"code_verifier"`
	RedirectURI  string `json:"redirect_uri"`
	IDToken      string `json:"id_token"`
}

type OAuth2VerifyResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
