package authenticator

import (
	"context"

	"github.com/remindx-lab/backend/config"
	"github.com/remindx-lab/backend/pkg/api/discord"
	"golang.org/x/oauth2"
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

type discordService struct {
	name     string
	config   oauth2.Config
	endpoint discord.IEndpoint
}

func NewDiscordService(cfg config.OAuth2Config, endpoint discord.IEndpoint) *discordService {
	return &discordService{
		name: cfg.Name,
		config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     discordEndpoint,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
		},
		endpoint: endpoint,
	}
}

func (s *discordService) Service() string {
	return s.name
}

func (s *discordService) AuthCodeURL(state, codeVerifier string) string {
	return authCodeURL(s.config, state, codeVerifier)
}

func (s *discordService) GetUser(ctx context.Context, accessToken string) (OAuth2User, error) {
	user, err := s.endpoint.GetMe(ctx, accessToken)
	if err != nil {
		return OAuth2User{}, err
	}

	return OAuth2User{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Avatar:   user.Avatar,
	}, nil
}

// VerifyIDToken is not supported, discord does not issue id tokens.
func (s *discordService) VerifyIDToken(ctx context.Context, rawIDToken string) (OAuth2User, error) {
	return OAuth2User{}, ErrUnsupportedMethod
}

func (s *discordService) VerifyAuthorizationCode(
	ctx context.Context, code, codeVerifier, redirectURI string,
) (OAuth2User, error) {
	token, err := exchange(ctx, s.config, code, codeVerifier, redirectURI)
	if err != nil {
		return OAuth2User{}, err
	}

	return s.GetUser(ctx, token.AccessToken)
}
