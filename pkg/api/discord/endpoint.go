package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/puzpuzpuz/xsync"
	"github.com/remindx-lab/backend/pkg/api"
	"github.com/remindx-lab/backend/pkg/crypto"
	"golang.org/x/time/rate"
)

const apiURL = "https://discord.com/api"
const userAgent = "DiscordBot (https://remindx.app, 1.0)"

// Discord allows 50 requests per second for an application.
const globalRequestsPerSecond = 50

const getMeResource = "get_me"

type Endpoint struct {
	apiGenerator      api.Generator
	limiter           *rate.Limiter
	rateLimitResource *xsync.MapOf[string, *xsync.MapOf[string, time.Time]]
}

func New() *Endpoint {
	return &Endpoint{
		apiGenerator:      api.NewGenerator(apiURL),
		limiter:           rate.NewLimiter(globalRequestsPerSecond, globalRequestsPerSecond),
		rateLimitResource: xsync.NewMapOf[*xsync.MapOf[string, time.Time]](),
	}
}

// GetMe returns the user who owns the oauth2 access token.
func (e *Endpoint) GetMe(ctx context.Context, token string) (User, error) {
	// Rate limits of /users/@me are per token.
	identifier := crypto.SHA256([]byte(token))
	if err := e.checkLimitingResource(getMeResource, identifier); err != nil {
		return User{}, err
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return User{}, err
	}

	resp, err := e.apiGenerator.New("/users/@me").
		Header("User-Agent", userAgent).
		GET(ctx, api.OAuth2("Bearer", token))
	if err != nil {
		return User{}, err
	}

	if err := e.checkTooManyRequest(resp, getMeResource, identifier); err != nil {
		return User{}, err
	}

	body, ok := resp.Body.(api.JSON)
	if !ok {
		return User{}, errors.New("invalid response")
	}

	if resp.Code != http.StatusOK {
		code, _ := body.GetInt("code")
		message, _ := body.GetString("message")
		return User{}, fmt.Errorf("discord returned %d (code %d): %s", resp.Code, code, message)
	}

	id, err := body.GetString("id")
	if err != nil {
		return User{}, err
	}

	if id == "" {
		return User{}, errors.New("empty user id")
	}

	user := User{ID: id}
	if user.Username, err = body.GetString("username"); err != nil {
		return User{}, err
	}

	// The following fields are optional or depend on the granted scopes.
	user.GlobalName, _ = body.GetString("global_name")
	user.Email, _ = body.GetString("email")
	user.Avatar, _ = body.GetString("avatar")

	return user, nil
}

func (e *Endpoint) checkLimitingResource(resource, identifier string) error {
	if limit, ok := e.rateLimitResource.Load(resource); ok {
		if resetAt, ok := limit.Load(identifier); ok {
			if resetAt.After(time.Now()) {
				return wrapRateLimit(resetAt)
			}

			// If the rate limit is reset, delete the limit for this resource.
			limit.Delete(identifier)
		}
	}

	return nil
}

func (e *Endpoint) checkTooManyRequest(resp *api.Response, resource, identifier string) error {
	if resp.Code == http.StatusTooManyRequests {
		resetAt, err := parseResetAt(resp.Header, time.Now())
		if err != nil {
			return err
		}

		resourceLimiter, _ := e.rateLimitResource.LoadOrStore(resource, xsync.NewMapOf[time.Time]())
		resourceLimiter.Store(identifier, resetAt)
		return wrapRateLimit(resetAt)
	}

	return nil
}
