package discord

import "context"

type IEndpoint interface {
	GetMe(ctx context.Context, token string) (User, error)
}
