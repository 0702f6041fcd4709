package testutil

import (
	"context"

	"github.com/remindx-lab/backend/internal/entity"
	"github.com/remindx-lab/backend/pkg/xcontext"
)

var (
	User1 = &entity.User{
		Base:      entity.Base{ID: "user1"},
		DiscordID: "discord1",
		Name:      "user1",
		Email:     "user1@example.com",
		Avatar:    "avatar1",
	}

	User2 = &entity.User{
		Base:      entity.Base{ID: "user2"},
		DiscordID: "discord2",
		Name:      "user2",
		Email:     "user2@example.com",
		Avatar:    "avatar2",
	}

	Users = []*entity.User{User1, User2}
)

// CreateFixtureContext returns a MockContext whose database already contains Users.
func CreateFixtureContext() context.Context {
	ctx := MockContext()
	InsertUsers(ctx)
	return ctx
}

func InsertUsers(ctx context.Context) {
	for _, u := range Users {
		// Insert a copy, gorm writes the timestamps back into the value.
		user := *u
		if err := xcontext.DB(ctx).Create(&user).Error; err != nil {
			panic(err)
		}
	}
}
