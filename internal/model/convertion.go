package model

import "github.com/remindx-lab/backend/internal/entity"

// ConvertUser hides the email unless includeSensitive is set.
func ConvertUser(user *entity.User, includeSensitive bool) User {
	if user == nil {
		return User{}
	}

	u := User{
		ID:        user.ID,
		DiscordID: user.DiscordID,
		Name:      user.Name,
		Avatar:    user.Avatar,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}

	if includeSensitive {
		u.Email = user.Email
	}

	return u
}
