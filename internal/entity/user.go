package entity

// User is the local record of a person signed in through an identity provider. DiscordID is
// unique among users which are not soft-deleted, see migration 0001.
type User struct {
	Base
	DiscordID string `gorm:"not null;index"`
	Name      string
	Email     string
	Avatar    string
}
