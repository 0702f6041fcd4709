package discord

type User struct {
	ID         string
	Username   string
	GlobalName string
	Email      string
	Avatar     string
}
