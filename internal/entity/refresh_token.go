package entity

import "time"

// RefreshToken is a ledger row of an issued refresh token. Rows are never deleted, a rotated or
// revoked token keeps its row with Revoked set so that a replay can be detected.
type RefreshToken struct {
	// ID is the unique id (jti) of the token.
	ID     string `gorm:"primarykey"`
	UserID string `gorm:"not null;index"`
	User   User   `gorm:"foreignKey:UserID"`

	// Token is the digest of the signed token, never the token itself.
	Token     string `gorm:"not null;uniqueIndex"`
	Revoked   bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	RevokedAt *time.Time
}
