package models

import "time"

// RefreshToken is one issued refresh credential. Tokens are rotated on use
// (old row revoked, new row created) and purged by the daily cleanup job once
// expired or revoked.
type RefreshToken struct {
	ID        string    `json:"id" db:"id"`
	Token     string    `json:"token" db:"token"`
	UserID    string    `json:"user_id" db:"user_id"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Revoked   bool      `json:"revoked" db:"revoked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
