package models

import "time"

type User struct {
	ID        string    `json:"id" db:"id" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"` // User ID
	Name      string    `json:"name" db:"name" example:"John Doe"`                         // Display name
	Email     string    `json:"email" db:"email" example:"user@example.com"`               // User email
	Password  string    `json:"-" db:"password"`                                           // Argon2 hash, never serialized
	Role      string    `json:"role" db:"role" example:"USER"`                             // USER or ADMIN
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
