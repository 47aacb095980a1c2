package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a monthly spending cap per category. One row per
// (user, category, month, year).
type Budget struct {
	ID         string          `json:"id" db:"id"`
	UserID     string          `json:"user_id" db:"user_id"`
	CategoryID string          `json:"category_id" db:"category_id"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Month      int             `json:"month" db:"month" example:"2"`
	Year       int             `json:"year" db:"year" example:"2024"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
}
