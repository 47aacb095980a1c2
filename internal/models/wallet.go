package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Wallet struct {
	ID        string          `json:"id" db:"id"`
	UserID    string          `json:"user_id" db:"user_id"`
	Name      string          `json:"name" db:"name" example:"Checking"`
	Balance   decimal.Decimal `json:"balance" db:"balance"` // running total, mutated only with a transaction insert
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}
