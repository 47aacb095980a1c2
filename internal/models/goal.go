package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Goal struct {
	ID            string          `json:"id" db:"id"`
	UserID        string          `json:"user_id" db:"user_id"`
	Name          string          `json:"name" db:"name" example:"Emergency fund"`
	TargetAmount  decimal.Decimal `json:"target_amount" db:"target_amount"`
	CurrentAmount decimal.Decimal `json:"current_amount" db:"current_amount"`
	Deadline      *time.Time      `json:"deadline,omitempty" db:"deadline"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
}
