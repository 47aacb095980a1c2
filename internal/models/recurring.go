package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecurringTransaction is a standing instruction to repeat a money movement.
// NextRun always points at the earliest occurrence not yet executed; once
// IsActive is false the row is never selected as due again. The engine is the
// only writer of NextRun/LastRun; cancellation is a soft-deactivate, the row
// is never deleted.
type RecurringTransaction struct {
	ID          string          `json:"id" db:"id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"` // positive magnitude, Type carries the sign
	Type        string          `json:"type" db:"type"`
	Description string          `json:"description" db:"description"`
	Interval    string          `json:"interval" db:"interval"` // five-field cron expression
	NextRun     time.Time       `json:"next_run" db:"next_run"`
	LastRun     *time.Time      `json:"last_run" db:"last_run"`
	IsActive    bool            `json:"is_active" db:"is_active"`
	WalletID    string          `json:"wallet_id" db:"wallet_id"`
	CategoryID  string          `json:"category_id" db:"category_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}
