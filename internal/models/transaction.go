package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types. Direction encodes the sign of the balance adjustment;
// the stored amount is always a positive magnitude.
const (
	TypeIncome  = "INCOME"
	TypeExpense = "EXPENSE"
)

// Transaction is an immutable record of one money movement. Each row created
// by the engine or the API is paired with exactly one wallet balance
// adjustment of equal magnitude in the same database transaction.
type Transaction struct {
	ID          string          `json:"id" db:"id"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Type        string          `json:"type" db:"type"`
	Description string          `json:"description" db:"description"`
	Date        time.Time       `json:"date" db:"date"`
	WalletID    string          `json:"wallet_id" db:"wallet_id"`
	CategoryID  string          `json:"category_id" db:"category_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// BalanceDelta returns the signed wallet adjustment for this movement.
func BalanceDelta(amount decimal.Decimal, txType string) decimal.Decimal {
	if txType == TypeIncome {
		return amount
	}
	return amount.Neg()
}
