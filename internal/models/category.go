package models

import "time"

type Category struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name" example:"Groceries"`
	Type      string    `json:"type" db:"type" example:"EXPENSE"` // INCOME or EXPENSE
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
