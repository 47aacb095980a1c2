package database

import (
	"database/sql"
	"fmt"
	"log"
)

// EnsureSchema creates all tables if they do not exist yet. Statements are
// idempotent so every instance can run this at startup.
func EnsureSchema(db *sql.DB) error {
	log.Println("Ensuring database schema")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'USER',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS wallets (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			balance NUMERIC(14,2) NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id UUID PRIMARY KEY,
			amount NUMERIC(14,2) NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date TIMESTAMPTZ NOT NULL,
			wallet_id UUID NOT NULL REFERENCES wallets(id),
			category_id UUID NOT NULL REFERENCES categories(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS recurring_transactions (
			id UUID PRIMARY KEY,
			amount NUMERIC(14,2) NOT NULL,
			type TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			interval TEXT NOT NULL,
			next_run TIMESTAMPTZ NOT NULL,
			last_run TIMESTAMPTZ,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			wallet_id UUID NOT NULL REFERENCES wallets(id),
			category_id UUID NOT NULL REFERENCES categories(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recurring_due
			ON recurring_transactions (next_run) WHERE is_active`,
		`CREATE TABLE IF NOT EXISTS budgets (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			category_id UUID NOT NULL REFERENCES categories(id),
			amount NUMERIC(14,2) NOT NULL,
			month INT NOT NULL,
			year INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, category_id, month, year)
		)`,
		`CREATE TABLE IF NOT EXISTS goals (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			name TEXT NOT NULL,
			target_amount NUMERIC(14,2) NOT NULL,
			current_amount NUMERIC(14,2) NOT NULL DEFAULT 0,
			deadline TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id UUID PRIMARY KEY,
			token TEXT NOT NULL UNIQUE,
			user_id UUID NOT NULL REFERENCES users(id),
			expires_at TIMESTAMPTZ NOT NULL,
			revoked BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	return nil
}
