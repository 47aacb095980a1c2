package repository

import (
	"database/sql"
	"fmt"

	"github.com/fintrack/backend/internal/models"
	"github.com/google/uuid"
)

type WalletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(w *models.Wallet) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	err := r.db.QueryRow(`
		INSERT INTO wallets (id, user_id, name, balance)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		w.ID, w.UserID, w.Name, w.Balance,
	).Scan(&w.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *WalletRepository) FindByID(id string) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.QueryRow(`
		SELECT id, user_id, name, balance, created_at
		FROM wallets WHERE id = $1`, id).
		Scan(&w.ID, &w.UserID, &w.Name, &w.Balance, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find wallet %s: %w", id, err)
	}
	return &w, nil
}

func (r *WalletRepository) FindAllByUser(userID string) ([]models.Wallet, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, name, balance, created_at
		FROM wallets WHERE user_id = $1
		ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		var w models.Wallet
		if err := rows.Scan(&w.ID, &w.UserID, &w.Name, &w.Balance, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet: %w", err)
		}
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

// RecentTransactions returns the wallet's latest movements, newest first.
func (r *WalletRepository) RecentTransactions(walletID string, limit int) ([]models.Transaction, error) {
	rows, err := r.db.Query(`
		SELECT id, amount, type, description, date, wallet_id, category_id, created_at
		FROM transactions
		WHERE wallet_id = $1
		ORDER BY date DESC
		LIMIT $2`, walletID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent transactions: %w", err)
	}
	defer rows.Close()

	var list []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.Amount, &t.Type, &t.Description, &t.Date,
			&t.WalletID, &t.CategoryID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *WalletRepository) UpdateName(id, userID, name string) error {
	result, err := r.db.Exec(`
		UPDATE wallets SET name = $1 WHERE id = $2 AND user_id = $3`,
		name, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update wallet %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *WalletRepository) Delete(id, userID string) error {
	result, err := r.db.Exec(`
		DELETE FROM wallets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete wallet %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
