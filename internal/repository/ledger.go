package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerRepository creates transaction records. Every insert is paired with
// the wallet balance adjustment in the same database transaction; the balance
// is never written through any other path.
type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// CreateWithBalanceUpdate runs the atomic insert-and-adjust in its own
// transaction. Used by the one-off transaction endpoint.
func (r *LedgerRepository) CreateWithBalanceUpdate(walletID, categoryID string, amount decimal.Decimal, txType string, occurredAt time.Time, description string) (*models.Transaction, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	created, err := r.CreateWithBalanceUpdateTx(tx, walletID, categoryID, amount, txType, occurredAt, description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return created, nil
}

// CreateWithBalanceUpdateTx inserts the ledger row and applies the signed
// balance delta on the caller's tx. If either statement fails the caller's
// rollback undoes both.
func (r *LedgerRepository) CreateWithBalanceUpdateTx(tx *sql.Tx, walletID, categoryID string, amount decimal.Decimal, txType string, occurredAt time.Time, description string) (*models.Transaction, error) {
	created := &models.Transaction{
		ID:          uuid.New().String(),
		Amount:      amount,
		Type:        txType,
		Description: description,
		Date:        occurredAt,
		WalletID:    walletID,
		CategoryID:  categoryID,
	}

	err := tx.QueryRow(`
		INSERT INTO transactions (id, amount, type, description, date, wallet_id, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		created.ID, created.Amount, created.Type, created.Description,
		created.Date, created.WalletID, created.CategoryID,
	).Scan(&created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	delta := models.BalanceDelta(amount, txType)
	result, err := tx.Exec(`
		UPDATE wallets SET balance = balance + $1 WHERE id = $2`, delta, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust wallet balance: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, fmt.Errorf("wallet %s not found for balance adjustment", walletID)
	}

	return created, nil
}

// TransactionFilter narrows List/Count. Zero values mean "no filter".
type TransactionFilter struct {
	WalletID  string
	StartDate time.Time
	EndDate   time.Time
	Limit     int
	Offset    int
}

// List returns a page of the owner's transactions, newest first.
func (r *LedgerRepository) List(userID string, filter TransactionFilter) ([]models.Transaction, error) {
	query := `
		SELECT t.id, t.amount, t.type, t.description, t.date, t.wallet_id, t.category_id, t.created_at
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1`
	args := []any{userID}
	query, args = applyTransactionFilter(query, args, filter)
	query += fmt.Sprintf(" ORDER BY t.date DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
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

// Count returns the total matching rows for pagination metadata.
func (r *LedgerRepository) Count(userID string, filter TransactionFilter) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = $1`
	args := []any{userID}
	query, args = applyTransactionFilter(query, args, filter)

	var total int
	if err := r.db.QueryRow(query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	return total, nil
}

func applyTransactionFilter(query string, args []any, filter TransactionFilter) (string, []any) {
	if filter.WalletID != "" {
		args = append(args, filter.WalletID)
		query += fmt.Sprintf(" AND t.wallet_id = $%d", len(args))
	}
	if !filter.StartDate.IsZero() && !filter.EndDate.IsZero() {
		args = append(args, filter.StartDate)
		query += fmt.Sprintf(" AND t.date >= $%d", len(args))
		args = append(args, filter.EndDate)
		query += fmt.Sprintf(" AND t.date <= $%d", len(args))
	}
	return query, args
}
