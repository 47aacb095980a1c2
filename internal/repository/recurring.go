package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/models"
	"github.com/google/uuid"
)

const recurringColumns = `id, amount, type, description, interval, next_run, last_run, is_active, wallet_id, category_id, created_at`

// RecurringRepository persists recurring transaction instructions. The engine
// mutates rows only through FindFreshTx/AdvanceTx inside its atomic unit;
// everything else is the user-facing surface.
type RecurringRepository struct {
	db *sql.DB
}

func NewRecurringRepository(db *sql.DB) *RecurringRepository {
	return &RecurringRepository{db: db}
}

func (r *RecurringRepository) Create(rt *models.RecurringTransaction) error {
	if rt.ID == "" {
		rt.ID = uuid.New().String()
	}
	err := r.db.QueryRow(`
		INSERT INTO recurring_transactions (id, amount, type, description, interval, next_run, wallet_id, category_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		rt.ID, rt.Amount, rt.Type, rt.Description, rt.Interval, rt.NextRun, rt.WalletID, rt.CategoryID,
	).Scan(&rt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create recurring transaction: %w", err)
	}
	rt.IsActive = true
	return nil
}

// FindDue returns every active instruction whose next_run is at or before
// asOf. The result is a snapshot: each job is re-read under lock before
// execution.
func (r *RecurringRepository) FindDue(asOf time.Time) ([]models.RecurringTransaction, error) {
	rows, err := r.db.Query(`
		SELECT `+recurringColumns+`
		FROM recurring_transactions
		WHERE is_active = TRUE AND next_run <= $1`, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query due recurring transactions: %w", err)
	}
	defer rows.Close()

	return scanRecurringRows(rows)
}

// FindFreshTx re-reads one instruction inside tx with a row lock. This is the
// freshness check that makes execution idempotent: a concurrent tick that
// already advanced or deactivated the row is visible here. Returns
// ErrNotFound when the row no longer exists.
func (r *RecurringRepository) FindFreshTx(tx *sql.Tx, id string) (*models.RecurringTransaction, error) {
	var rt models.RecurringTransaction
	err := tx.QueryRow(`
		SELECT `+recurringColumns+`
		FROM recurring_transactions
		WHERE id = $1
		FOR UPDATE`, id).Scan(
		&rt.ID, &rt.Amount, &rt.Type, &rt.Description, &rt.Interval,
		&rt.NextRun, &rt.LastRun, &rt.IsActive, &rt.WalletID, &rt.CategoryID, &rt.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to re-read recurring transaction %s: %w", id, err)
	}
	return &rt, nil
}

// AdvanceTx moves the schedule forward after a successful occurrence. Must be
// called on the same tx as the ledger mutation for that occurrence.
func (r *RecurringRepository) AdvanceTx(tx *sql.Tx, id string, lastRun, nextRun time.Time) error {
	result, err := tx.Exec(`
		UPDATE recurring_transactions
		SET last_run = $1, next_run = $2
		WHERE id = $3`, lastRun, nextRun, id)
	if err != nil {
		return fmt.Errorf("failed to advance recurring transaction %s: %w", id, err)
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

// Deactivate soft-cancels an instruction. Scoped to the owner through the
// wallet join; returns ErrNotFound when the id does not exist or belongs to
// someone else.
func (r *RecurringRepository) Deactivate(id, userID string) error {
	result, err := r.db.Exec(`
		UPDATE recurring_transactions rt
		SET is_active = FALSE
		FROM wallets w
		WHERE rt.id = $1 AND rt.wallet_id = w.id AND w.user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate recurring transaction %s: %w", id, err)
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

func (r *RecurringRepository) ListByOwner(userID string) ([]models.RecurringTransaction, error) {
	rows, err := r.db.Query(`
		SELECT rt.id, rt.amount, rt.type, rt.description, rt.interval, rt.next_run,
		       rt.last_run, rt.is_active, rt.wallet_id, rt.category_id, rt.created_at
		FROM recurring_transactions rt
		JOIN wallets w ON w.id = rt.wallet_id
		WHERE w.user_id = $1
		ORDER BY rt.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list recurring transactions: %w", err)
	}
	defer rows.Close()

	return scanRecurringRows(rows)
}

func scanRecurringRows(rows *sql.Rows) ([]models.RecurringTransaction, error) {
	var list []models.RecurringTransaction
	for rows.Next() {
		var rt models.RecurringTransaction
		if err := rows.Scan(
			&rt.ID, &rt.Amount, &rt.Type, &rt.Description, &rt.Interval,
			&rt.NextRun, &rt.LastRun, &rt.IsActive, &rt.WalletID, &rt.CategoryID, &rt.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan recurring transaction: %w", err)
		}
		list = append(list, rt)
	}
	return list, rows.Err()
}
