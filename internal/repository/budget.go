package repository

import (
	"database/sql"
	"fmt"

	"github.com/fintrack/backend/internal/models"
	"github.com/google/uuid"
)

type BudgetRepository struct {
	db *sql.DB
}

func NewBudgetRepository(db *sql.DB) *BudgetRepository {
	return &BudgetRepository{db: db}
}

// Upsert creates or replaces the budget for (user, category, month, year).
func (r *BudgetRepository) Upsert(b *models.Budget) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	err := r.db.QueryRow(`
		INSERT INTO budgets (id, user_id, category_id, amount, month, year)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, category_id, month, year)
		DO UPDATE SET amount = EXCLUDED.amount
		RETURNING id, created_at`,
		b.ID, b.UserID, b.CategoryID, b.Amount, b.Month, b.Year,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert budget: %w", err)
	}
	return nil
}

// BudgetFilter narrows List/Count; zero month/year mean "all".
type BudgetFilter struct {
	Month  int
	Year   int
	Limit  int
	Offset int
}

func (r *BudgetRepository) List(userID string, filter BudgetFilter) ([]models.Budget, error) {
	query := `
		SELECT id, user_id, category_id, amount, month, year, created_at
		FROM budgets WHERE user_id = $1`
	args := []any{userID}
	query, args = applyBudgetFilter(query, args, filter)
	query += fmt.Sprintf(" ORDER BY year DESC, month DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		var b models.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.CategoryID, &b.Amount, &b.Month, &b.Year, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *BudgetRepository) Count(userID string, filter BudgetFilter) (int, error) {
	query := `SELECT COUNT(*) FROM budgets WHERE user_id = $1`
	args := []any{userID}
	query, args = applyBudgetFilter(query, args, filter)

	var total int
	if err := r.db.QueryRow(query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count budgets: %w", err)
	}
	return total, nil
}

func applyBudgetFilter(query string, args []any, filter BudgetFilter) (string, []any) {
	if filter.Month != 0 {
		args = append(args, filter.Month)
		query += fmt.Sprintf(" AND month = $%d", len(args))
	}
	if filter.Year != 0 {
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	return query, args
}
