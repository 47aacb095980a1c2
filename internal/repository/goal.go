package repository

import (
	"database/sql"
	"fmt"

	"github.com/fintrack/backend/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type GoalRepository struct {
	db *sql.DB
}

func NewGoalRepository(db *sql.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

func (r *GoalRepository) Create(g *models.Goal) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	err := r.db.QueryRow(`
		INSERT INTO goals (id, user_id, name, target_amount, deadline)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING current_amount, created_at`,
		g.ID, g.UserID, g.Name, g.TargetAmount, g.Deadline,
	).Scan(&g.CurrentAmount, &g.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create goal: %w", err)
	}
	return nil
}

func (r *GoalRepository) FindByID(id string) (*models.Goal, error) {
	var g models.Goal
	err := r.db.QueryRow(`
		SELECT id, user_id, name, target_amount, current_amount, deadline, created_at
		FROM goals WHERE id = $1`, id).
		Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Deadline, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find goal %s: %w", id, err)
	}
	return &g, nil
}

// AddFunds increments the saved amount and returns the updated row.
func (r *GoalRepository) AddFunds(id string, amount decimal.Decimal) (*models.Goal, error) {
	var g models.Goal
	err := r.db.QueryRow(`
		UPDATE goals SET current_amount = current_amount + $1
		WHERE id = $2
		RETURNING id, user_id, name, target_amount, current_amount, deadline, created_at`,
		amount, id).
		Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Deadline, &g.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to add funds to goal %s: %w", id, err)
	}
	return &g, nil
}

func (r *GoalRepository) ListByUser(userID string) ([]models.Goal, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, name, target_amount, current_amount, deadline, created_at
		FROM goals WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var g models.Goal
		if err := rows.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount, &g.CurrentAmount, &g.Deadline, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}
