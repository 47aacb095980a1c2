package repository

import (
	"database/sql"
	"fmt"

	"github.com/fintrack/backend/internal/models"
	"github.com/google/uuid"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(c *models.Category) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	err := r.db.QueryRow(`
		INSERT INTO categories (id, user_id, name, type)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		c.ID, c.UserID, c.Name, c.Type,
	).Scan(&c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *CategoryRepository) FindByID(id string) (*models.Category, error) {
	var c models.Category
	err := r.db.QueryRow(`
		SELECT id, user_id, name, type, created_at
		FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category %s: %w", id, err)
	}
	return &c, nil
}

func (r *CategoryRepository) ListByUser(userID string) ([]models.Category, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, name, type, created_at
		FROM categories WHERE user_id = $1
		ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) Update(id, userID, name string) error {
	result, err := r.db.Exec(`
		UPDATE categories SET name = $1 WHERE id = $2 AND user_id = $3`,
		name, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update category %s: %w", id, err)
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

func (r *CategoryRepository) Delete(id, userID string) error {
	result, err := r.db.Exec(`
		DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
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
