package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/fintrack/backend/internal/models"
	"github.com/google/uuid"
)

// TokenRepository stores issued refresh tokens. Rows accumulate until the
// daily cleanup job purges expired and revoked entries.
type TokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

func (r *TokenRepository) Create(t *models.RefreshToken) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	err := r.db.QueryRow(`
		INSERT INTO refresh_tokens (id, token, user_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		t.ID, t.Token, t.UserID, t.ExpiresAt,
	).Scan(&t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// FindByToken returns the stored token row together with the holder's role,
// which the refresh flow needs to mint a new access token.
func (r *TokenRepository) FindByToken(token string) (*models.RefreshToken, string, error) {
	var t models.RefreshToken
	var role string
	err := r.db.QueryRow(`
		SELECT rt.id, rt.token, rt.user_id, rt.expires_at, rt.revoked, rt.created_at, u.role
		FROM refresh_tokens rt
		JOIN users u ON u.id = rt.user_id
		WHERE rt.token = $1`, token).
		Scan(&t.ID, &t.Token, &t.UserID, &t.ExpiresAt, &t.Revoked, &t.CreatedAt, &role)
	if err == sql.ErrNoRows {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up refresh token: %w", err)
	}
	return &t, role, nil
}

func (r *TokenRepository) Revoke(id string) error {
	result, err := r.db.Exec(`
		UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token %s: %w", id, err)
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

// DeleteExpired removes tokens that are past their expiry or were revoked.
// Returns the number of purged rows for the cleanup job's log line.
func (r *TokenRepository) DeleteExpired(asOf time.Time) (int64, error) {
	result, err := r.db.Exec(`
		DELETE FROM refresh_tokens WHERE expires_at < $1 OR revoked = TRUE`, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	return result.RowsAffected()
}
