package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lenshare/accessctl/internal/models"
)

// PostgresTokenRepository implements temporary-access-token persistence
// against a PostgreSQL database.
type PostgresTokenRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresTokenRepository creates a new PostgresTokenRepository using
// the provided *sql.DB.
func NewPostgresTokenRepository(db *sql.DB) *PostgresTokenRepository {
	return &PostgresTokenRepository{DB: db}
}

// Insert persists a freshly issued token.
func (r *PostgresTokenRepository) Insert(ctx context.Context, token models.TempAccessToken) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO temp_access_tokens (token, resource_id, expires_at, max_uses, uses_remaining, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, token.Token, token.ResourceID, token.ExpiresAt, token.MaxUses, token.UsesRemaining, token.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetByToken fetches a token record without consuming a use.
// Returns sql.ErrNoRows when the token does not exist.
func (r *PostgresTokenRepository) GetByToken(ctx context.Context, token string) (*models.TempAccessToken, error) {
	var t models.TempAccessToken
	err := r.DB.QueryRowContext(ctx, `
		SELECT token, resource_id, expires_at, max_uses, uses_remaining, created_at
		  FROM temp_access_tokens WHERE token = $1
	`, token).Scan(&t.Token, &t.ResourceID, &t.ExpiresAt, &t.MaxUses, &t.UsesRemaining, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Redeem atomically consumes one use of the token and returns the ID of
// the resource it grants access to. The conditional update is the guard
// against two requests racing to spend the last remaining use: only the
// request whose UPDATE matches a row wins.
//
// Returns ok=false when the token is missing, expired, or exhausted.
func (r *PostgresTokenRepository) Redeem(ctx context.Context, token string) (resourceID string, ok bool, err error) {
	err = r.DB.QueryRowContext(ctx, `
		UPDATE temp_access_tokens
		   SET uses_remaining = uses_remaining - 1
		 WHERE token = $1
		   AND uses_remaining > 0
		   AND expires_at > now()
		RETURNING resource_id
	`, token).Scan(&resourceID)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redeem token: %w", err)
	}
	return resourceID, true, nil
}
