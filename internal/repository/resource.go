// Package repository provides PostgreSQL persistence for the access-control
// service: the resource catalog (read-only), temporary access tokens, and
// the access log.
package repository

import (
	"context"
	"database/sql"

	"github.com/lenshare/accessctl/internal/models"
)

// PostgresResourceRepository reads the protected-resource catalog from a
// PostgreSQL database. The catalog is written by the CMS, never by this
// service.
type PostgresResourceRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresResourceRepository creates a new PostgresResourceRepository
// with the given database connection.
func NewPostgresResourceRepository(db *sql.DB) *PostgresResourceRepository {
	return &PostgresResourceRepository{DB: db}
}

const resourceColumns = `id, slug, kind, is_password_protected, COALESCE(password_hash, ''), cookie_duration_days, created_at`

// GetBySlug fetches a resource by its URL slug.
// Returns sql.ErrNoRows when no resource has the slug.
func (r *PostgresResourceRepository) GetBySlug(ctx context.Context, slug string) (*models.ProtectedResource, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+resourceColumns+` FROM resources WHERE slug = $1
	`, slug)
	return scanResource(row)
}

// GetByID fetches a resource by its identifier.
// Returns sql.ErrNoRows when no resource has the ID.
func (r *PostgresResourceRepository) GetByID(ctx context.Context, id string) (*models.ProtectedResource, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+resourceColumns+` FROM resources WHERE id = $1
	`, id)
	return scanResource(row)
}

func scanResource(row *sql.Row) (*models.ProtectedResource, error) {
	var res models.ProtectedResource
	err := row.Scan(
		&res.ID,
		&res.Slug,
		&res.Kind,
		&res.IsPasswordProtected,
		&res.PasswordHash,
		&res.CookieDurationDays,
		&res.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}
