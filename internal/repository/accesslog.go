package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lenshare/accessctl/internal/models"
)

// PostgresAccessLogRepository implements append-only access-log persistence
// against a PostgreSQL database.
type PostgresAccessLogRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresAccessLogRepository creates a new PostgresAccessLogRepository
// using the provided *sql.DB.
func NewPostgresAccessLogRepository(db *sql.DB) *PostgresAccessLogRepository {
	return &PostgresAccessLogRepository{DB: db}
}

// Insert appends one access-log entry. Entries are never updated or
// deleted here; retention is the cleaner's job.
func (r *PostgresAccessLogRepository) Insert(ctx context.Context, entry models.AccessLogEntry) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO access_logs (id, resource_id, access_type, ip_address, user_agent, accessed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, entry.ID, entry.ResourceID, entry.AccessType, entry.IPAddress, entry.UserAgent, entry.AccessedAt)
	if err != nil {
		return fmt.Errorf("insert access log: %w", err)
	}
	return nil
}

// ListByResource fetches the newest entries for a resource, newest first,
// capped at limit.
func (r *PostgresAccessLogRepository) ListByResource(ctx context.Context, resourceID string, limit int) ([]models.AccessLogEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, resource_id, access_type, COALESCE(ip_address, ''), COALESCE(user_agent, ''), accessed_at
		  FROM access_logs
		 WHERE resource_id = $1
		 ORDER BY accessed_at DESC
		 LIMIT $2
	`, resourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("list access logs: %w", err)
	}
	defer rows.Close()

	var entries []models.AccessLogEntry
	for rows.Next() {
		var e models.AccessLogEntry
		if err := rows.Scan(&e.ID, &e.ResourceID, &e.AccessType, &e.IPAddress, &e.UserAgent, &e.AccessedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list access logs: %w", err)
	}
	return entries, nil
}
