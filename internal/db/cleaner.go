package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartTokenCleaner purges dead temporary tokens and stale access-log rows
// with interval. Tokens are dead once expired or exhausted; access logs are
// kept for the retention period and then dropped.
func StartTokenCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				res, err := db.ExecContext(ctx, `
                    DELETE FROM temp_access_tokens
                     WHERE expires_at <= now()
                        OR uses_remaining <= 0
                `)
				if err != nil {
					log.Error("failed to clean dead temp tokens", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned dead temp tokens", zap.Int64("removed", rows))
				}

				cutoff := time.Now().Add(-retention)
				res, err = db.ExecContext(ctx, `
                    DELETE FROM access_logs
                     WHERE accessed_at < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to clean old access logs", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned old access logs", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
