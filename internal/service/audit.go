package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lenshare/accessctl/internal/models"
	"go.uber.org/zap"
)

// Log query bounds.
const (
	minLogLimit     = 1
	maxLogLimit     = 100
	defaultLogLimit = 50
)

// AccessLogRepository defines the persistence operations required by the
// auditor.
type AccessLogRepository interface {
	// Insert appends one access-log entry.
	Insert(ctx context.Context, entry models.AccessLogEntry) error
	// ListByResource fetches the newest entries, newest first, capped at limit.
	ListByResource(ctx context.Context, resourceID string, limit int) ([]models.AccessLogEntry, error)
}

// Auditor writes and reads the append-only access log. Writes are
// best-effort: a failed audit write is logged server-side but never fails
// the access decision that triggered it.
type Auditor struct {
	logs AccessLogRepository
	log  *zap.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewAuditor constructs an Auditor.
func NewAuditor(logs AccessLogRepository, log *zap.Logger) *Auditor {
	return &Auditor{logs: logs, log: log, now: time.Now}
}

// Record appends one entry for an access decision. The write completes
// before Record returns, but its failure is swallowed after logging.
func (a *Auditor) Record(ctx context.Context, resourceID string, accessType models.AccessType, ip, userAgent string) {
	entry := models.AccessLogEntry{
		ID:         uuid.NewString(),
		ResourceID: resourceID,
		AccessType: accessType,
		IPAddress:  ip,
		UserAgent:  userAgent,
		AccessedAt: a.now(),
	}
	if err := a.logs.Insert(ctx, entry); err != nil {
		a.log.Error("access log write failed",
			zap.String("resource_id", resourceID),
			zap.String("access_type", string(accessType)),
			zap.Error(err),
		)
	}
}

// List returns the newest entries for a resource, newest first. The limit
// is clamped to [1,100]; zero or negative values fall back to the default.
func (a *Auditor) List(ctx context.Context, resourceID string, limit int) ([]models.AccessLogEntry, error) {
	if resourceID == "" {
		return nil, ErrInvalidRequest
	}
	if limit <= 0 {
		limit = defaultLogLimit
	}
	limit = clamp(limit, minLogLimit, maxLogLimit)

	entries, err := a.logs.ListByResource(ctx, resourceID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return entries, nil
}
