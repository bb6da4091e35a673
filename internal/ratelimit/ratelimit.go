// Package ratelimit provides fixed-window failure counters used to slow
// down password guessing against protected resources.
package ratelimit

import "context"

// Limiter counts failed password attempts per key (resource slug) within
// a fixed window. Checking is read-only; RecordFailure is the only
// mutator. A successful password check never resets the counter; the
// window expiring is the only reset path.
type Limiter interface {
	// Allow reports whether another password attempt is permitted for key.
	Allow(ctx context.Context, key string) (bool, error)
	// RecordFailure counts one failed attempt against key.
	RecordFailure(ctx context.Context, key string) error
}
