package ratelimit

import (
	"context"
	"sync"
	"time"
)

type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a mutex-guarded fixed-window limiter for single-process
// deployments.
type MemoryLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	buckets map[string]*bucket
	stopCh  chan struct{}
	now     func() time.Time
}

// NewMemoryLimiter creates a limiter allowing max failures per window.
// A background loop drops expired buckets; call Stop to end it.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	l := &MemoryLimiter{
		max:     max,
		window:  window,
		buckets: make(map[string]*bucket),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}
	go l.cleanupLoop()
	return l
}

// Allow reports whether another attempt is permitted for key. It never
// mutates the counter.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok || l.now().After(b.resetAt) {
		return true, nil
	}
	return b.count < l.max, nil
}

// RecordFailure counts one failed attempt against key, starting a new
// window if the previous one has expired.
func (l *MemoryLimiter) RecordFailure(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		l.buckets[key] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return nil
	}
	b.count++
	return nil
}

// Stop ends the background cleanup loop.
func (l *MemoryLimiter) Stop() {
	close(l.stopCh)
}

func (l *MemoryLimiter) cleanupLoop() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.mu.Lock()
			now := l.now()
			for key, b := range l.buckets {
				if now.After(b.resetAt) {
					delete(l.buckets, key)
				}
			}
			l.mu.Unlock()
		}
	}
}
