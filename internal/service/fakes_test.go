package service

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/lenshare/accessctl/internal/models"
)

// fakeResources serves a fixed catalog keyed by slug and ID.
type fakeResources struct {
	mu        sync.Mutex
	resources []*models.ProtectedResource
	calls     int
}

func (f *fakeResources) GetBySlug(_ context.Context, slug string) (*models.ProtectedResource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, r := range f.resources {
		if r.Slug == slug {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeResources) GetByID(_ context.Context, id string) (*models.ProtectedResource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	for _, r := range f.resources {
		if r.ID == id {
			cp := *r
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

// fakeTokens stores tokens in a map and implements the same conditional
// decrement the Postgres repository performs in one statement.
type fakeTokens struct {
	mu     sync.Mutex
	tokens map[string]*models.TempAccessToken
	now    func() time.Time
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{tokens: make(map[string]*models.TempAccessToken), now: time.Now}
}

func (f *fakeTokens) Insert(_ context.Context, token models.TempAccessToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := token
	f.tokens[token.Token] = &cp
	return nil
}

func (f *fakeTokens) GetByToken(_ context.Context, token string) (*models.TempAccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTokens) Redeem(_ context.Context, token string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[token]
	if !ok || t.UsesRemaining <= 0 || !f.now().Before(t.ExpiresAt) {
		return "", false, nil
	}
	t.UsesRemaining--
	return t.ResourceID, true, nil
}

// fakeLogs is an in-memory append-only log.
type fakeLogs struct {
	mu      sync.Mutex
	entries []models.AccessLogEntry
}

func (f *fakeLogs) Insert(_ context.Context, entry models.AccessLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeLogs) ListByResource(_ context.Context, resourceID string, limit int) ([]models.AccessLogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AccessLogEntry
	for i := len(f.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if f.entries[i].ResourceID == resourceID {
			out = append(out, f.entries[i])
		}
	}
	return out, nil
}

func (f *fakeLogs) byType(accessType models.AccessType) []models.AccessLogEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AccessLogEntry
	for _, e := range f.entries {
		if e.AccessType == accessType {
			out = append(out, e)
		}
	}
	return out
}

func (f *fakeLogs) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

// fakeLimiter records interactions so tests can assert the limiter was or
// was not consulted.
type fakeLimiter struct {
	mu         sync.Mutex
	allowed    bool
	allowCalls int
	failures   []string
}

func (f *fakeLimiter) Allow(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.allowCalls++
	return f.allowed, nil
}

func (f *fakeLimiter) RecordFailure(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = append(f.failures, key)
	return nil
}

func (f *fakeLimiter) failureCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.failures)
}
