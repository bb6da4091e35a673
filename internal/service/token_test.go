package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lenshare/accessctl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTokenFixture(t *testing.T) (*TokenService, *fakeTokens, *fakeLogs) {
	t.Helper()
	resources := &fakeResources{resources: []*models.ProtectedResource{
		{ID: "R1", Slug: "summer-wedding", Kind: models.KindGallery, IsPasswordProtected: true, PasswordHash: "x"},
	}}
	tokens := newFakeTokens()
	logs := &fakeLogs{}
	svc := NewTokenService(tokens, resources, NewAuditor(logs, zap.NewNop()))
	return svc, tokens, logs
}

func TestIssue_GeneratesUnguessableToken(t *testing.T) {
	svc, _, logs := newTokenFixture(t)

	a, err := svc.Issue(context.Background(), "R1", 24, 1)
	require.NoError(t, err)
	b, err := svc.Issue(context.Background(), "R1", 24, 1)
	require.NoError(t, err)

	assert.Len(t, a.Token, 32)
	assert.NotEqual(t, a.Token, b.Token)
	assert.Equal(t, 1, a.MaxUses)
	assert.Equal(t, 1, a.UsesRemaining)
	// Issuance is not an access.
	assert.Equal(t, 0, logs.count())
}

func TestIssue_ClampsBounds(t *testing.T) {
	svc, _, _ := newTokenFixture(t)

	tests := []struct {
		name      string
		hours     int
		uses      int
		wantHours int
		wantUses  int
	}{
		{"below minimum", 0, 0, 1, 1},
		{"negative", -5, -5, 1, 1},
		{"above maximum", 1000, 1000, 168, 100},
		{"in range", 24, 5, 24, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := time.Now()
			token, err := svc.Issue(context.Background(), "R1", tt.hours, tt.uses)
			require.NoError(t, err)
			assert.Equal(t, tt.wantUses, token.MaxUses)
			wantExpiry := start.Add(time.Duration(tt.wantHours) * time.Hour)
			assert.WithinDuration(t, wantExpiry, token.ExpiresAt, time.Minute)
		})
	}
}

func TestIssue_ResourceNotFound(t *testing.T) {
	svc, _, _ := newTokenFixture(t)

	_, err := svc.Issue(context.Background(), "missing", 24, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestValidate_IsIdempotent(t *testing.T) {
	svc, tokens, _ := newTokenFixture(t)

	issued, err := svc.Issue(context.Background(), "R1", 24, 3)
	require.NoError(t, err)

	// Read-only checks never consume a use.
	for i := 0; i < 5; i++ {
		res, err := svc.Validate(context.Background(), issued.Token)
		require.NoError(t, err)
		assert.True(t, res.IsValid)
		assert.Equal(t, "R1", res.ResourceID)
	}
	stored, err := tokens.GetByToken(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.UsesRemaining)

	// Exactly three redemptions succeed; the fourth fails.
	for i := 0; i < 3; i++ {
		res, err := svc.Redeem(context.Background(), issued.Token, "", "")
		require.NoError(t, err)
		assert.True(t, res.Success, "redemption %d", i+1)
	}
	res, err := svc.Redeem(context.Background(), issued.Token, "", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestValidate_ExpiredToken(t *testing.T) {
	svc, tokens, _ := newTokenFixture(t)

	expired := models.TempAccessToken{
		Token:         "deadbeefdeadbeefdeadbeefdeadbeef",
		ResourceID:    "R1",
		ExpiresAt:     time.Now().Add(-time.Hour),
		MaxUses:       5,
		UsesRemaining: 5,
		CreatedAt:     time.Now().Add(-24 * time.Hour),
	}
	require.NoError(t, tokens.Insert(context.Background(), expired))

	// Expiry wins regardless of remaining uses.
	res, err := svc.Validate(context.Background(), expired.Token)
	require.NoError(t, err)
	assert.False(t, res.IsValid)

	redeemed, err := svc.Redeem(context.Background(), expired.Token, "", "")
	require.NoError(t, err)
	assert.False(t, redeemed.Success)
}

func TestValidate_UnknownToken(t *testing.T) {
	svc, _, _ := newTokenFixture(t)

	res, err := svc.Validate(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, res.IsValid)
}

func TestRedeem_LogsTempLinkAccess(t *testing.T) {
	svc, _, logs := newTokenFixture(t)

	issued, err := svc.Issue(context.Background(), "R1", 24, 1)
	require.NoError(t, err)

	res, err := svc.Redeem(context.Background(), issued.Token, "198.51.100.7", "test-agent")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.Equal(t, "R1", res.ResourceID)

	entries := logs.byType(models.AccessTempLink)
	require.Len(t, entries, 1)
	assert.Equal(t, "198.51.100.7", entries[0].IPAddress)
	assert.Equal(t, "test-agent", entries[0].UserAgent)
}

func TestRedeem_FailureIsSilent(t *testing.T) {
	svc, _, logs := newTokenFixture(t)

	res, err := svc.Redeem(context.Background(), "unknown-token", "", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	// Failed redemptions are neither logged nor counted as password
	// attempts.
	assert.Equal(t, 0, logs.count())
}

func TestRedeem_ConcurrentLastUse(t *testing.T) {
	svc, _, _ := newTokenFixture(t)

	issued, err := svc.Issue(context.Background(), "R1", 24, 1)
	require.NoError(t, err)

	const racers = 2
	results := make([]bool, racers)
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			res, err := svc.Redeem(context.Background(), issued.Token, "", "")
			assert.NoError(t, err)
			results[i] = res.Success
		}(i)
	}
	close(start)
	wg.Wait()

	successes := 0
	for _, ok := range results {
		if ok {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "exactly one racer may spend the last use")
}
