package service

import (
	"context"
	"errors"
	"testing"

	"github.com/lenshare/accessctl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingLogs rejects every write.
type failingLogs struct{ fakeLogs }

func (f *failingLogs) Insert(context.Context, models.AccessLogEntry) error {
	return errors.New("disk full")
}

func TestRecord_WriteFailureDoesNotPropagate(t *testing.T) {
	audit := NewAuditor(&failingLogs{}, zap.NewNop())

	// Must not panic or surface the error; the access decision that
	// triggered the write has already been made.
	audit.Record(context.Background(), "R1", models.AccessPasswordSuccess, "", "")
}

func TestList_ClampsLimit(t *testing.T) {
	logs := &fakeLogs{}
	audit := NewAuditor(logs, zap.NewNop())

	for i := 0; i < 150; i++ {
		audit.Record(context.Background(), "R1", models.AccessView, "", "")
	}

	entries, err := audit.List(context.Background(), "R1", 1000)
	require.NoError(t, err)
	assert.Len(t, entries, 100)

	entries, err = audit.List(context.Background(), "R1", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}

func TestList_RequiresResource(t *testing.T) {
	audit := NewAuditor(&fakeLogs{}, zap.NewNop())

	_, err := audit.List(context.Background(), "", 10)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestList_NewestFirst(t *testing.T) {
	logs := &fakeLogs{}
	audit := NewAuditor(logs, zap.NewNop())

	audit.Record(context.Background(), "R1", models.AccessPasswordFail, "", "")
	audit.Record(context.Background(), "R1", models.AccessPasswordSuccess, "", "")

	entries, err := audit.List(context.Background(), "R1", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.AccessPasswordSuccess, entries[0].AccessType)
}
