package outreach

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpmusenge/local-biz-agent/internal/model"
	"github.com/jpmusenge/local-biz-agent/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestLogAttemptAdvancesStatus(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	biz, err := st.InsertBusiness(ctx, &model.Business{
		Name: "Ace Plumbing", Category: "plumber",
		City: "Springfield", State: "IL", Source: "google_places",
	})
	require.NoError(t, err)

	l := NewLogger(st)
	entry, err := l.LogAttempt(ctx, biz.ID, model.OutreachPhone, "left voicemail")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, model.OutreachPhone, entry.Method)
	assert.False(t, entry.ContactedAt.IsZero())

	got, err := st.GetBusiness(ctx, biz.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusContacted, got.Status)

	stats, err := st.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalOutreach)
}

func TestLogAttemptInvalidMethod(t *testing.T) {
	st := newTestStore(t)
	l := NewLogger(st)

	_, err := l.LogAttempt(context.Background(), "any", model.OutreachMethod("carrier_pigeon"), "")
	require.Error(t, err)
}

func TestLogAttemptUnknownBusiness(t *testing.T) {
	st := newTestStore(t)
	l := NewLogger(st)

	_, err := l.LogAttempt(context.Background(), "missing", model.OutreachEmail, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNotFound))
}
