package storage

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/GiancarloEsposito06/Live-comments-overlay/domain"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return logs.GetLoggerFromLevel(slog.LevelDebug)
}

func TestConsentRecord_RoundTrip(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := NewConsentRecord(openTestDB(t), testLogger())

	// Given no stored decision
	state, err := store.Get(ctx)
	req.NoError(err)
	req.Equal(domain.ConsentUnknown, state)

	// When the viewer grants consent
	req.NoError(store.Set(ctx, domain.ConsentGranted))
	state, err = store.Get(ctx)
	req.NoError(err)
	req.Equal(domain.ConsentGranted, state)

	// When the viewer later declines
	req.NoError(store.Set(ctx, domain.ConsentDeclined))
	state, err = store.Get(ctx)
	req.NoError(err)
	req.Equal(domain.ConsentDeclined, state)
}

func TestConsentRecord_ClearIsIdempotent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := NewConsentRecord(openTestDB(t), testLogger())

	req.NoError(store.Set(ctx, domain.ConsentGranted))
	req.NoError(store.Clear(ctx))
	req.NoError(store.Clear(ctx))

	state, err := store.Get(ctx)
	req.NoError(err)
	req.Equal(domain.ConsentUnknown, state)
}

func TestMemoryConsent(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	store := NewMemoryConsent()

	state, err := store.Get(ctx)
	req.NoError(err)
	req.Equal(domain.ConsentUnknown, state)

	req.NoError(store.Set(ctx, domain.ConsentGranted))
	state, _ = store.Get(ctx)
	req.Equal(domain.ConsentGranted, state)

	req.NoError(store.Clear(ctx))
	state, _ = store.Get(ctx)
	req.Equal(domain.ConsentUnknown, state)
}

func TestAuditTrail_LatestNewestFirst(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	trail := NewAuditTrail(openTestDB(t), testLogger())

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, action := range []string{"highlight", "quarantine", "delete"} {
		req.NoError(trail.Record(ctx, domain.AuditEntry{
			At:        base.Add(time.Duration(i) * time.Second),
			Kind:      "moderation_applied",
			CommentID: "c-1",
			Action:    action,
			Found:     true,
		}))
	}

	entries, err := trail.Latest(ctx, 10)
	req.NoError(err)
	req.Len(entries, 3)
	req.Equal("delete", entries[0].Action)
	req.Equal("quarantine", entries[1].Action)
	req.Equal("highlight", entries[2].Action)
}

func TestAuditTrail_LatestHonorsLimit(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	trail := NewAuditTrail(openTestDB(t), testLogger())

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		req.NoError(trail.Record(ctx, domain.AuditEntry{
			At:     base.Add(time.Duration(i) * time.Millisecond),
			Kind:   "connection_errored",
			Detail: "dial failed",
		}))
	}

	entries, err := trail.Latest(ctx, 4)
	req.NoError(err)
	req.Len(entries, 4)
}

func TestAuditTrail_EntriesGetIDs(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	trail := NewAuditTrail(openTestDB(t), testLogger())

	req.NoError(trail.Record(ctx, domain.AuditEntry{
		At:   time.Now(),
		Kind: "moderation_applied",
	}))

	entries, err := trail.Latest(ctx, 1)
	req.NoError(err)
	req.Len(entries, 1)
	req.NotEmpty(entries[0].ID)
}
