package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/farelab/farewatch/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := model.MonitorRecord{ID: "m-1", Mode: model.ModeOutboundDay}
	require.NoError(t, s.Record(ctx, rec, model.FareRecord{Flight: "MU5100"}, 1180))
	require.NoError(t, s.Record(ctx, rec, model.FareRecord{Flight: "MU5100"}, 1050))
	require.NoError(t, s.Record(ctx, model.MonitorRecord{ID: "m-2", Mode: model.ModeRoundtripLocked},
		model.FareRecord{Flight: "CA1831"}, 2460))

	got, err := s.List(ctx, "m-1", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first.
	require.Equal(t, 1050, got[0].Amount)
	require.Equal(t, 1180, got[1].Amount)
	require.Equal(t, "MU5100", got[0].Flight)
	require.Equal(t, "outbound_day", got[0].Mode)
}

func TestListLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := model.MonitorRecord{ID: "m-1", Mode: model.ModeOutboundDay}
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, rec, model.FareRecord{Flight: "MU5100"}, 1000+i))
	}

	got, err := s.List(ctx, "m-1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
}

func TestListUnknownMonitorIsEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.List(context.Background(), "nope", 10)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Migrate(context.Background()))
}
