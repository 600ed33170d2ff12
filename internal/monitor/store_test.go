package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farelab/farewatch/internal/model"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "monitors.json"))
}

func TestStore_MissingFileIsEmpty(t *testing.T) {
	assert.Empty(t, tempStore(t).Load())
}

func TestStore_CorruptFileIsEmpty(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o644))
	assert.Empty(t, s.Load())
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	s := tempStore(t)
	records := []model.MonitorRecord{
		{ID: "m1", Mode: model.ModeOutboundDay, Depart: "SZX", Arrive: "CKG", DepartDate: "2026-04-03"},
		{ID: "m2", Mode: model.ModeRoundtripLocked, Depart: "CAN", Arrive: "PEK", DepartDate: "2026-05-01", ReturnDate: "2026-05-05"},
	}
	require.NoError(t, s.Save(records))

	got := s.Load()
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID, "store order is preserved")
	assert.Equal(t, "m2", got[1].ID)
}

func TestStore_SaveIsPrettyPrinted(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Save([]model.MonitorRecord{{ID: "m1"}}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  ")
}

func TestStore_UnknownFieldsSurviveRewrite(t *testing.T) {
	s := tempStore(t)
	seed := `[{"id":"m1","depart":"SZX","arrive":"CKG","departDate":"2026-04-03","createdBy":"telegram:123"}]`
	require.NoError(t, os.WriteFile(s.Path(), []byte(seed), 0o644))

	records := s.Load()
	require.Len(t, records, 1)
	records[0].Mode = model.ModeOutboundDay
	require.NoError(t, s.Save(records))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	var raw []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `"telegram:123"`, string(raw[0]["createdBy"]))
	assert.JSONEq(t, `"outbound_day"`, string(raw[0]["mode"]))
}

func TestStore_SaveNilWritesEmptyArray(t *testing.T) {
	s := tempStore(t)
	require.NoError(t, s.Save(nil))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}
