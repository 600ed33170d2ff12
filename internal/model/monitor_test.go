package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonitorRecord_PreservesUnknownFields(t *testing.T) {
	in := []byte(`{
		"id": "m1",
		"depart": "SZX",
		"arrive": "CKG",
		"departDate": "2026-04-03",
		"mode": "outbound_day",
		"note": "booked hotel already",
		"owner": {"name": "fan", "chatId": 123}
	}`)

	var rec MonitorRecord
	require.NoError(t, json.Unmarshal(in, &rec))
	assert.Equal(t, "m1", rec.ID)
	assert.Equal(t, ModeOutboundDay, rec.Mode)
	assert.Len(t, rec.Extra, 2)

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &m))
	assert.JSONEq(t, `"booked hotel already"`, string(m["note"]))
	assert.JSONEq(t, `{"name": "fan", "chatId": 123}`, string(m["owner"]))
}

func TestMonitorRecord_KnownFieldWinsOverStaleExtra(t *testing.T) {
	rec := MonitorRecord{
		ID:    "m1",
		Mode:  ModeOutboundDay,
		Extra: map[string]json.RawMessage{"mode": json.RawMessage(`"stale"`)},
	}

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &m))
	assert.JSONEq(t, `"outbound_day"`, string(m["mode"]))
}

func TestMonitorRecord_RoundTripWithoutExtras(t *testing.T) {
	prev := 2800
	rec := MonitorRecord{
		ID:                     "m2",
		Depart:                 "SZX",
		Arrive:                 "CKG",
		DepartDate:             "2026-04-03",
		ReturnDate:             "2026-04-07",
		Mode:                   ModeRoundtripLocked,
		OutboundFlight:         "CZ3455",
		ReturnFlight:           "ZH9464",
		LastObservedTotalPrice: &prev,
	}

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	var back MonitorRecord
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, rec.ID, back.ID)
	assert.Equal(t, rec.Mode, back.Mode)
	require.NotNil(t, back.LastObservedTotalPrice)
	assert.Equal(t, 2800, *back.LastObservedTotalPrice)
	assert.Nil(t, back.Extra)
}

func TestMonitorRecord_Enabled(t *testing.T) {
	assert.True(t, MonitorRecord{}.Enabled())
	assert.True(t, MonitorRecord{Status: StatusEnabled}.Enabled())
	assert.False(t, MonitorRecord{Status: StatusDisabled}.Enabled())
}
