package model

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/rotisserie/eris"
)

// MonitorMode selects the comparison/selection strategy a monitor follows.
type MonitorMode string

const (
	// ModeRoundtripLocked watches the total price of one fixed outbound +
	// return pair.
	ModeRoundtripLocked MonitorMode = "roundtrip_locked"
	// ModeOutboundDay watches the cheapest fare across one day of outbound
	// options.
	ModeOutboundDay MonitorMode = "outbound_day"
	// ModeReturnAfterOutbound watches the cheapest round-trip total given a
	// locked, already-priced outbound.
	ModeReturnAfterOutbound MonitorMode = "return_after_outbound"
)

// Monitor statuses. An empty status counts as enabled.
const (
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)

// MonitorRecord is one persisted watch definition. Records are treated as
// immutable values: migration and persistence return updated copies and the
// runner assembles the final store from those.
//
// Unknown JSON fields survive load/save in Extra; the store must never strip
// fields this version does not recognize.
type MonitorRecord struct {
	ID string `json:"id"`

	Depart     string `json:"depart"`
	Arrive     string `json:"arrive"`
	DepartDate string `json:"departDate"`
	ReturnDate string `json:"returnDate,omitempty"`

	Mode   MonitorMode `json:"mode,omitempty"`
	Status string      `json:"status,omitempty"`

	// LastChecked is the unix-millisecond timestamp of the most recent query
	// attempt, updated whether or not the query succeeded.
	LastChecked int64 `json:"lastChecked,omitempty"`

	// Mode-specific fixed inputs.
	TripType           string `json:"tripType,omitempty"`
	OutboundFlight     string `json:"outboundFlight,omitempty"`
	OutboundPrice      int    `json:"outboundPrice,omitempty"`
	ReturnFlight       string `json:"returnFlight,omitempty"`
	BaselineTotalPrice int    `json:"baselineTotalPrice,omitempty"`

	// Legacy inputs from records predating the mode tag.
	Flight   string `json:"flight,omitempty"`
	RefPrice *int   `json:"refPrice,omitempty"`

	// roundtrip_locked last-observed snapshot.
	LastObservedTotalPrice *int   `json:"lastObservedTotalPrice,omitempty"`
	LastObservedReturnDep  string `json:"lastObservedReturnDep,omitempty"`
	LastObservedReturnArr  string `json:"lastObservedReturnArr,omitempty"`

	// outbound_day last-observed snapshot.
	LastObservedMinPrice *int   `json:"lastObservedMinPrice,omitempty"`
	LastObservedFlight   string `json:"lastObservedFlight,omitempty"`
	LastObservedDep      string `json:"lastObservedDep,omitempty"`
	LastObservedArr      string `json:"lastObservedArr,omitempty"`

	// return_after_outbound last-observed snapshot.
	LastObservedBestTotal        *int   `json:"lastObservedBestTotal,omitempty"`
	LastObservedBestReturnPrice  *int   `json:"lastObservedBestReturnPrice,omitempty"`
	LastObservedBestReturnFlight string `json:"lastObservedBestReturnFlight,omitempty"`
	LastObservedBestReturnDep    string `json:"lastObservedBestReturnDep,omitempty"`
	LastObservedBestReturnArr    string `json:"lastObservedBestReturnArr,omitempty"`

	// Extra carries JSON fields this version does not model.
	Extra map[string]json.RawMessage `json:"-"`
}

// Enabled reports whether the monitor should be processed this run.
func (m MonitorRecord) Enabled() bool {
	return m.Status == "" || m.Status == StatusEnabled
}

// monitorRecordAlias strips the custom JSON methods for nested use.
type monitorRecordAlias MonitorRecord

// monitorKnownKeys is the set of JSON keys the struct models, built once from
// the field tags so the two can never drift.
var monitorKnownKeys = func() map[string]bool {
	keys := make(map[string]bool)
	t := reflect.TypeOf(MonitorRecord{})
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		name, _, _ := strings.Cut(tag, ",")
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	return keys
}()

// UnmarshalJSON decodes the known fields and keeps every other key in Extra.
func (m *MonitorRecord) UnmarshalJSON(data []byte) error {
	var alias monitorRecordAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return eris.Wrap(err, "model: unmarshal monitor record")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return eris.Wrap(err, "model: unmarshal monitor record fields")
	}
	for k := range raw {
		if monitorKnownKeys[k] {
			delete(raw, k)
		}
	}
	if len(raw) == 0 {
		raw = nil
	}

	*m = MonitorRecord(alias)
	m.Extra = raw
	return nil
}

// MarshalJSON encodes the known fields and re-attaches preserved unknown
// keys. A known field always wins over a stale Extra entry of the same name.
func (m MonitorRecord) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(monitorRecordAlias(m))
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal monitor record")
	}
	if len(m.Extra) == 0 {
		return known, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(known, &merged); err != nil {
		return nil, eris.Wrap(err, "model: remarshal monitor record")
	}
	for k, v := range m.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}
