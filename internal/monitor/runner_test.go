package monitor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farelab/farewatch/internal/model"
)

// scriptedSearcher replies per depart/arrive route.
type scriptedSearcher struct {
	results map[string]*model.SearchResult
	errs    map[string]error
	queries []model.Query
}

func (s *scriptedSearcher) Search(_ context.Context, q model.Query) (*model.SearchResult, error) {
	s.queries = append(s.queries, q)
	key := q.Depart + "-" + q.Arrive
	if err := s.errs[key]; err != nil {
		return nil, err
	}
	if res, ok := s.results[key]; ok {
		res.Query = q
		return res, nil
	}
	return &model.SearchResult{Query: q, Flights: []model.FareRecord{}}, nil
}

type recordingNotifier struct {
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, message string) {
	n.messages = append(n.messages, message)
}

func resultWith(flights ...model.FareRecord) *model.SearchResult {
	return &model.SearchResult{
		Flights: flights,
		View:    model.View{Table: "rendered-table"},
	}
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.UnixMilli(1767000000000) }
}

func TestRunAll_OutboundDayFirstObservation(t *testing.T) {
	searcher := &scriptedSearcher{results: map[string]*model.SearchResult{
		"SZX-CKG": resultWith(
			model.FareRecord{Flight: "CZ100", Price: model.Price{Amount: 1200}},
			model.FareRecord{Flight: "MU200", Price: model.Price{Amount: 980}},
		),
	}}
	notifier := &recordingNotifier{}
	r := NewRunner(searcher, notifier, WithClock(fixedClock()))

	res := r.RunAll(context.Background(), []model.MonitorRecord{{
		ID: "m1", Mode: model.ModeOutboundDay,
		Depart: "SZX", Arrive: "CKG", DepartDate: "2026-04-03",
	}})

	assert.True(t, res.Dirty)
	require.Len(t, res.Reports, 1)
	assert.Contains(t, res.Reports[0], "MU200")

	got := res.Records[0]
	require.NotNil(t, got.LastObservedMinPrice)
	assert.Equal(t, 980, *got.LastObservedMinPrice)
	assert.Equal(t, "MU200", got.LastObservedFlight)
	assert.Equal(t, int64(1767000000000), got.LastChecked)
	assert.Empty(t, notifier.messages, "first observation never notifies")
}

func TestRunAll_NotifiesOnPriceDrop(t *testing.T) {
	searcher := &scriptedSearcher{results: map[string]*model.SearchResult{
		"SZX-CKG": resultWith(model.FareRecord{Flight: "MU200", Price: model.Price{Amount: 2650}}),
	}}
	notifier := &recordingNotifier{}
	r := NewRunner(searcher, notifier, WithClock(fixedClock()))

	res := r.RunAll(context.Background(), []model.MonitorRecord{{
		ID: "m1", Mode: model.ModeOutboundDay,
		Depart: "SZX", Arrive: "CKG", DepartDate: "2026-04-03",
		LastObservedMinPrice: intp(2800),
	}})

	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "last CNY2800 -> now CNY2650")
	assert.Contains(t, notifier.messages[0], "down CNY150")
	assert.Equal(t, 2650, *res.Records[0].LastObservedMinPrice)
}

func TestRunAll_FaultIsolation(t *testing.T) {
	// Three monitors; the second one's query blows up. All three must be
	// reported and the first and third still persist their updates.
	searcher := &scriptedSearcher{
		results: map[string]*model.SearchResult{
			"SZX-CKG": resultWith(model.FareRecord{Flight: "MU200", Price: model.Price{Amount: 980}}),
			"CAN-PEK": resultWith(model.FareRecord{Flight: "CA1350", Price: model.Price{Amount: 1650}}),
		},
		errs: map[string]error{"SHA-CTU": errors.New("browser went away")},
	}
	r := NewRunner(searcher, &recordingNotifier{}, WithClock(fixedClock()))

	res := r.RunAll(context.Background(), []model.MonitorRecord{
		{ID: "a", Mode: model.ModeOutboundDay, Depart: "SZX", Arrive: "CKG", DepartDate: "2026-04-03"},
		{ID: "b", Mode: model.ModeOutboundDay, Depart: "SHA", Arrive: "CTU", DepartDate: "2026-04-03"},
		{ID: "c", Mode: model.ModeOutboundDay, Depart: "CAN", Arrive: "PEK", DepartDate: "2026-04-03"},
	})

	require.Len(t, res.Reports, 3)
	assert.Contains(t, res.Reports[1], "query failed")
	assert.Contains(t, res.Reports[1], "browser went away")
	assert.True(t, res.Dirty)

	assert.NotNil(t, res.Records[0].LastObservedMinPrice)
	assert.Nil(t, res.Records[1].LastObservedMinPrice, "failed monitor keeps its baseline")
	assert.NotNil(t, res.Records[2].LastObservedMinPrice)
	assert.Equal(t, int64(1767000000000), res.Records[1].LastChecked, "failure still marks checked")
}

func TestRunAll_SkipsDisabled(t *testing.T) {
	searcher := &scriptedSearcher{}
	r := NewRunner(searcher, &recordingNotifier{}, WithClock(fixedClock()))

	res := r.RunAll(context.Background(), []model.MonitorRecord{{
		ID: "m1", Mode: model.ModeOutboundDay, Status: model.StatusDisabled,
		Depart: "SZX", Arrive: "CKG", DepartDate: "2026-04-03",
	}})

	assert.False(t, res.Dirty)
	assert.Empty(t, res.Reports)
	assert.Empty(t, searcher.queries)
	assert.Zero(t, res.Records[0].LastChecked)
}

func TestRunAll_EmptyResultKeepsBaseline(t *testing.T) {
	searcher := &scriptedSearcher{} // every route returns zero fares
	notifier := &recordingNotifier{}
	r := NewRunner(searcher, notifier, WithClock(fixedClock()))

	res := r.RunAll(context.Background(), []model.MonitorRecord{{
		ID: "m1", Mode: model.ModeOutboundDay,
		Depart: "SZX", Arrive: "CKG", DepartDate: "2026-04-03",
		LastObservedMinPrice: intp(2800),
	}})

	require.Len(t, res.Reports, 1)
	assert.Contains(t, res.Reports[0], "No flights found.")
	assert.Equal(t, 2800, *res.Records[0].LastObservedMinPrice, "empty result must not move the baseline")
	assert.Empty(t, notifier.messages)
	assert.NotZero(t, res.Records[0].LastChecked)
}

func TestRunAll_RoundtripLockedTargetMissing(t *testing.T) {
	searcher := &scriptedSearcher{results: map[string]*model.SearchResult{
		"SZX-CKG": resultWith(model.FareRecord{Flight: "CZ8888", Price: model.Price{Amount: 2500}}),
	}}
	r := NewRunner(searcher, &recordingNotifier{}, WithClock(fixedClock()))

	res := r.RunAll(context.Background(), []model.MonitorRecord{{
		ID: "m1", Mode: model.ModeRoundtripLocked,
		Depart: "SZX", Arrive: "CKG", DepartDate: "2026-04-03", ReturnDate: "2026-04-07",
		OutboundFlight: "CZ3455", ReturnFlight: "ZH9464",
	}})

	require.Len(t, res.Reports, 1)
	assert.Contains(t, res.Reports[0], "Return flight not found: ZH9464")
	assert.Nil(t, res.Records[0].LastObservedTotalPrice)
}

func TestRunAll_MigratesLegacyBeforeDispatch(t *testing.T) {
	searcher := &scriptedSearcher{results: map[string]*model.SearchResult{
		"SZX-CKG": resultWith(model.FareRecord{Flight: "ZH9464", Price: model.Price{Amount: 2650}, Extra: 1170}),
	}}
	notifier := &recordingNotifier{}
	r := NewRunner(searcher, notifier, WithClock(fixedClock()))

	ref := 2800
	res := r.RunAll(context.Background(), []model.MonitorRecord{{
		ID: "legacy", Depart: "SZX", Arrive: "CKG",
		DepartDate: "2026-04-03", ReturnDate: "2026-04-07",
		Flight: "CZ3455", RefPrice: &ref,
	}})

	got := res.Records[0]
	assert.Equal(t, model.ModeReturnAfterOutbound, got.Mode)
	assert.Equal(t, "CZ3455", got.OutboundFlight)
	require.Len(t, searcher.queries, 1)
	assert.Equal(t, model.ModeReturnAfterOutbound, searcher.queries[0].Mode)

	// The carried-over reference price is the baseline, so the cheaper
	// total fires a notification on the very first post-migration run.
	require.Len(t, notifier.messages, 1)
	assert.Contains(t, notifier.messages[0], "last CNY2800 -> now CNY2650")
}

func TestRunAll_UnsupportedModeReportsConfigError(t *testing.T) {
	r := NewRunner(&scriptedSearcher{}, &recordingNotifier{}, WithClock(fixedClock()))

	res := r.RunAll(context.Background(), []model.MonitorRecord{{
		ID: "m1", Mode: "teleport", Depart: "SZX", Arrive: "CKG", DepartDate: "2026-04-03",
	}})

	require.Len(t, res.Reports, 1)
	assert.Contains(t, res.Reports[0], "unsupported mode: teleport")
	assert.NotZero(t, res.Records[0].LastChecked)
}

func TestRunAll_ReportsInStoreOrder(t *testing.T) {
	searcher := &scriptedSearcher{results: map[string]*model.SearchResult{
		"SZX-CKG": resultWith(model.FareRecord{Flight: "MU200", Price: model.Price{Amount: 980}}),
		"CAN-PEK": resultWith(model.FareRecord{Flight: "CA1350", Price: model.Price{Amount: 1650}}),
	}}
	r := NewRunner(searcher, &recordingNotifier{}, WithClock(fixedClock()))

	res := r.RunAll(context.Background(), []model.MonitorRecord{
		{ID: "first", Mode: model.ModeOutboundDay, Depart: "SZX", Arrive: "CKG", DepartDate: "2026-04-03"},
		{ID: "second", Mode: model.ModeOutboundDay, Depart: "CAN", Arrive: "PEK", DepartDate: "2026-04-03"},
	})

	require.Len(t, res.Reports, 2)
	assert.True(t, strings.Contains(res.Reports[0], "SZX -> CKG"))
	assert.True(t, strings.Contains(res.Reports[1], "CAN -> PEK"))
}

// flakyHistory always fails; the run must not care.
type flakyHistory struct{ calls int }

func (h *flakyHistory) Record(context.Context, model.MonitorRecord, model.FareRecord, int) error {
	h.calls++
	return errors.New("disk full")
}

func TestRunAll_HistoryFailureIsBestEffort(t *testing.T) {
	searcher := &scriptedSearcher{results: map[string]*model.SearchResult{
		"SZX-CKG": resultWith(model.FareRecord{Flight: "MU200", Price: model.Price{Amount: 980}}),
	}}
	hist := &flakyHistory{}
	r := NewRunner(searcher, &recordingNotifier{}, WithClock(fixedClock()), WithHistory(hist))

	res := r.RunAll(context.Background(), []model.MonitorRecord{{
		ID: "m1", Mode: model.ModeOutboundDay, Depart: "SZX", Arrive: "CKG", DepartDate: "2026-04-03",
	}})

	assert.Equal(t, 1, hist.calls)
	require.Len(t, res.Reports, 1)
	assert.NotContains(t, res.Reports[0], "disk full")
	assert.NotNil(t, res.Records[0].LastObservedMinPrice)
}
