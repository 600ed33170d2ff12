package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/farelab/farewatch/internal/model"
)

// Searcher is the external search capability the mode handlers query.
type Searcher interface {
	Search(ctx context.Context, q model.Query) (*model.SearchResult, error)
}

// Notifier pushes one opaque message to the user. Delivery is best effort:
// implementations complete or time out, they never return an error to the
// runner.
type Notifier interface {
	Notify(ctx context.Context, message string)
}

// HistoryRecorder appends one successful price observation to a log.
type HistoryRecorder interface {
	Record(ctx context.Context, rec model.MonitorRecord, target model.FareRecord, amount int) error
}

// Runner processes every enabled monitor record in store order, one at a
// time: each record's query (with its own scroll rounds) completes before
// the next record starts.
type Runner struct {
	search   Searcher
	notifier Notifier
	history  HistoryRecorder
	now      func() time.Time
}

// RunnerOption tunes a Runner.
type RunnerOption func(*Runner)

// WithHistory wires a price-history log. History failures are logged and
// never fail a run.
func WithHistory(h HistoryRecorder) RunnerOption {
	return func(r *Runner) { r.history = h }
}

// WithClock overrides the lastChecked timestamp source.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner over the given search and notify capabilities.
func NewRunner(search Searcher, notifier Notifier, opts ...RunnerOption) *Runner {
	r := &Runner{
		search:   search,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunResult is the outcome of one full pass over the store.
type RunResult struct {
	// Records is the updated store content, in the original order.
	Records []model.MonitorRecord
	// Reports holds one entry per processed record, in store order.
	Reports []string
	// Dirty reports whether any record changed and the store needs a
	// rewrite.
	Dirty bool
}

// RunAll checks every enabled record. One monitor's failure never aborts the
// run for the rest: a failed query still marks the record checked, dirties
// the store, and contributes an error report. Notifications fire per record
// as soon as a change is detected, not batched at the end.
func (r *Runner) RunAll(ctx context.Context, records []model.MonitorRecord) RunResult {
	out := make([]model.MonitorRecord, len(records))
	var reports []string
	dirty := false

	for i, rec := range records {
		if !rec.Enabled() {
			out[i] = rec
			continue
		}

		rec, migrated := Migrate(rec)
		if migrated {
			dirty = true
		}

		updated, report, err := r.checkOne(ctx, rec)
		if err != nil {
			zap.L().Warn("monitor: check failed",
				zap.String("id", rec.ID),
				zap.String("mode", string(rec.Mode)),
				zap.Error(err),
			)
			updated = r.markChecked(rec)
			report = fmt.Sprintf("%s\nquery failed: %s", recordLabel(rec), eris.Cause(err))
		}

		out[i] = updated
		reports = append(reports, report)
		dirty = true
	}

	return RunResult{Records: out, Reports: reports, Dirty: dirty}
}

// checkOne runs a single record through its mode handler and returns the
// updated record and its report.
func (r *Runner) checkOne(ctx context.Context, rec model.MonitorRecord) (model.MonitorRecord, string, error) {
	h, ok := handlers[rec.Mode]
	if !ok {
		// A tag this version does not know is a config problem worth a
		// report, not a reason to stop the run.
		return r.markChecked(rec),
			fmt.Sprintf("%s\nunsupported mode: %s", recordLabel(rec), rec.Mode),
			nil
	}

	res, err := r.search.Search(ctx, h.query(rec))
	if err != nil {
		return rec, "", err
	}

	title := h.title(rec)
	if len(res.Flights) == 0 {
		return r.markChecked(rec), title + "\n" + h.emptyMessage, nil
	}

	target := h.selectTarget(res.Flights, rec)
	if target == nil {
		msg := "Target flight not found."
		if h.missingTarget != nil {
			msg = h.missingTarget(rec)
		}
		return r.markChecked(rec), title + "\n" + msg, nil
	}

	current := h.currentValue(*target)
	previous := h.previousValue(rec)
	rc := reportContext{record: rec, target: *target, current: current, previous: previous}
	report := buildReport(title, res.View.Table, h.reportTail(rc))

	updated := r.markChecked(h.persist(rec, *target, current))

	if r.history != nil {
		if err := r.history.Record(ctx, updated, *target, current); err != nil {
			zap.L().Warn("monitor: history append failed",
				zap.String("id", rec.ID), zap.Error(err))
		}
	}

	if NotifyCondition(previous, current) {
		lines := append([]string{h.notifyTitle}, h.notifyDetail(rc)...)
		lines = append(lines, fmt.Sprintf("last CNY%d -> now CNY%d (%s)",
			*previous, current, FormatDelta(current-*previous)))
		r.notifier.Notify(ctx, strings.Join(lines, "\n"))
	}

	return updated, report, nil
}

func (r *Runner) markChecked(rec model.MonitorRecord) model.MonitorRecord {
	rec.LastChecked = r.now().UnixMilli()
	return rec
}

func buildReport(title, viewTable string, tail []string) string {
	lines := []string{title}
	if viewTable != "" {
		lines = append(lines, viewTable)
	}
	for _, l := range tail {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n")
}

func recordLabel(rec model.MonitorRecord) string {
	if rec.ID != "" {
		return "Monitor " + rec.ID
	}
	return "Monitor (no id)"
}
