// Package collect drives repeated extract+scroll rounds against a lazily
// loading result page and merges the rounds into one deduplicated fare set.
package collect

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/farelab/farewatch/internal/model"
)

// Defaults match the result pages this was tuned against: ~18 scroll rounds
// cover several hundred fares, and 900ms is enough for a network batch to
// land after a scroll.
const (
	DefaultMaxRounds    = 18
	DefaultStableRounds = 2
	DefaultSettle       = 900 * time.Millisecond
)

// ExtractFunc runs one extraction pass over all currently visible cards.
// A single pass under-collects on an infinite-scroll page; the collector
// calls it once per round and merges.
type ExtractFunc func(ctx context.Context) ([]model.FareRecord, error)

// Scroller moves the viewport through the scrollable results.
type Scroller interface {
	// AtBottom reports whether the viewport has reached the end of the
	// scrollable content.
	AtBottom(ctx context.Context) (bool, error)
	// ScrollForward advances the viewport by roughly 90% of its height.
	ScrollForward(ctx context.Context) error
}

// Collector accumulates fares across scroll rounds until the merged set
// stops growing and the page is scrolled out.
type Collector struct {
	Extract  ExtractFunc
	Scroller Scroller

	// MaxRounds caps the number of rounds. The cap is a fail-safe against
	// pages that never stop loading, not an error condition.
	MaxRounds int
	// StableRounds is how many consecutive rounds the merged size must hold
	// before scroll-exhaustion is even consulted.
	StableRounds int
	// Settle is how long to wait after a scroll for the next batch to land.
	Settle time.Duration
}

// New returns a Collector with default tuning.
func New(extract ExtractFunc, scroller Scroller) *Collector {
	return &Collector{
		Extract:      extract,
		Scroller:     scroller,
		MaxRounds:    DefaultMaxRounds,
		StableRounds: DefaultStableRounds,
		Settle:       DefaultSettle,
	}
}

// Collect runs extraction rounds until convergence or the round cap and
// returns the merged fares sorted ascending by price amount, ties in
// first-seen order.
//
// Convergence needs both size-stability and scroll-exhaustion: a stable
// count alone may just mean the page is between network batches.
func (c *Collector) Collect(ctx context.Context) ([]model.FareRecord, error) {
	maxRounds := c.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	stableNeeded := c.StableRounds
	if stableNeeded <= 0 {
		stableNeeded = DefaultStableRounds
	}
	settle := c.Settle
	if settle <= 0 {
		settle = DefaultSettle
	}

	merged := make(map[string]model.FareRecord)
	var order []string
	stable := 0
	lastCount := 0

	for round := 0; round < maxRounds; round++ {
		rows, err := c.Extract(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "collect: extract round")
		}

		// First-seen wins: a fare re-rendered on a later round never
		// replaces the record already captured for its identity key.
		for _, r := range rows {
			key := r.Key()
			if _, ok := merged[key]; ok {
				continue
			}
			merged[key] = r
			order = append(order, key)
		}

		if len(merged) == lastCount {
			stable++
		} else {
			stable = 0
		}
		lastCount = len(merged)

		atBottom, err := c.Scroller.AtBottom(ctx)
		if err != nil {
			return nil, eris.Wrap(err, "collect: query scroll position")
		}
		if stable >= stableNeeded && atBottom {
			zap.L().Debug("collect: converged",
				zap.Int("rounds", round+1),
				zap.Int("fares", len(merged)),
			)
			break
		}

		if err := c.Scroller.ScrollForward(ctx); err != nil {
			return nil, eris.Wrap(err, "collect: scroll")
		}
		select {
		case <-ctx.Done():
			return nil, eris.Wrap(ctx.Err(), "collect: settle wait")
		case <-time.After(settle):
		}
	}

	out := make([]model.FareRecord, 0, len(order))
	for _, key := range order {
		out = append(out, merged[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Price.Amount < out[j].Price.Amount
	})
	return out, nil
}
