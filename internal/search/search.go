package search

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/farelab/farewatch/internal/collect"
	"github.com/farelab/farewatch/internal/fare"
	"github.com/farelab/farewatch/internal/model"
)

// DefaultTimeout bounds one full query, scroll rounds included.
const DefaultTimeout = 45 * time.Second

// Page is the settled result page a query drives. internal/browser provides
// the real one; tests inject fakes.
type Page interface {
	// Navigate loads the URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error
	// SelectOutbound scroll-seeks the card for the given designator and
	// clicks its purchase action, switching the page to return options.
	SelectOutbound(ctx context.Context, flight string) error
	// ExtractFares runs one extraction pass over the currently visible
	// cards.
	ExtractFares(ctx context.Context) ([]model.FareRecord, error)
	// Location returns the page's current URL.
	Location(ctx context.Context) (string, error)

	collect.Scroller
}

// Opener hands out a page for one query and a release func.
type Opener interface {
	Page(ctx context.Context) (Page, func(), error)
}

// Searcher implements the search capability over an Opener.
type Searcher struct {
	opener  Opener
	timeout time.Duration
	settle  time.Duration
}

// Option tunes a Searcher.
type Option func(*Searcher)

// WithTimeout overrides the per-query hard timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Searcher) { s.timeout = d }
}

// WithSettle overrides the collector's post-scroll settle interval.
func WithSettle(d time.Duration) Option {
	return func(s *Searcher) { s.settle = d }
}

// New creates a Searcher.
func New(opener Opener, opts ...Option) *Searcher {
	s := &Searcher{
		opener:  opener,
		timeout: DefaultTimeout,
		settle:  collect.DefaultSettle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs one query. Mode decides the page flow:
//
//   - outbound_day collects the departure day's outbound options;
//   - roundtrip_locked and return_after_outbound first lock the outbound by
//     clicking its card, then collect the returns priced as round-trip
//     totals.
//
// The result's Flights slice is never nil; an empty result is a valid
// outcome, not an error.
func (s *Searcher) Search(ctx context.Context, q model.Query) (*model.SearchResult, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	q = normalize(q)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	page, release, err := s.opener.Page(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "search: open page")
	}
	defer release()

	entryURL := QueryURL(q)
	zap.L().Info("search: query",
		zap.String("mode", string(q.Mode)),
		zap.String("route", q.Depart+"-"+q.Arrive),
		zap.String("url", entryURL),
	)
	if err := page.Navigate(ctx, entryURL); err != nil {
		return nil, eris.Wrap(err, "search: navigate")
	}

	baseDate := q.DepartDate
	if q.Mode != model.ModeOutboundDay {
		if err := page.SelectOutbound(ctx, q.OutboundFlight); err != nil {
			return nil, eris.Wrapf(err, "search: select outbound %s", q.OutboundFlight)
		}
		baseDate = q.ReturnDate
	}

	collector := collect.New(page.ExtractFares, page)
	collector.Settle = s.settle
	flights, err := collector.Collect(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "search: collect fares")
	}

	for i := range flights {
		flights[i] = fare.Enrich(flights[i], baseDate)
	}
	if q.Mode == model.ModeReturnAfterOutbound {
		applyExtra(flights, q.OutboundPrice)
	}

	sourceURL, err := page.Location(ctx)
	if err != nil {
		sourceURL = entryURL
	}

	res := &model.SearchResult{
		Query:     q,
		SourceURL: sourceURL,
		Flights:   flights,
	}
	if res.Flights == nil {
		res.Flights = []model.FareRecord{}
	}
	res.View = BuildView(*res)
	return res, nil
}

// applyExtra sets each fare's incremental return cost over the locked
// outbound. A non-positive outbound price cannot yield a meaningful
// increment, so Extra stays zero instead of silently going negative.
func applyExtra(flights []model.FareRecord, outboundPrice int) {
	if outboundPrice <= 0 {
		zap.L().Warn("search: outbound price missing or invalid, skipping return increments",
			zap.Int("outboundPrice", outboundPrice),
		)
		return
	}
	for i := range flights {
		flights[i].Extra = flights[i].Price.Amount - outboundPrice
	}
}

func validate(q model.Query) error {
	if q.Depart == "" || q.Arrive == "" || q.DepartDate == "" {
		return eris.New("search: depart, arrive and departDate are required")
	}
	switch q.Mode {
	case model.ModeOutboundDay:
		return nil
	case model.ModeRoundtripLocked, model.ModeReturnAfterOutbound:
		if q.ReturnDate == "" || q.OutboundFlight == "" {
			return eris.Errorf("search: %s needs returnDate and outboundFlight", q.Mode)
		}
		return nil
	default:
		return eris.Errorf("search: unknown mode %q", q.Mode)
	}
}

func normalize(q model.Query) model.Query {
	if q.Mode == model.ModeOutboundDay {
		if q.TripType != model.TripRoundtripContext {
			q.TripType = model.TripOneway
		}
		if q.ReturnDate == "" {
			q.ReturnDate = fare.AddDays(q.DepartDate, 1)
		}
	}
	return q
}
