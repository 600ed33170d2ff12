// Package booking walks a round-trip selection through to the booking page
// and extracts the confirmed price breakdown, flight details and baggage
// allowances.
package booking

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Request identifies the itinerary to price. Times are the HH:MM departure
// and arrival shown on the result list, which is how the list is matched.
type Request struct {
	From       string `json:"from"`
	To         string `json:"to"`
	DepartDate string `json:"departDate"`
	ReturnDate string `json:"returnDate,omitempty"`

	OutboundDep string `json:"outboundDep"`
	OutboundArr string `json:"outboundArr"`
	ReturnDep   string `json:"returnDep,omitempty"`
	ReturnArr   string `json:"returnArr,omitempty"`
}

func (r Request) roundtrip() bool {
	return r.ReturnDate != "" && r.ReturnDep != "" && r.ReturnArr != ""
}

// Segment is one leg as shown on the booking confirmation page.
type Segment struct {
	Dep      string `json:"dep"`
	Arr      string `json:"arr"`
	Flight   string `json:"flight"`
	Airline  string `json:"airline"`
	Aircraft string `json:"aircraft"`
}

// BaggageSummary is the short allowance annotation on the price card.
type BaggageSummary struct {
	Cabin   string `json:"cabin"`
	Checked string `json:"checked"`
}

// BaggageAllowance is one route's detailed allowance from the booking page.
type BaggageAllowance struct {
	Route   string `json:"route"`
	Cabin   string `json:"cabin"`
	Checked string `json:"checked"`
}

// Details is everything extracted from the booking confirmation page.
type Details struct {
	Price    int    `json:"price"`
	Currency string `json:"currency"`
	Raw      string `json:"raw"`

	TicketPrice string `json:"ticketPrice,omitempty"`
	Tax         string `json:"tax,omitempty"`

	Outbound     *Segment `json:"outbound,omitempty"`
	ReturnFlight *Segment `json:"returnFlight,omitempty"`

	BaggageSummary *BaggageSummary    `json:"baggageSummary,omitempty"`
	Baggage        []BaggageAllowance `json:"baggage,omitempty"`
}

// PageText is the raw text the page hands back for parsing: the expanded
// left flight panel, the right price card, and the baggage allowance block.
// Any of them may be empty when the page did not render that section.
type PageText struct {
	FlightInfo string
	PriceCard  string
	Baggage    string
}

// Page is a booking flow on a live tab. internal/browser provides the real
// one.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// SelectFlight scroll-seeks the result row departing at dep and
	// arriving at arr, then clicks its select button.
	SelectFlight(ctx context.Context, dep, arr string) error
	// ClickContinue confirms the fare dialog that pops up after the second
	// leg is picked.
	ClickContinue(ctx context.Context) error
	// BookingText expands the booking page's detail sections and returns
	// their raw text.
	BookingText(ctx context.Context) (PageText, error)
}

// Opener hands out a booking page and a release func.
type Opener interface {
	BookingPage(ctx context.Context) (Page, func(), error)
}

// Checker prices one itinerary end to end.
type Checker struct {
	opener Opener

	// Settle pauses between flow steps. The booking site reprices between
	// selections, so these are generous.
	NavSettle      time.Duration
	SelectSettle   time.Duration
	ContinueSettle time.Duration
}

// NewChecker creates a Checker with the flow timing the booking site needs.
func NewChecker(opener Opener) *Checker {
	return &Checker{
		opener:         opener,
		NavSettle:      5 * time.Second,
		SelectSettle:   5 * time.Second,
		ContinueSettle: 6 * time.Second,
	}
}

// Check runs the selection flow and parses the booking page. A one-way
// request stops after the outbound pick.
func (c *Checker) Check(ctx context.Context, req Request) (*Details, error) {
	if req.From == "" || req.To == "" || req.DepartDate == "" || req.OutboundDep == "" || req.OutboundArr == "" {
		return nil, eris.New("booking: from, to, departDate, outboundDep and outboundArr are required")
	}

	page, release, err := c.opener.BookingPage(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "booking: open page")
	}
	defer release()

	entryURL := BookingURL(req)
	zap.L().Info("booking: price check",
		zap.String("route", req.From+"-"+req.To),
		zap.String("url", entryURL),
	)
	if err := page.Navigate(ctx, entryURL); err != nil {
		return nil, eris.Wrap(err, "booking: navigate")
	}
	if err := pause(ctx, c.NavSettle); err != nil {
		return nil, err
	}

	if err := page.SelectFlight(ctx, req.OutboundDep, req.OutboundArr); err != nil {
		return nil, eris.Wrapf(err, "booking: select outbound %s-%s", req.OutboundDep, req.OutboundArr)
	}
	if err := pause(ctx, c.SelectSettle); err != nil {
		return nil, err
	}

	if req.roundtrip() {
		if err := page.SelectFlight(ctx, req.ReturnDep, req.ReturnArr); err != nil {
			return nil, eris.Wrapf(err, "booking: select return %s-%s", req.ReturnDep, req.ReturnArr)
		}
		if err := pause(ctx, c.SelectSettle); err != nil {
			return nil, err
		}
		if err := page.ClickContinue(ctx); err != nil {
			return nil, eris.Wrap(err, "booking: confirm fare")
		}
		if err := pause(ctx, c.ContinueSettle); err != nil {
			return nil, err
		}
	}

	text, err := page.BookingText(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "booking: read booking page")
	}

	details := Parse(text)
	if details.Price == 0 {
		return nil, eris.New("booking: no total price on booking page")
	}
	return details, nil
}

// BookingURL builds the fare-first search URL that opens straight into the
// result list.
func BookingURL(req Request) string {
	q := url.Values{}
	q.Set("dcity", strings.ToLower(req.From))
	q.Set("acity", strings.ToLower(req.To))
	q.Set("ddate", req.DepartDate)
	if req.ReturnDate != "" {
		q.Set("rdate", req.ReturnDate)
		q.Set("triptype", "rt")
	} else {
		q.Set("triptype", "ow")
	}
	q.Set("class", "y")
	q.Set("lowpricesource", "searchform")
	q.Set("quantity", "1")
	q.Set("searchboxarg", "t")
	q.Set("nonstoponly", "off")
	q.Set("locale", "zh-HK")
	q.Set("curr", "CNY")
	return "https://hk.trip.com/chinaflights/showfarefirst?" + q.Encode()
}

func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
