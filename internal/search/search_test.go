package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farelab/farewatch/internal/model"
)

// fakePage serves a fixed fare set and records the flow it was driven
// through.
type fakePage struct {
	fares       []model.FareRecord
	navigated   string
	selected    string
	selectErr   error
	extractErr  error
	extractCnt  int
	locationURL string
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.navigated = url
	return nil
}

func (p *fakePage) SelectOutbound(_ context.Context, flight string) error {
	p.selected = flight
	return p.selectErr
}

func (p *fakePage) ExtractFares(context.Context) ([]model.FareRecord, error) {
	p.extractCnt++
	return p.fares, p.extractErr
}

func (p *fakePage) AtBottom(context.Context) (bool, error) { return true, nil }
func (p *fakePage) ScrollForward(context.Context) error    { return nil }

func (p *fakePage) Location(context.Context) (string, error) {
	if p.locationURL != "" {
		return p.locationURL, nil
	}
	return p.navigated, nil
}

type fakeOpener struct{ page *fakePage }

func (o fakeOpener) Page(context.Context) (Page, func(), error) {
	return o.page, func() {}, nil
}

func testFare(flight string, amount int) model.FareRecord {
	return model.FareRecord{
		Flight: flight,
		Depart: "08:00",
		Arrive: "10:30",
		Price:  model.Price{Amount: amount},
	}
}

func newTestSearcher(p *fakePage) *Searcher {
	return New(fakeOpener{page: p}, WithSettle(time.Microsecond))
}

func TestSearch_OutboundDay(t *testing.T) {
	page := &fakePage{fares: []model.FareRecord{testFare("CZ100", 1200), testFare("MU200", 980)}}
	s := newTestSearcher(page)

	res, err := s.Search(context.Background(), model.Query{
		Mode:       model.ModeOutboundDay,
		Depart:     "SZX",
		Arrive:     "CKG",
		DepartDate: "2026-04-03",
	})
	require.NoError(t, err)

	assert.Empty(t, page.selected, "outbound_day never locks a card")
	assert.Equal(t, model.TripOneway, res.TripType)
	assert.Equal(t, "2026-04-04", res.ReturnDate, "return date defaults to next day")
	require.Len(t, res.Flights, 2)
	assert.Equal(t, "MU200", res.Flights[0].Flight, "sorted by price")
	assert.Equal(t, "2026-04-03 08:00", res.Flights[0].DepartDateTime, "enriched with depart date")
	assert.NotEmpty(t, res.View.Table)
}

func TestSearch_ReturnAfterOutbound(t *testing.T) {
	page := &fakePage{fares: []model.FareRecord{testFare("ZH9464", 2650)}}
	s := newTestSearcher(page)

	res, err := s.Search(context.Background(), model.Query{
		Mode:           model.ModeReturnAfterOutbound,
		Depart:         "SZX",
		Arrive:         "CKG",
		DepartDate:     "2026-04-03",
		ReturnDate:     "2026-04-07",
		OutboundFlight: "CZ3455",
		OutboundPrice:  1480,
	})
	require.NoError(t, err)

	assert.Equal(t, "CZ3455", page.selected)
	require.Len(t, res.Flights, 1)
	assert.Equal(t, 2650-1480, res.Flights[0].Extra)
	assert.Equal(t, "2026-04-07 08:00", res.Flights[0].DepartDateTime, "enriched with return date")
}

func TestSearch_InvalidOutboundPriceSkipsExtra(t *testing.T) {
	page := &fakePage{fares: []model.FareRecord{testFare("ZH9464", 2650)}}
	s := newTestSearcher(page)

	res, err := s.Search(context.Background(), model.Query{
		Mode:           model.ModeReturnAfterOutbound,
		Depart:         "SZX",
		Arrive:         "CKG",
		DepartDate:     "2026-04-03",
		ReturnDate:     "2026-04-07",
		OutboundFlight: "CZ3455",
	})
	require.NoError(t, err)
	assert.Zero(t, res.Flights[0].Extra, "no increment without a validated outbound price")
}

func TestSearch_RoundtripLockedSelectsOutbound(t *testing.T) {
	page := &fakePage{fares: []model.FareRecord{testFare("ZH9464", 2800)}}
	s := newTestSearcher(page)

	res, err := s.Search(context.Background(), model.Query{
		Mode:           model.ModeRoundtripLocked,
		Depart:         "SZX",
		Arrive:         "CKG",
		DepartDate:     "2026-04-03",
		ReturnDate:     "2026-04-07",
		OutboundFlight: "CZ3455",
	})
	require.NoError(t, err)
	assert.Equal(t, "CZ3455", page.selected)
	assert.Zero(t, res.Flights[0].Extra)
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	page := &fakePage{}
	s := newTestSearcher(page)

	res, err := s.Search(context.Background(), model.Query{
		Mode:       model.ModeOutboundDay,
		Depart:     "SZX",
		Arrive:     "CKG",
		DepartDate: "2026-04-03",
	})
	require.NoError(t, err)
	assert.NotNil(t, res.Flights)
	assert.Empty(t, res.Flights)
	assert.Equal(t, "No flights available.", res.View.Table)
}

func TestSearch_Validation(t *testing.T) {
	s := newTestSearcher(&fakePage{})

	_, err := s.Search(context.Background(), model.Query{Mode: model.ModeOutboundDay})
	assert.Error(t, err)

	_, err = s.Search(context.Background(), model.Query{
		Mode: model.ModeRoundtripLocked, Depart: "SZX", Arrive: "CKG", DepartDate: "2026-04-03",
	})
	assert.Error(t, err, "locked modes need returnDate and outboundFlight")

	_, err = s.Search(context.Background(), model.Query{
		Mode: "bogus", Depart: "SZX", Arrive: "CKG", DepartDate: "2026-04-03",
	})
	assert.Error(t, err)
}
