package search

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/farelab/farewatch/internal/model"
)

const (
	domesticBase = "https://www.ly.com/flights/itinerary/roundtrip"
	intlBase     = "https://www.ly.com/iflight/book1.html"
)

// BuildDomesticURL builds the round-trip itinerary URL for a mainland route.
func BuildDomesticURL(q model.Query) string {
	from := CityLabel(q.Depart)
	to := CityLabel(q.Arrive)
	return fmt.Sprintf("%s/%s-%s?date=%s,%s&from=%s&to=%s&fromairport=&toairport=&p=&childticket=0,0&flightno=%s",
		domesticBase,
		strings.ToUpper(q.Depart), strings.ToUpper(q.Arrive),
		q.DepartDate, q.ReturnDate,
		url.QueryEscape(from), url.QueryEscape(to),
		url.QueryEscape(q.OutboundFlight),
	)
}

// BuildIntlURL builds the international booking URL. Round-trip context uses
// the RT para form with both dates; anything else prices one-way.
func BuildIntlURL(q model.Query, roundtrip bool) string {
	var para string
	if roundtrip {
		para = fmt.Sprintf("%s*%s*%s*%s*RT*1_0_0*Y|S|C|F", q.Depart, q.Arrive, q.DepartDate, q.ReturnDate)
	} else {
		para = fmt.Sprintf("%s*%s*%s**OW*1_0_0*Y|S|C|F", q.Depart, q.Arrive, q.DepartDate)
	}

	interFlag := func(code string) string {
		if IsMainland(code) {
			return "0"
		}
		return "true"
	}

	v := url.Values{}
	v.Set("departureCity", CityLabel(q.Depart))
	v.Set("departureCityIsInter", interFlag(q.Depart))
	v.Set("departAirport", "")
	v.Set("departAirportCode", "")
	v.Set("arrivalCity", CityLabel(q.Arrive))
	v.Set("arrivalCityIsInter", interFlag(q.Arrive))
	v.Set("arriveAirport", "")
	v.Set("arriveAirportCode", "")
	v.Set("advanced", "false")

	return fmt.Sprintf("%s?para=%s&%s", intlBase, url.QueryEscape(para), v.Encode())
}

// QueryURL picks the right entry URL for a query. The locked-outbound modes
// always price in round-trip context.
func QueryURL(q model.Query) string {
	roundtrip := q.Mode != model.ModeOutboundDay || q.TripType == model.TripRoundtripContext
	if IsIntlRoute(q.Depart, q.Arrive) {
		return BuildIntlURL(q, roundtrip)
	}
	// The domestic page locks the outbound by click, not by URL.
	dq := q
	dq.OutboundFlight = ""
	return BuildDomesticURL(dq)
}
