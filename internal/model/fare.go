// Package model holds the value types shared across the farewatch pipeline.
package model

import (
	"fmt"
	"strings"
)

// RouteType classifies how a fare reaches its destination.
type RouteType string

const (
	RouteDirect   RouteType = "direct"
	RouteTransfer RouteType = "transfer"
	RouteStopover RouteType = "stopover"
)

// Price is a monetary amount in the smallest display unit, plus the text it
// was parsed from.
type Price struct {
	Amount int    `json:"amount"`
	Text   string `json:"text"`
}

// FareRecord is one deduplicated flight-price option extracted from a result
// page. Two cards with equal Key() are the same fare.
type FareRecord struct {
	// FlightChain holds the flight designators of a multi-leg itinerary in
	// order. Flight is the joined form ("CZ3455+MU5211").
	FlightChain []string `json:"flightChain,omitempty"`
	Flight      string   `json:"flight"`

	// Depart and Arrive are local clock times (HH:MM) with no date.
	Depart string `json:"dep"`
	Arrive string `json:"arr"`

	Price Price `json:"price"`

	SegmentCount  int       `json:"segmentCount"`
	TransferCount int       `json:"transferCount"`
	StopoverCount int       `json:"stopoverCount"`
	RouteType     RouteType `json:"routeType"`
	TransferInfo  string    `json:"transferInfo,omitempty"`
	StopoverInfo  string    `json:"stopoverInfo,omitempty"`

	// DepartDateTime and ArriveDateTime are absolute date-time strings added
	// by the enricher. Empty until enrichment, and left empty for malformed
	// clock times.
	DepartDateTime string `json:"depDateTime,omitempty"`
	ArriveDateTime string `json:"arrDateTime,omitempty"`

	// Extra is the incremental return cost over a locked outbound, set only
	// in return_after_outbound results with a validated outbound price.
	Extra int `json:"extra,omitempty"`
}

// JoinChain builds the joined designator form from a flight chain.
func JoinChain(chain []string) string {
	return strings.Join(chain, "+")
}

// Key returns the identity key of the fare: two extracted cards with the same
// key represent the same fare and must merge to one record.
func (f FareRecord) Key() string {
	return fmt.Sprintf("%s|%s|%s|%d", f.Flight, f.Depart, f.Arrive, f.Price.Amount)
}

// PriceText returns the display text of the price, synthesizing one from the
// amount when the card carried no usable text.
func (f FareRecord) PriceText() string {
	if f.Price.Text != "" {
		return f.Price.Text
	}
	return fmt.Sprintf("CNY%d", f.Price.Amount)
}

// LegTime renders the fare's departure -> arrival span, preferring the
// enriched absolute date-times when present.
func (f FareRecord) LegTime() string {
	if f.DepartDateTime != "" || f.ArriveDateTime != "" {
		dep, arr := f.DepartDateTime, f.ArriveDateTime
		if dep == "" {
			dep = "--"
		}
		if arr == "" {
			arr = "--"
		}
		return dep + " -> " + arr
	}
	dep, arr := f.Depart, f.Arrive
	if dep == "" {
		dep = "--:--"
	}
	if arr == "" {
		arr = "--:--"
	}
	return dep + "->" + arr
}

// RouteLabel renders the route classification for reports.
func (f FareRecord) RouteLabel() string {
	switch f.RouteType {
	case RouteTransfer:
		n := f.TransferCount
		if n < 1 {
			n = 1
		}
		return fmt.Sprintf("%d transfer", n)
	case RouteStopover:
		n := f.StopoverCount
		if n < 1 {
			n = 1
		}
		return fmt.Sprintf("%d stopover", n)
	default:
		return "direct"
	}
}

// LegInfo returns the free-text transfer or stopover annotation, if any.
func (f FareRecord) LegInfo() string {
	if f.TransferInfo != "" {
		return f.TransferInfo
	}
	return f.StopoverInfo
}
