package model

// TripType tags how a single-day outbound scan prices its fares.
const (
	TripOneway           = "oneway"
	TripRoundtripContext = "roundtrip_context"
)

// Query is one invocation of the search capability. Mode decides which of
// the optional fields are meaningful.
type Query struct {
	Mode       MonitorMode `json:"mode"`
	Depart     string      `json:"depart"`
	Arrive     string      `json:"arrive"`
	DepartDate string      `json:"departDate"`
	ReturnDate string      `json:"returnDate,omitempty"`

	// TripType applies to outbound_day.
	TripType string `json:"tripType,omitempty"`

	// OutboundFlight locks the outbound leg for roundtrip_locked and
	// return_after_outbound; OutboundPrice is the already-paid outbound
	// amount for return_after_outbound.
	OutboundFlight string `json:"outboundFlight,omitempty"`
	OutboundPrice  int    `json:"outboundPrice,omitempty"`
}

// View is the pre-rendered human-facing part of a search result.
type View struct {
	Table string `json:"table,omitempty"`
	Hint  string `json:"hint,omitempty"`
}

// SearchResult is the search capability's reply: the deduplicated fares plus
// an echo of the query and a rendered table for reporting.
type SearchResult struct {
	Query
	SourceURL string       `json:"sourceUrl,omitempty"`
	Flights   []FareRecord `json:"flights"`
	View      View         `json:"view"`
}
