package search

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/farelab/farewatch/internal/model"
)

// BuildView renders the human-facing table for a search payload. An empty
// fare set yields a fixed "no flights" view rather than an empty table.
func BuildView(res model.SearchResult) model.View {
	if len(res.Flights) == 0 {
		return model.View{Table: "No flights available."}
	}

	switch res.Mode {
	case model.ModeOutboundDay:
		return model.View{
			Table: renderTable(
				fmt.Sprintf("Outbound %s -> %s  %s  (%s)", res.Depart, res.Arrive, res.DepartDate, res.TripType),
				res.Flights, false,
			),
			Hint: "pick an outbound flight by row number or designator",
		}
	case model.ModeReturnAfterOutbound:
		return model.View{
			Table: renderTable(
				fmt.Sprintf("Return %s -> %s  %s  (outbound %s locked at CNY%d)",
					res.Arrive, res.Depart, res.ReturnDate, res.OutboundFlight, res.OutboundPrice),
				res.Flights, true,
			),
			Hint: "pick a return flight by row number or designator",
		}
	default:
		return model.View{
			Table: renderTable(
				fmt.Sprintf("Return options %s -> %s  %s  (outbound %s locked)",
					res.Arrive, res.Depart, res.ReturnDate, res.OutboundFlight),
				res.Flights, false,
			),
			Hint: "roundtrip_locked monitors a fixed outbound/return pair",
		}
	}
}

func renderTable(title string, flights []model.FareRecord, showExtra bool) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	header := table.Row{"#", "Flight", "Time", "Route", "Price"}
	if showExtra {
		header = append(header, "Return +")
	}
	t.AppendHeader(header)

	for i, f := range flights {
		row := table.Row{i + 1, f.Flight, f.LegTime(), f.RouteLabel(), f.PriceText()}
		if showExtra {
			row = append(row, fmt.Sprintf("+CNY%d", f.Extra))
		}
		t.AppendRow(row)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d flights)\n", title, len(flights))
	b.WriteString(t.Render())
	return b.String()
}
