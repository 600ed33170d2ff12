package monitor

import (
	"fmt"

	"github.com/farelab/farewatch/internal/fare"
	"github.com/farelab/farewatch/internal/model"
)

// handler is the behavior bundle for one monitoring mode. The registry is a
// closed mapping from mode tag to one of these; adding a mode means adding
// an entry, not a subclass.
type handler struct {
	// query builds the search invocation for a record.
	query func(m model.MonitorRecord) model.Query
	// title heads every report for this record, success or not.
	title func(m model.MonitorRecord) string
	// emptyMessage is reported when the query returns zero fares.
	emptyMessage string
	// selectTarget picks the fare this mode watches, nil when absent.
	selectTarget func(flights []model.FareRecord, m model.MonitorRecord) *model.FareRecord
	// missingTarget is reported when selectTarget comes up empty on a
	// non-empty result set.
	missingTarget func(m model.MonitorRecord) string
	// currentValue extracts the amount under watch from the target.
	currentValue func(t model.FareRecord) int
	// previousValue reads the comparison baseline, nil on first observation.
	previousValue func(m model.MonitorRecord) *int
	// reportTail renders the mode-specific report lines.
	reportTail func(rc reportContext) []string
	// persist writes the new observation into a copy of the record.
	persist func(m model.MonitorRecord, t model.FareRecord, current int) model.MonitorRecord

	notifyTitle  string
	notifyDetail func(rc reportContext) []string
}

// reportContext carries everything report and notification renderers need.
type reportContext struct {
	record   model.MonitorRecord
	target   model.FareRecord
	current  int
	previous *int
}

// NotifyCondition is the change trigger shared by all modes: a first
// observation never notifies, and neither does an unchanged price.
func NotifyCondition(previous *int, current int) bool {
	return previous != nil && *previous != current
}

// FormatDelta renders a price movement for reports and notifications.
func FormatDelta(delta int) string {
	switch {
	case delta > 0:
		return fmt.Sprintf("up CNY%d", delta)
	case delta < 0:
		return fmt.Sprintf("down CNY%d", -delta)
	default:
		return "unchanged"
	}
}

// tripTypeOf resolves an outbound_day record's trip-type tag, defaulting by
// whether the watch has a return date at all.
func tripTypeOf(m model.MonitorRecord) string {
	if m.TripType != "" {
		return m.TripType
	}
	if m.ReturnDate != "" {
		return model.TripRoundtripContext
	}
	return model.TripOneway
}

func pickCheapest(flights []model.FareRecord, _ model.MonitorRecord) *model.FareRecord {
	if len(flights) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(flights); i++ {
		if flights[i].Price.Amount < flights[best].Price.Amount {
			best = i
		}
	}
	return &flights[best]
}

func fareAmount(t model.FareRecord) int { return t.Price.Amount }

// legDep and legArr prefer the enriched absolute date-times for snapshots.
func legDep(t model.FareRecord) string {
	if t.DepartDateTime != "" {
		return t.DepartDateTime
	}
	return t.Depart
}

func legArr(t model.FareRecord) string {
	if t.ArriveDateTime != "" {
		return t.ArriveDateTime
	}
	return t.Arrive
}

// bestReturnPrice is the increment of the best return over the locked
// outbound. The search layer only sets Extra for a validated outbound
// price; without one there is no meaningful increment and zero is reported.
func bestReturnPrice(m model.MonitorRecord, t model.FareRecord, current int) int {
	if t.Extra != 0 {
		return t.Extra
	}
	if m.OutboundPrice > 0 {
		return current - m.OutboundPrice
	}
	return 0
}

func currentLine(previous *int, current int, label string) string {
	if previous == nil {
		return fmt.Sprintf("%s: CNY%d (first observation)", label, current)
	}
	return fmt.Sprintf("%s: CNY%d last -> CNY%d now (%s)", label, *previous, current, FormatDelta(current-*previous))
}

func legInfoLine(t model.FareRecord) string {
	if info := t.LegInfo(); info != "" {
		return "stop detail: " + info
	}
	return ""
}

// handlers is the mode registry. The three modes are the closed set of
// monitoring strategies; dispatch happens by tag through this table.
var handlers = map[model.MonitorMode]handler{

	model.ModeRoundtripLocked: {
		query: func(m model.MonitorRecord) model.Query {
			return model.Query{
				Mode:           model.ModeRoundtripLocked,
				Depart:         m.Depart,
				Arrive:         m.Arrive,
				DepartDate:     m.DepartDate,
				ReturnDate:     m.ReturnDate,
				OutboundFlight: m.OutboundFlight,
			}
		},
		title: func(m model.MonitorRecord) string {
			return fmt.Sprintf("Roundtrip locked: %s -> %s  %s/%s", m.Depart, m.Arrive, m.DepartDate, m.ReturnDate)
		},
		emptyMessage: "No return options found.",
		selectTarget: func(flights []model.FareRecord, m model.MonitorRecord) *model.FareRecord {
			for i := range flights {
				if flights[i].Flight == m.ReturnFlight {
					return &flights[i]
				}
			}
			return nil
		},
		missingTarget: func(m model.MonitorRecord) string {
			return fmt.Sprintf("Return flight not found: %s", m.ReturnFlight)
		},
		currentValue: fareAmount,
		previousValue: func(m model.MonitorRecord) *int {
			return m.LastObservedTotalPrice
		},
		reportTail: func(rc reportContext) []string {
			return []string{
				fmt.Sprintf("outbound %s | return %s", rc.record.OutboundFlight, rc.record.ReturnFlight),
				fmt.Sprintf("baseline total: CNY%d", rc.record.BaselineTotalPrice),
				currentLine(rc.previous, rc.current, "current total"),
				legInfoLine(rc.target),
			}
		},
		persist: func(m model.MonitorRecord, t model.FareRecord, current int) model.MonitorRecord {
			m.LastObservedTotalPrice = &current
			m.LastObservedReturnDep = legDep(t)
			m.LastObservedReturnArr = legArr(t)
			return m
		},
		notifyTitle: "Locked round-trip price changed",
		notifyDetail: func(rc reportContext) []string {
			m := rc.record
			return []string{
				fmt.Sprintf("%s->%s  %s/%s", m.Depart, m.Arrive, m.DepartDate, m.ReturnDate),
				fmt.Sprintf("outbound %s | return %s", m.OutboundFlight, m.ReturnFlight),
				fmt.Sprintf("baseline total CNY%d", m.BaselineTotalPrice),
			}
		},
	},

	model.ModeOutboundDay: {
		query: func(m model.MonitorRecord) model.Query {
			returnDate := m.ReturnDate
			if returnDate == "" {
				returnDate = fare.AddDays(m.DepartDate, 1)
			}
			return model.Query{
				Mode:       model.ModeOutboundDay,
				Depart:     m.Depart,
				Arrive:     m.Arrive,
				DepartDate: m.DepartDate,
				ReturnDate: returnDate,
				TripType:   tripTypeOf(m),
			}
		},
		title: func(m model.MonitorRecord) string {
			return fmt.Sprintf("Outbound day: %s -> %s  %s", m.Depart, m.Arrive, m.DepartDate)
		},
		emptyMessage:  "No flights found.",
		selectTarget:  pickCheapest,
		missingTarget: nil,
		currentValue:  fareAmount,
		previousValue: func(m model.MonitorRecord) *int {
			return m.LastObservedMinPrice
		},
		reportTail: func(rc reportContext) []string {
			t := rc.target
			return []string{
				currentLine(rc.previous, rc.current, "lowest price"),
				fmt.Sprintf("cheapest flight: %s  %s [%s]", t.Flight, t.LegTime(), t.RouteLabel()),
				legInfoLine(t),
				"trip type: " + tripTypeOf(rc.record),
			}
		},
		persist: func(m model.MonitorRecord, t model.FareRecord, current int) model.MonitorRecord {
			m.LastObservedMinPrice = &current
			m.TripType = tripTypeOf(m)
			m.LastObservedFlight = t.Flight
			m.LastObservedDep = legDep(t)
			m.LastObservedArr = legArr(t)
			return m
		},
		notifyTitle: "Outbound-day lowest price changed",
		notifyDetail: func(rc reportContext) []string {
			m, t := rc.record, rc.target
			return []string{
				fmt.Sprintf("%s->%s  %s", m.Depart, m.Arrive, m.DepartDate),
				"trip type: " + tripTypeOf(m),
				fmt.Sprintf("current cheapest: %s %s [%s]", t.Flight, t.LegTime(), t.RouteLabel()),
			}
		},
	},

	model.ModeReturnAfterOutbound: {
		query: func(m model.MonitorRecord) model.Query {
			return model.Query{
				Mode:           model.ModeReturnAfterOutbound,
				Depart:         m.Depart,
				Arrive:         m.Arrive,
				DepartDate:     m.DepartDate,
				ReturnDate:     m.ReturnDate,
				OutboundFlight: m.OutboundFlight,
				OutboundPrice:  m.OutboundPrice,
			}
		},
		title: func(m model.MonitorRecord) string {
			return fmt.Sprintf("Best return: %s -> %s  %s/%s", m.Depart, m.Arrive, m.DepartDate, m.ReturnDate)
		},
		emptyMessage:  "No return options found.",
		selectTarget:  pickCheapest,
		missingTarget: nil,
		currentValue:  fareAmount,
		previousValue: func(m model.MonitorRecord) *int {
			return m.LastObservedBestTotal
		},
		reportTail: func(rc reportContext) []string {
			m, t := rc.record, rc.target
			return []string{
				fmt.Sprintf("locked outbound: %s  CNY%d", m.OutboundFlight, m.OutboundPrice),
				currentLine(rc.previous, rc.current, "best total"),
				fmt.Sprintf("best return: %s  %s [%s] +CNY%d",
					t.Flight, t.LegTime(), t.RouteLabel(), bestReturnPrice(m, t, rc.current)),
				legInfoLine(t),
			}
		},
		persist: func(m model.MonitorRecord, t model.FareRecord, current int) model.MonitorRecord {
			best := bestReturnPrice(m, t, current)
			m.LastObservedBestTotal = &current
			m.LastObservedBestReturnPrice = &best
			m.LastObservedBestReturnFlight = t.Flight
			m.LastObservedBestReturnDep = legDep(t)
			m.LastObservedBestReturnArr = legArr(t)
			return m
		},
		notifyTitle: "Best round-trip total changed for locked outbound",
		notifyDetail: func(rc reportContext) []string {
			m, t := rc.record, rc.target
			return []string{
				fmt.Sprintf("%s->%s  %s/%s", m.Depart, m.Arrive, m.DepartDate, m.ReturnDate),
				fmt.Sprintf("locked outbound: %s (CNY%d)", m.OutboundFlight, m.OutboundPrice),
				fmt.Sprintf("current best return: %s %s [%s] (+CNY%d)",
					t.Flight, t.LegTime(), t.RouteLabel(), bestReturnPrice(m, t, rc.current)),
			}
		},
	},
}
