package booking

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	clockLineRe  = regexp.MustCompile(`^\d{2}:\d{2}$`)
	flightLineRe = regexp.MustCompile(`^[A-Z]{2}\d{3,4}$`)
	aircraftRe   = regexp.MustCompile(`空中巴士|波音|A\d{3}|737|321|320|319`)
	totalRe      = regexp.MustCompile(`^CNY[\d,]+$`)
	cabinBagRe   = regexp.MustCompile(`\d\s*[×x]\s*\d+公斤`)
	checkedBagRe = regexp.MustCompile(`總共\d+公斤`)
)

// Parse turns the booking page's raw text sections into structured details.
// Missing sections leave the corresponding fields zero.
func Parse(text PageText) *Details {
	d := &Details{}
	parseFlightInfo(d, text.FlightInfo)
	parsePriceCard(d, text.PriceCard)
	d.Baggage = parseBaggage(text.Baggage)
	return d
}

// parseFlightInfo reads the expanded left panel. Legs are separated by the
// route header lines containing an arrow.
func parseFlightInfo(d *Details, text string) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return
	}

	var seps []int
	for i, l := range lines {
		if strings.Contains(l, "→") {
			seps = append(seps, i)
		}
	}
	switch {
	case len(seps) >= 2:
		d.Outbound = parseSegment(lines[seps[0]:seps[1]])
		d.ReturnFlight = parseSegment(lines[seps[1]:])
	case len(seps) == 1:
		end := seps[0] + 10
		if end > len(lines) {
			end = len(lines)
		}
		d.Outbound = parseSegment(lines[:end])
		d.ReturnFlight = parseSegment(lines[seps[0]:])
	}
}

func parseSegment(lines []string) *Segment {
	seg := &Segment{}
	for _, l := range lines {
		switch {
		case clockLineRe.MatchString(l):
			if seg.Dep == "" {
				seg.Dep = l
			} else if seg.Arr == "" {
				seg.Arr = l
			}
		case seg.Flight == "" && flightLineRe.MatchString(l):
			seg.Flight = l
		case seg.Airline == "" && (strings.HasSuffix(l, "航空") || strings.HasSuffix(l, "Airlines") || strings.HasSuffix(l, "Air")):
			seg.Airline = l
		case seg.Aircraft == "" && aircraftRe.MatchString(l):
			seg.Aircraft = l
		}
	}
	return seg
}

func parsePriceCard(d *Details, text string) {
	lines := splitLines(text)
	if len(lines) == 0 {
		return
	}

	for i, l := range lines {
		switch {
		case l == "總額":
			for _, v := range lines[i+1:] {
				if totalRe.MatchString(v) {
					d.Raw = v
					d.Currency = "CNY"
					d.Price, _ = strconv.Atoi(strings.NewReplacer("CNY", "", ",", "").Replace(v))
					break
				}
			}
		case l == "票價" && i+1 < len(lines):
			d.TicketPrice = lines[i+1]
		case strings.Contains(l, "稅項") && i+1 < len(lines):
			d.Tax = lines[i+1]
		}
	}

	summary := BaggageSummary{}
	for i, l := range lines {
		if i+1 >= len(lines) {
			break
		}
		switch l {
		case "手提行李":
			summary.Cabin = lines[i+1]
		case "託運行李", "托運行李":
			summary.Checked = lines[i+1]
		}
	}
	if summary != (BaggageSummary{}) {
		d.BaggageSummary = &summary
	}
}

// parseBaggage reads the allowance block. Lines containing a full-width dash
// are per-route headers; the allowance figures follow within a few lines.
func parseBaggage(text string) []BaggageAllowance {
	lines := splitLines(text)
	var out []BaggageAllowance
	for i, l := range lines {
		if i <= 2 || !strings.Contains(l, "－") {
			continue
		}
		end := i + 10
		if end > len(lines) {
			end = len(lines)
		}
		allowance := BaggageAllowance{Route: l}
		for _, s := range lines[i:end] {
			if allowance.Cabin == "" && cabinBagRe.MatchString(s) {
				allowance.Cabin = s
			}
			if allowance.Checked == "" && checkedBagRe.MatchString(s) {
				allowance.Checked = s
			}
		}
		out = append(out, allowance)
	}
	return out
}

func splitLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
