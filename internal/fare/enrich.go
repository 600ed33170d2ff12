package fare

import (
	"regexp"
	"time"

	"github.com/farelab/farewatch/internal/model"
)

const dateLayout = "2006-01-02"

var strictClockRe = regexp.MustCompile(`^(\d{2}):(\d{2})$`)

// Enrich attaches absolute departure/arrival date-times to a fare given the
// trip's base date (YYYY-MM-DD). An arrival clock time earlier in the day
// than the departure means the flight lands the next day; the comparison is
// purely minute-of-day and makes no attempt to detect itineraries spanning
// more than one rollover.
//
// Pure function: malformed clock times or base dates leave the record
// unenriched.
func Enrich(rec model.FareRecord, baseDate string) model.FareRecord {
	depMin, depOK := clockMinutes(rec.Depart)
	arrMin, arrOK := clockMinutes(rec.Arrive)
	if !depOK || !arrOK {
		return rec
	}
	if _, err := time.Parse(dateLayout, baseDate); err != nil {
		return rec
	}

	arrDate := baseDate
	if arrMin < depMin {
		arrDate = AddDays(baseDate, 1)
	}
	rec.DepartDateTime = baseDate + " " + rec.Depart
	rec.ArriveDateTime = arrDate + " " + rec.Arrive
	return rec
}

// AddDays shifts a YYYY-MM-DD date string by n days, returning the input
// unchanged when it does not parse.
func AddDays(date string, n int) string {
	d, err := time.Parse(dateLayout, date)
	if err != nil {
		return date
	}
	return d.AddDate(0, 0, n).Format(dateLayout)
}

func clockMinutes(hhmm string) (int, bool) {
	m := strictClockRe.FindStringSubmatch(hhmm)
	if m == nil {
		return 0, false
	}
	h := int(m[1][0]-'0')*10 + int(m[1][1]-'0')
	min := int(m[2][0]-'0')*10 + int(m[2][1]-'0')
	if h > 23 || min > 59 {
		return 0, false
	}
	return h*60 + min, true
}
