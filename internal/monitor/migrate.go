package monitor

import (
	"go.uber.org/zap"

	"github.com/farelab/farewatch/internal/model"
)

// Migrate upgrades a record predating the mode tag into the closest current
// mode, returning the (possibly) updated copy and whether anything changed.
//
// A legacy record carrying a single fixed designator and a reference price
// was a "watch the return given this outbound" watch: it becomes
// return_after_outbound with the designator and price seeded as the locked
// outbound and the reference price carried in as the last observed total.
// Anything else becomes an outbound_day watch.
//
// Idempotent: a record that already has a mode is returned untouched, so the
// runner can call this on every record, every run.
func Migrate(rec model.MonitorRecord) (model.MonitorRecord, bool) {
	if rec.Mode != "" {
		return rec, false
	}

	if rec.Flight != "" && rec.RefPrice != nil {
		rec.Mode = model.ModeReturnAfterOutbound
		rec.OutboundFlight = rec.Flight
		rec.OutboundPrice = *rec.RefPrice
		if rec.LastObservedBestTotal == nil {
			carried := *rec.RefPrice
			rec.LastObservedBestTotal = &carried
		}
	} else {
		rec.Mode = model.ModeOutboundDay
	}

	zap.L().Info("monitor: migrated legacy record",
		zap.String("id", rec.ID),
		zap.String("mode", string(rec.Mode)),
	)
	return rec, true
}
