// Package history keeps an append-only sqlite log of observed fare prices so
// a watch's movement can be inspected after the fact.
package history

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/farelab/farewatch/internal/model"
)

// Store is the sqlite-backed observation log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path and
// configures WAL mode.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrap(err, "history: create data dir")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "history: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "history: exec %s", pragma)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS observations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	monitor_id  TEXT NOT NULL,
	mode        TEXT NOT NULL,
	flight      TEXT NOT NULL,
	amount      INTEGER NOT NULL,
	observed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_observations_monitor_id ON observations(monitor_id);
CREATE INDEX IF NOT EXISTS idx_observations_observed_at ON observations(observed_at);
`

// Migrate applies the schema.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, migration)
	return eris.Wrap(err, "history: migrate")
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one successful observation. Implements monitor.HistoryRecorder.
func (s *Store) Record(ctx context.Context, rec model.MonitorRecord, target model.FareRecord, amount int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO observations (monitor_id, mode, flight, amount, observed_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, string(rec.Mode), target.Flight, amount, time.Now().UTC(),
	)
	return eris.Wrapf(err, "history: record observation for %s", rec.ID)
}

// Observation is one logged price point.
type Observation struct {
	MonitorID  string
	Mode       string
	Flight     string
	Amount     int
	ObservedAt time.Time
}

// List returns the most recent observations for a monitor, newest first.
func (s *Store) List(ctx context.Context, monitorID string, limit int) ([]Observation, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT monitor_id, mode, flight, amount, observed_at FROM observations
		 WHERE monitor_id = ? ORDER BY observed_at DESC, id DESC LIMIT ?`,
		monitorID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "history: list observations")
	}
	defer rows.Close()

	var out []Observation
	for rows.Next() {
		var o Observation
		if err := rows.Scan(&o.MonitorID, &o.Mode, &o.Flight, &o.Amount, &o.ObservedAt); err != nil {
			return nil, eris.Wrap(err, "history: scan observation")
		}
		out = append(out, o)
	}
	return out, eris.Wrap(rows.Err(), "history: list iterate")
}
