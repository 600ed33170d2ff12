// Package monitor implements the price-watch state machine: a JSON-backed
// store of monitor records, a registry of per-mode behaviors, and a runner
// that re-queries every enabled record and notifies on price changes.
package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/farelab/farewatch/internal/model"
)

// Store owns the monitors JSON document: an ordered array of records,
// pretty-printed, rewritten wholesale on any dirty run. Exactly one runner
// touches it per invocation; concurrent runners are not supported.
type Store struct {
	path string
}

// NewStore points a Store at the JSON document path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the store's file path.
func (s *Store) Path() string { return s.path }

// Load reads the monitor list. A missing, unreadable or corrupt store is
// "no monitors to process", never a failure: the runner must not crash over
// a bad file, and the file is rewritten from scratch on the next dirty run.
func (s *Store) Load() []model.MonitorRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("monitor: store unreadable, treating as empty",
				zap.String("path", s.path), zap.Error(err))
		}
		return nil
	}

	var records []model.MonitorRecord
	if err := json.Unmarshal(data, &records); err != nil {
		zap.L().Warn("monitor: store corrupt, treating as empty",
			zap.String("path", s.path), zap.Error(err))
		return nil
	}
	return records
}

// Save rewrites the store wholesale. Records marshal through
// model.MonitorRecord, so unknown fields loaded from an older or newer
// version survive the rewrite.
func (s *Store) Save(records []model.MonitorRecord) error {
	if records == nil {
		records = []model.MonitorRecord{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "monitor: marshal store")
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "monitor: create store dir")
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return eris.Wrap(err, "monitor: write store")
	}
	return nil
}
