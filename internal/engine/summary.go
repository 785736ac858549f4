package engine

import (
	"time"

	"github.com/soward/depload/internal/record"
)

// RecordError names one record that reached a failed outcome.
type RecordError struct {
	Key record.Key `json:"key"`
	Err string     `json:"error"`
}

// Summary is the user-visible result of one run. A run always ends with
// one of: clean success (Failed and Blocked zero), partial success (the
// failed/blocked lists are populated), or a structural failure with zero
// writes, in which case no summary is produced at all.
type Summary struct {
	RunID   string        `json:"run_id"`
	Batches int           `json:"batches"`
	Loaded  int           `json:"loaded"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Blocked int           `json:"blocked"`
	Elapsed time.Duration `json:"elapsed"`

	Failures    []RecordError `json:"failures,omitempty"`
	BlockedKeys []record.Key  `json:"blocked_keys,omitempty"`
}

// Clean reports whether every record either loaded or was a known
// duplicate.
func (s *Summary) Clean() bool {
	return s.Failed == 0 && s.Blocked == 0
}
