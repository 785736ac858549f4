// Package loadlog implements the durable de-duplication ledger. Every
// successfully written record key is appended here, and subsequent runs
// treat logged keys as already satisfied: they are skipped, but still count
// toward their dependents' ordering preconditions. The log is the only
// state that survives a run.
package loadlog

import "time"

// Outcome is the terminal result recorded for one record.
type Outcome string

const (
	// OutcomeSuccess marks a durably completed store write.
	OutcomeSuccess Outcome = "success"
	// OutcomeFailure marks a store write that returned an error.
	OutcomeFailure Outcome = "failure"
)

// Entry is one ledger line. The persisted format is one JSON object per
// line, append-only and human-inspectable.
type Entry struct {
	Model     string    `json:"model"`
	Identity  string    `json:"identity"`
	Outcome   Outcome   `json:"outcome"`
	Timestamp time.Time `json:"timestamp"`
	RunID     string    `json:"run_id,omitempty"`
}

// Log is the ledger contract the engine depends on. Contains answers only
// for successes; failure entries are kept for inspection but never satisfy
// a dependent. Record must not return before the entry is durable.
type Log interface {
	Contains(model, identity string) bool
	Record(e Entry) error
	Len() int
}

type key struct {
	model    string
	identity string
}
