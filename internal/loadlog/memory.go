package loadlog

import "sync"

// Memory is an in-process ledger for tests and embedders. It honors the
// same single-writer contract as File and can inject append failures to
// exercise the indeterminate-state path.
type Memory struct {
	mu      sync.Mutex
	keys    map[key]struct{}
	entries []Entry

	// FailOn, if set, is consulted before each append; a non-nil return
	// is surfaced as the append error and nothing is recorded.
	FailOn func(Entry) error
}

// NewMemory returns an empty in-memory ledger.
func NewMemory() *Memory {
	return &Memory{keys: make(map[key]struct{})}
}

// Seed marks a key as successfully loaded, as if by a prior run.
func (m *Memory) Seed(model, identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key{model: model, identity: identity}] = struct{}{}
}

// Contains reports whether success was recorded for the key.
func (m *Memory) Contains(model, identity string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[key{model: model, identity: identity}]
	return ok
}

// Record appends one entry.
func (m *Memory) Record(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailOn != nil {
		if err := m.FailOn(e); err != nil {
			return err
		}
	}
	m.entries = append(m.entries, e)
	if e.Outcome == OutcomeSuccess {
		m.keys[key{model: e.Model, identity: e.Identity}] = struct{}{}
	}
	return nil
}

// Len returns the number of recorded entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Entries returns a copy of everything recorded, in append order.
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
