package record

import "fmt"

// DuplicateIdentityError reports two records in one run sharing the same
// (model, identity) key. Identities must be unique per model per run; a
// duplicate is a structural error, not a silent overwrite.
type DuplicateIdentityError struct {
	Model    string
	Identity string
	Row      int
}

func (e *DuplicateIdentityError) Error() string {
	return fmt.Sprintf("duplicate identity %s/%s (row %d)", e.Model, e.Identity, e.Row)
}

// Set is the per-run collection of records. It preserves insertion order,
// which the batcher's tie-break depends on, and indexes records by key for
// reference resolution.
type Set struct {
	records []*Record
	byKey   map[Key]*Record
	models  []string
	seen    map[string]bool
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{
		byKey: make(map[Key]*Record),
		seen:  make(map[string]bool),
	}
}

// Add appends a record, rejecting duplicate identities within the run.
func (s *Set) Add(r *Record) error {
	key := r.Key()
	if _, ok := s.byKey[key]; ok {
		return &DuplicateIdentityError{Model: r.Model, Identity: r.Identity.Value, Row: r.Row}
	}
	s.byKey[key] = r
	s.records = append(s.records, r)
	if !s.seen[r.Model] {
		s.seen[r.Model] = true
		s.models = append(s.models, r.Model)
	}
	return nil
}

// Records returns all records in insertion order. The returned slice is
// shared; callers must not mutate it.
func (s *Set) Records() []*Record {
	return s.records
}

// Lookup resolves a (model, identity value) key to an in-run record.
func (s *Set) Lookup(model, identity string) (*Record, bool) {
	r, ok := s.byKey[Key{Model: model, Identity: identity}]
	return r, ok
}

// Models returns the distinct models present, in first-seen order.
func (s *Set) Models() []string {
	return s.models
}

// Len returns the number of records in the set.
func (s *Set) Len() int {
	return len(s.records)
}
