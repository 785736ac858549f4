// Package record holds the canonical in-memory representation of one input
// row: its target model, its resolved identity, and its raw fields in input
// order. Records are built once per run by the source decoders and are
// immutable afterwards; everything downstream (graph, batcher, engine) only
// reads them.
package record

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// IdentityKind distinguishes the two ways a record can be addressed in a
// parent or reference column: by external id (column `id`) or by database
// id (column `.id`).
type IdentityKind int

const (
	// ExternalID is a stable, human-assigned identifier (the `id` column).
	ExternalID IdentityKind = iota
	// DatabaseID is the target store's own row identifier (the `.id` column).
	DatabaseID
)

func (k IdentityKind) String() string {
	switch k {
	case ExternalID:
		return "id"
	case DatabaseID:
		return ".id"
	default:
		return fmt.Sprintf("IdentityKind(%d)", int(k))
	}
}

// Identity is the per-run stable key of a record within its model.
type Identity struct {
	Kind  IdentityKind
	Value string
}

// Field is a single named raw value. Field order is significant and must
// survive decoding: the store client receives fields exactly as they
// appeared in the input.
type Field struct {
	Name  string
	Value string
}

// Record is one input row bound to a target model.
type Record struct {
	Model    string
	Identity Identity
	Fields   []Field
	// Row is the 1-based row (or element) number in the originating
	// source, kept for error messages only.
	Row int
}

// Key is the (model, identity value) pair used for dedup lookups in the
// load log and for cross-record reference resolution.
type Key struct {
	Model    string `json:"model"`
	Identity string `json:"identity"`
}

func (k Key) String() string {
	return k.Model + "/" + k.Identity
}

// Key returns the record's dedup key.
func (r *Record) Key() Key {
	return Key{Model: r.Model, Identity: r.Identity.Value}
}

// Field returns the value of the named field and whether it is present.
func (r *Record) Field(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Normalize NFC-normalizes a model name or identity value. Dedup keys must
// compare equal across runs even when two sources encode the same string
// with different Unicode compositions.
func Normalize(s string) string {
	return norm.NFC.String(s)
}
