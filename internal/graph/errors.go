package graph

import (
	"fmt"
	"strings"
)

// UnknownModelError reports a record whose model the catalog does not know.
// Unknown models abort the run; silently skipping them would hide typos in
// source filenames.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q: not declared in the catalog", e.Model)
}

// DanglingParentError reports a parent reference that resolves neither to an
// in-run record nor to a previously loaded one. The hierarchy of a tree
// model is closed over the run plus the load log, so a miss is bad input.
type DanglingParentError struct {
	Model    string
	Identity string
	Ref      string
	Row      int
}

func (e *DanglingParentError) Error() string {
	return fmt.Sprintf("dangling parent reference: %s/%s (row %d) references %q, which is neither in this run nor in the load log",
		e.Model, e.Identity, e.Row, e.Ref)
}

// UnsupportedNestingError reports a column that addresses records outside
// the model's own single-level hierarchy: either a nested sub-record path
// or a parent column pointing at a different model. Only single-model tree
// hierarchies are resolved at record level; nested structures carry no
// stable identifier per nesting level, so their load order is undecidable.
type UnsupportedNestingError struct {
	Model  string
	Column string
	Row    int
}

func (e *UnsupportedNestingError) Error() string {
	return fmt.Sprintf("unsupported nesting: column %q on %s (row %d); only single-model tree hierarchies are resolved",
		e.Column, e.Model, e.Row)
}

// CyclicDependencyError reports that no valid load order exists. Path holds
// the labels of the nodes on one offending cycle, first node repeated at
// the end.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency: %s", strings.Join(e.Path, " -> "))
}
