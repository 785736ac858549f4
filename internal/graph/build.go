package graph

import (
	"github.com/soward/depload/internal/catalog"
	"github.com/soward/depload/internal/record"
)

// Ledger is the read side of the load log: the set of keys already loaded
// by prior runs. References resolving into the ledger are satisfied without
// an edge.
type Ledger interface {
	Contains(model, identity string) bool
}

// Build constructs the merged dependency graph for one run.
//
// Layering:
//   - every record's model must exist in the catalog (UnknownModelError);
//   - declared model-level references between models present in the run are
//     cycle-checked before anything else (CyclicDependencyError);
//   - within a hierarchical model, parent columns become parent→child
//     record edges; a parent value resolving nowhere is a
//     DanglingParentError unless the ledger already has it;
//   - reference columns carrying identities (`/id`, `/.id`) are resolved
//     per record: an in-run hit becomes an edge, a ledger hit is satisfied,
//     anything else is assumed to already exist in the target store;
//   - plain reference columns cannot be resolved per record, so their
//     holder depends on the referenced model's barrier node instead.
//
// No side effect may happen before Build succeeds: every structural error
// is detected here, with zero writes issued.
func Build(set *record.Set, cat *catalog.Catalog, ledger Ledger) (*Graph, error) {
	for _, model := range set.Models() {
		if !cat.Has(model) {
			return nil, &UnknownModelError{Model: model}
		}
	}

	inRun := make(map[string]bool, len(set.Models()))
	for _, model := range set.Models() {
		inRun[model] = true
	}

	// Model-level structural validation first: a cycle among declared
	// references means per-record expansion cannot be trusted.
	modelDeps := runModelDeps(cat, inRun)
	if cycle := modelCycle(set.Models(), modelDeps); cycle != nil {
		path := make([]string, len(cycle))
		for i, m := range cycle {
			path[i] = "model " + m
		}
		return nil, &CyclicDependencyError{Path: path}
	}

	g := newGraph()
	for _, model := range set.Models() {
		g.addNode(&Node{Kind: ModelNode, Model: model})
	}
	for _, r := range set.Records() {
		g.addNode(&Node{Kind: RecordNode, Model: r.Model, Record: r})
	}

	// A model barrier is satisfied once all of its records are.
	for _, r := range set.Records() {
		g.addEdge(recordID(r.Model, r.Identity.Value), modelID(r.Model))
	}
	// Declared model ordering, kept for completeness of the model layer;
	// record load order comes from the per-record edges below.
	for _, d := range modelDeps {
		g.addEdge(modelID(d.ToModel), modelID(d.FromModel))
	}

	for _, r := range set.Records() {
		if err := seedRecordEdges(g, set, cat, ledger, r); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// seedRecordEdges adds all inbound edges of one record.
func seedRecordEdges(g *Graph, set *record.Set, cat *catalog.Catalog, ledger Ledger, r *record.Record) error {
	parentField, _ := cat.ParentField(r.Model)
	rid := recordID(r.Model, r.Identity.Value)

	for _, f := range r.Fields {
		col := record.ParseColumn(f.Name)
		if col.Nested {
			return &UnsupportedNestingError{Model: r.Model, Column: f.Name, Row: r.Row}
		}
		value := record.Normalize(f.Value)
		if value == "" {
			continue
		}

		// A parent reference is a parent column carrying an identity
		// suffix. A plain parent column holds an opaque name-lookup
		// value the store resolves itself, and falls through below.
		if parentField != "" && col.Base == parentField && col.Ref != record.RefNone {
			if target, ok := cat.FieldReferencesModel(r.Model, col.Base); ok && target != r.Model {
				return &UnsupportedNestingError{Model: r.Model, Column: f.Name, Row: r.Row}
			}
			if parent, ok := set.Lookup(r.Model, value); ok {
				if parent == r {
					return selfCycle(r)
				}
				g.addEdge(recordID(r.Model, parent.Identity.Value), rid)
				continue
			}
			if ledger.Contains(r.Model, value) {
				continue
			}
			return &DanglingParentError{Model: r.Model, Identity: r.Identity.Value, Ref: value, Row: r.Row}
		}

		target, ok := cat.FieldReferencesModel(r.Model, col.Base)
		if !ok {
			continue
		}

		switch col.Ref {
		case record.RefExternal, record.RefDatabase:
			if dep, found := set.Lookup(target, value); found {
				if dep == r {
					return selfCycle(r)
				}
				g.addEdge(recordID(target, dep.Identity.Value), rid)
			}
			// A ledger hit, or a miss, needs no edge: either a prior
			// run loaded the record or it pre-exists in the store.
		case record.RefNone:
			// Name-lookup reference: unresolvable per record, so wait
			// for the referenced model as a whole. Self-model lookups
			// stay a record-level concern and get no barrier.
			if target != r.Model {
				if _, present := g.Node(modelID(target)); present {
					g.addEdge(modelID(target), rid)
				}
			}
		}
	}
	return nil
}

// selfCycle reports a record whose reference resolves to itself: a
// one-node cycle. The graph never stores self-edges, so this must be
// caught before the edge would be dropped.
func selfCycle(r *record.Record) error {
	label := r.Model + "/" + r.Identity.Value
	return &CyclicDependencyError{Path: []string{label, label}}
}

// runModelDeps restricts the catalog's declared dependencies to models
// actually present in the run.
func runModelDeps(cat *catalog.Catalog, inRun map[string]bool) []catalog.Dependency {
	var deps []catalog.Dependency
	for _, d := range cat.Dependencies() {
		if inRun[d.FromModel] && inRun[d.ToModel] {
			deps = append(deps, d)
		}
	}
	return deps
}

// ValidateModels cycle-checks every declared model-level dependency in the
// catalog, unrestricted by any run. Used by `depload catalog vet`.
func ValidateModels(cat *catalog.Catalog) error {
	if cycle := modelCycle(cat.Models(), cat.Dependencies()); cycle != nil {
		path := make([]string, len(cycle))
		for i, m := range cycle {
			path[i] = "model " + m
		}
		return &CyclicDependencyError{Path: path}
	}
	return nil
}

// modelCycle runs a depth-first search over the model-level edges and
// returns one cycle path (first model repeated at the end), or nil.
func modelCycle(models []string, deps []catalog.Dependency) []string {
	next := make(map[string][]string)
	for _, d := range deps {
		// toModel loads before fromModel.
		next[d.ToModel] = append(next[d.ToModel], d.FromModel)
	}

	permanent := make(map[string]bool)
	temporary := make(map[string]bool)
	var stack []string
	var cycle []string

	var visit func(m string) bool
	visit = func(m string) bool {
		if permanent[m] {
			return false
		}
		if temporary[m] {
			// Unwind the stack back to the first occurrence of m.
			start := 0
			for i, s := range stack {
				if s == m {
					start = i
					break
				}
			}
			cycle = append(append(cycle, stack[start:]...), m)
			return true
		}
		temporary[m] = true
		stack = append(stack, m)
		for _, n := range next[m] {
			if visit(n) {
				return true
			}
		}
		stack = stack[:len(stack)-1]
		delete(temporary, m)
		permanent[m] = true
		return false
	}

	for _, m := range models {
		if visit(m) {
			return cycle
		}
	}
	return nil
}
