// Package batch linearizes a dependency graph into an ordered sequence of
// size-bounded batches. All records within one batch are mutually
// independent, so the engine may dispatch them concurrently; batches
// themselves are strictly ordered.
//
// The algorithm is Kahn's, batched: repeatedly take the set of nodes with
// no unsatisfied dependencies, emit up to the configured maximum of them as
// one batch, mark them satisfied, and recompute. The tie-break within a
// ready set is the insertion order of the original input, never map
// iteration, so a given input always yields the same plan.
package batch

import (
	"fmt"

	"github.com/soward/depload/internal/graph"
	"github.com/soward/depload/internal/record"
)

// DefaultSize is the batch bound used when the caller does not configure
// one.
const DefaultSize = 50

// Batch is one ordered group of mutually independent records.
type Batch struct {
	Seq     int
	Records []*record.Record
}

// Plan computes the full batch sequence for the graph. It either returns a
// complete, valid plan or a CyclicDependencyError naming one offending
// cycle; it never emits a partial plan, so no side effect can happen before
// ordering correctness is fully established.
func Plan(g *graph.Graph, size int) ([]Batch, error) {
	if size <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", size)
	}

	nodes := g.Nodes()
	remaining := make(map[string]int, g.Len())
	satisfied := make(map[string]bool, g.Len())
	for _, n := range nodes {
		remaining[n.ID()] = g.DepCount(n.ID())
	}

	settle := func(id string) {
		satisfied[id] = true
		for _, dep := range g.Dependents(id) {
			remaining[dep]--
		}
	}

	done := 0
	var batches []Batch
	for done < g.Len() {
		// Model barriers are synthetic: they become satisfied as soon
		// as their dependencies are, costing no batch slot. Satisfying
		// one may ready another, so cascade.
		for progressed := true; progressed; {
			progressed = false
			for _, n := range nodes {
				id := n.ID()
				if n.Kind != graph.ModelNode || satisfied[id] || remaining[id] != 0 {
					continue
				}
				settle(id)
				done++
				progressed = true
			}
		}

		var ready []*graph.Node
		for _, n := range nodes {
			if n.Kind != graph.RecordNode || satisfied[n.ID()] || remaining[n.ID()] != 0 {
				continue
			}
			ready = append(ready, n)
			if len(ready) == size {
				break
			}
		}
		if len(ready) == 0 {
			if done == g.Len() {
				break
			}
			return nil, residualCycle(g, satisfied)
		}

		b := Batch{Seq: len(batches), Records: make([]*record.Record, 0, len(ready))}
		for _, n := range ready {
			settle(n.ID())
			done++
			b.Records = append(b.Records, n.Record)
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// residualCycle extracts one concrete cycle from the unsatisfied residue.
// Every residual node has at least one unsatisfied dependency, so walking
// first-unsatisfied-dep links must revisit a node.
func residualCycle(g *graph.Graph, satisfied map[string]bool) error {
	var start string
	for _, n := range g.Nodes() {
		if !satisfied[n.ID()] {
			start = n.ID()
			break
		}
	}

	seen := make(map[string]int)
	var walk []string
	cur := start
	for {
		if at, ok := seen[cur]; ok {
			cycle := append(walk[at:], cur)
			path := make([]string, len(cycle))
			for i, id := range cycle {
				n, _ := g.Node(id)
				path[i] = n.Label()
			}
			return &graph.CyclicDependencyError{Path: path}
		}
		seen[cur] = len(walk)
		walk = append(walk, cur)
		for _, dep := range g.Deps(cur) {
			if !satisfied[dep] {
				cur = dep
				break
			}
		}
	}
}
