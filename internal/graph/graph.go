// Package graph builds the merged dependency graph the batcher linearizes.
//
// The graph holds two node granularities behind one node type. Record nodes
// stand for individual input records and carry the real "must be loaded
// before" edges: tree parent references within a hierarchical model and
// resolved cross-model reference values. Model nodes are synthetic
// aggregation barriers: a model node is satisfied once every record of that
// model is, and records whose reference values cannot be resolved per
// record (plain name-lookup columns) depend on the referenced model's node
// as a whole. Keeping both granularities in one graph lets the batching
// algorithm be written once.
package graph

import "github.com/soward/depload/internal/record"

// Kind tags a node's granularity.
type Kind int

const (
	// ModelNode is a synthetic whole-model barrier.
	ModelNode Kind = iota
	// RecordNode is one input record.
	RecordNode
)

// Node is one vertex in the merged graph.
type Node struct {
	Kind   Kind
	Model  string
	Record *record.Record // nil for model nodes
}

// ID returns the node's unique graph key.
func (n *Node) ID() string {
	if n.Kind == ModelNode {
		return modelID(n.Model)
	}
	return recordID(n.Model, n.Record.Identity.Value)
}

// Label returns the node's human-readable name for error messages.
func (n *Node) Label() string {
	if n.Kind == ModelNode {
		return "model " + n.Model
	}
	return n.Model + "/" + n.Record.Identity.Value
}

func modelID(model string) string {
	return "m\x00" + model
}

func recordID(model, identity string) string {
	return "r\x00" + model + "\x00" + identity
}

// Graph is a directed "must be loaded before" graph over model and record
// nodes. It is built once per run and only read afterwards.
type Graph struct {
	nodes      map[string]*Node
	order      []string
	index      map[string]int
	deps       map[string]map[string]struct{}
	dependents map[string]map[string]struct{}
}

func newGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]*Node),
		index:      make(map[string]int),
		deps:       make(map[string]map[string]struct{}),
		dependents: make(map[string]map[string]struct{}),
	}
}

func (g *Graph) addNode(n *Node) {
	id := n.ID()
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = n
	g.index[id] = len(g.order)
	g.order = append(g.order, id)
	g.deps[id] = make(map[string]struct{})
	g.dependents[id] = make(map[string]struct{})
}

// addEdge records that `from` must be satisfied before `to`.
func (g *Graph) addEdge(fromID, toID string) {
	if fromID == toID {
		return
	}
	g.deps[toID][fromID] = struct{}{}
	g.dependents[fromID][toID] = struct{}{}
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.order))
	for i, id := range g.order {
		out[i] = g.nodes[id]
	}
	return out
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// DepCount returns the number of direct dependencies of the node.
func (g *Graph) DepCount(id string) int {
	return len(g.deps[id])
}

// Deps returns the node's direct dependencies in insertion order.
func (g *Graph) Deps(id string) []string {
	return g.sorted(g.deps[id])
}

// Dependents returns the nodes directly depending on the node, in
// insertion order.
func (g *Graph) Dependents(id string) []string {
	return g.sorted(g.dependents[id])
}

// sorted orders a node-ID set by graph insertion index so every caller
// observes edges deterministically.
func (g *Graph) sorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && g.index[out[j]] < g.index[out[j-1]]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
