// Package engine orchestrates one load run: build the dependency graph,
// plan batches, filter through the load log, dispatch to the store client,
// and append outcomes back to the log.
//
// A run moves through Init → GraphBuilt → Batched → Loading → Done or
// Failed. Every structural problem (unknown model, dangling parent,
// unsupported nesting, cycle) fails the run before the first write; once
// Loading starts, per-record write failures never abort the run; they mark
// their transitive dependents blocked and everything independent still
// loads.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soward/depload/internal/batch"
	"github.com/soward/depload/internal/catalog"
	"github.com/soward/depload/internal/graph"
	"github.com/soward/depload/internal/loadlog"
	"github.com/soward/depload/internal/record"
	"github.com/soward/depload/internal/store"
)

// State is the engine's run phase, observable for tests and diagnostics.
type State int

const (
	StateInit State = iota
	StateGraphBuilt
	StateBatched
	StateLoading
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateGraphBuilt:
		return "graph-built"
	case StateBatched:
		return "batched"
	case StateLoading:
		return "loading"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DefaultWorkers bounds concurrent store writes within one batch.
const DefaultWorkers = 4

// Engine drives load runs. Construct once, run once per input set; the
// load log handle is injected so tests and embedders can use isolated
// in-memory ledgers.
type Engine struct {
	store     store.Client
	log       loadlog.Log
	cat       *catalog.Catalog
	batchSize int
	workers   int
	logger    *slog.Logger
	now       func() time.Time

	mu    sync.Mutex
	state State
}

// Option configures an Engine.
type Option func(*Engine)

// WithBatchSize sets the maximum records per batch.
func WithBatchSize(n int) Option {
	return func(e *Engine) { e.batchSize = n }
}

// WithWorkers bounds the per-batch worker pool.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithLogger sets the slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine over the given store client, load log, and catalog.
func New(st store.Client, log loadlog.Log, cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		store:     st,
		log:       log,
		cat:       cat,
		batchSize: batch.DefaultSize,
		workers:   DefaultWorkers,
		logger:    slog.Default(),
		now:       time.Now,
		state:     StateInit,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the current run phase.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Run executes one load over the record set. A structural error returns
// (nil, err) with zero writes issued. Per-record failures do not produce an
// error; they are reported in the summary. An IndeterminateStateError
// returns the partial summary alongside the error.
func (e *Engine) Run(ctx context.Context, set *record.Set) (*Summary, error) {
	start := e.now()
	runID := uuid.Must(uuid.NewV7()).String()
	logger := e.logger.With("run_id", runID)

	e.setState(StateInit)
	g, err := graph.Build(set, e.cat, e.log)
	if err != nil {
		e.setState(StateFailed)
		return nil, err
	}
	e.setState(StateGraphBuilt)
	logger.Debug("dependency graph built", "nodes", g.Len(), "records", set.Len())

	batches, err := batch.Plan(g, e.batchSize)
	if err != nil {
		e.setState(StateFailed)
		return nil, err
	}
	e.setState(StateBatched)
	logger.Info("load plan ready", "batches", len(batches), "records", set.Len(), "batch_size", e.batchSize)

	e.setState(StateLoading)
	sum := &Summary{RunID: runID, Batches: len(batches)}
	run := &loading{
		engine:  e,
		graph:   g,
		runID:   runID,
		logger:  logger,
		summary: sum,
		status:  make(map[record.Key]recordStatus, set.Len()),
		models:  make(map[string]bool),
		nodeID:  make(map[record.Key]string, set.Len()),
	}
	for _, n := range g.Nodes() {
		if n.Kind == graph.RecordNode {
			run.nodeID[n.Record.Key()] = n.ID()
		}
	}

	for _, b := range batches {
		if err := ctx.Err(); err != nil {
			e.setState(StateFailed)
			return sum, fmt.Errorf("run canceled before batch %d/%d: %w", b.Seq+1, len(batches), err)
		}
		if err := run.loadBatch(ctx, b); err != nil {
			e.setState(StateFailed)
			return sum, err
		}
	}

	sort.Slice(sum.Failures, func(i, j int) bool {
		return sum.Failures[i].Key.String() < sum.Failures[j].Key.String()
	})
	sum.Elapsed = e.now().Sub(start)
	e.setState(StateDone)
	logger.Info("run complete",
		"loaded", sum.Loaded, "skipped", sum.Skipped,
		"failed", sum.Failed, "blocked", sum.Blocked,
	)
	return sum, nil
}
