package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/soward/depload/internal/batch"
	"github.com/soward/depload/internal/graph"
	"github.com/soward/depload/internal/loadlog"
	"github.com/soward/depload/internal/record"
)

type recordStatus int

const (
	statusPending recordStatus = iota
	statusLoaded
	statusSkipped
	statusFailed
	statusBlocked
)

// loading is the mutable state of one run's Loading phase. All mutation
// happens on the coordinating goroutine; workers only write to the store
// and report back over a channel.
type loading struct {
	engine  *Engine
	graph   *graph.Graph
	runID   string
	logger  *slog.Logger
	summary *Summary

	status map[record.Key]recordStatus
	// models memoizes per-model poisoning: whether any record of the
	// model failed or was blocked. Only consulted after every record of
	// the model has a terminal status, which batch ordering guarantees.
	models map[string]bool
	nodeID map[record.Key]string
}

type writeResult struct {
	rec     *record.Record
	storeID string
	err     error
}

// loadBatch resolves one batch completely: skips, blocks, dispatches the
// rest to the worker pool, and durably logs every success before
// returning. The next batch must not start earlier; its records may
// depend on exactly the log state produced here.
func (l *loading) loadBatch(ctx context.Context, b batch.Batch) error {
	var pending []*record.Record
	for _, r := range b.Records {
		k := r.Key()
		if l.engine.log.Contains(r.Model, r.Identity.Value) {
			l.status[k] = statusSkipped
			l.summary.Skipped++
			l.logger.Debug("skipping record already in load log", "model", r.Model, "identity", r.Identity.Value)
			continue
		}
		if l.isBlocked(k) {
			l.status[k] = statusBlocked
			l.summary.Blocked++
			l.summary.BlockedKeys = append(l.summary.BlockedKeys, k)
			l.logger.Warn("record blocked by upstream failure", "model", r.Model, "identity", r.Identity.Value)
			continue
		}
		pending = append(pending, r)
	}
	if len(pending) == 0 {
		return nil
	}

	l.logger.Debug("dispatching batch", "batch", b.Seq+1, "records", len(pending))
	var fatal error
	for res := range l.dispatch(ctx, pending) {
		k := res.rec.Key()
		if res.err != nil {
			l.fail(k, res.err.Error())
			if err := l.append(k, loadlog.OutcomeFailure); err != nil && fatal == nil {
				fatal = err
			}
			continue
		}
		if fatal != nil {
			// The log already failed us once; this write completed
			// but cannot be claimed either way. Name the first such
			// record if the original fatal was a failure-side append
			// error, which carries no written record of its own.
			l.fail(k, "load log unavailable; write state unknown")
			if _, ok := fatal.(*IndeterminateStateError); !ok {
				fatal = &IndeterminateStateError{Model: k.Model, Identity: k.Identity, Err: fatal}
			}
			continue
		}
		if err := l.append(k, loadlog.OutcomeSuccess); err != nil {
			// The write succeeded but is not durably recorded: the
			// record can be neither claimed complete nor absent.
			fatal = &IndeterminateStateError{Model: k.Model, Identity: k.Identity, Err: err}
			l.fail(k, "load log unavailable; write state unknown")
			continue
		}
		l.status[k] = statusLoaded
		l.summary.Loaded++
		l.logger.Debug("record loaded", "model", k.Model, "identity", res.storeID)
	}
	return fatal
}

// dispatch fans pending records out over the bounded worker pool and
// returns the result channel. The channel closes once every record has a
// terminal outcome.
func (l *loading) dispatch(ctx context.Context, recs []*record.Record) <-chan writeResult {
	workers := l.engine.workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(recs) {
		workers = len(recs)
	}

	jobs := make(chan *record.Record)
	results := make(chan writeResult)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range jobs {
				storeID, err := l.engine.store.Write(ctx, r.Model, r.Identity.Value, r.Fields)
				results <- writeResult{rec: r, storeID: storeID, err: err}
			}
		}()
	}
	go func() {
		for _, r := range recs {
			jobs <- r
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()
	return results
}

func (l *loading) fail(k record.Key, msg string) {
	l.status[k] = statusFailed
	l.summary.Failed++
	l.summary.Failures = append(l.summary.Failures, RecordError{Key: k, Err: msg})
	l.logger.Warn("record write failed", "model", k.Model, "identity", k.Identity, "error", msg)
}

// append writes one log entry, serialized by the log's own single-writer
// lock, and returns only once it is durable.
func (l *loading) append(k record.Key, outcome loadlog.Outcome) error {
	return l.engine.log.Record(loadlog.Entry{
		Model:     k.Model,
		Identity:  k.Identity,
		Outcome:   outcome,
		Timestamp: l.engine.now().UTC(),
		RunID:     l.runID,
	})
}

// isBlocked reports whether any dependency of the record failed or was
// itself blocked. Batches are strictly ordered, so every dependency
// already has a terminal status by the time this is asked.
func (l *loading) isBlocked(k record.Key) bool {
	id, ok := l.nodeID[k]
	if !ok {
		return false
	}
	for _, dep := range l.graph.Deps(id) {
		n, _ := l.graph.Node(dep)
		if n.Kind == graph.RecordNode {
			switch l.status[n.Record.Key()] {
			case statusFailed, statusBlocked:
				return true
			}
			continue
		}
		if l.modelPoisoned(n.Model) {
			return true
		}
	}
	return false
}

// modelPoisoned reports whether any record of the model failed or was
// blocked, poisoning whole-model barriers for plain-reference consumers.
func (l *loading) modelPoisoned(model string) bool {
	if v, ok := l.models[model]; ok {
		return v
	}
	poisoned := false
	for k, st := range l.status {
		if k.Model == model && (st == statusFailed || st == statusBlocked) {
			poisoned = true
			break
		}
	}
	l.models[model] = poisoned
	return poisoned
}
