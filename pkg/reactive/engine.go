// Package reactive is a minimal push-based propagation engine for incremental collections.
//
// The engine knows three kinds of nodes:
//   - Source: a node without upstream whose value is set by an external write (Admit) inside a
//     turn.
//   - Signal: a derived node whose reevaluation function runs once per turn in which at least
//     one of its sources changed.
//   - Fold: a Signal that combines its previous value with the current value of its source.
//
// A turn is a single-writer transaction: the writes admitted in the turn are committed and all
// their downstream consequences are propagated before the next turn may start. Nodes are
// processed in the order of their level (1 + the maximum level of their sources), which makes
// propagation glitch-free: every node is evaluated at most once per turn and only after all of
// its sources have settled.
//
// Example usage:
//
//	eng := reactive.NewEngine(logr.Discard())
//	src := reactive.NewSource(eng, "x", 0)
//	double := reactive.Lift(eng, "double", src, func(x int) int { return 2 * x })
//	_ = eng.Transaction(func(t *reactive.Turn) error { src.Admit(t, 21); return nil })
//	fmt.Println(double.Now()) // 42
package reactive

import (
	"container/heap"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrEngineFailed is returned by Transaction once a turn has failed with a fatal error.
var ErrEngineFailed = errors.New("reactive engine failed")

// TurnError reports a reevaluation failure inside a turn. Turn errors are fatal: the state of
// the graph is no longer consistent with the admitted writes.
type TurnError struct {
	Turn  uint64
	Node  string
	Cause error
}

// Error implements the error interface.
func (e *TurnError) Error() string {
	return fmt.Sprintf("turn %d: node %s: %v", e.Turn, e.Node, e.Cause)
}

func (e *TurnError) Unwrap() error { return e.Cause }

// Option configures an Engine.
type Option func(*Engine)

// WithRegisterer registers the engine metrics with the given Prometheus registerer. Engines
// sharing a registerer share the collectors.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(e *Engine) { e.metrics.register(reg) }
}

// Engine serializes turns and propagates changes through the node graph.
type Engine struct {
	mu      sync.RWMutex
	current uint64 // number of the running or the last committed turn
	nextID  uint64
	nodes   []*nodeBase
	failed  error
	metrics *metrics
	log     logr.Logger
}

// NewEngine creates a new propagation engine.
func NewEngine(log logr.Logger, opts ...Option) *Engine {
	e := &Engine{
		metrics: newMetrics(),
		log:     log.WithName("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Turn is a handle to the running transaction. Writes are admitted through Source.Admit.
type Turn struct {
	number   uint64
	eng      *Engine
	admitted []*nodeBase
	commits  []func()
}

// Number returns the sequence number of the turn, starting from 1.
func (t *Turn) Number() uint64 { return t.number }

// Transaction runs fn as a single atomic turn. Writes admitted by fn are applied only if fn
// returns nil, in which case they are propagated through the graph before Transaction
// returns. An error returned by fn aborts the turn and is passed to the caller unchanged.
//
// A reevaluation error during propagation is fatal: it is returned as a *TurnError and every
// later Transaction fails with ErrEngineFailed.
//
// Transaction must not be called from inside a reevaluation function or another transaction.
func (e *Engine) Transaction(fn func(t *Turn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.failed != nil {
		return fmt.Errorf("%w: %w", ErrEngineFailed, e.failed)
	}

	t := &Turn{number: e.current + 1, eng: e}
	if err := fn(t); err != nil {
		e.log.V(5).Info("turn aborted", "turn", t.number, "error", err.Error())
		return err
	}
	if len(t.admitted) == 0 {
		return nil
	}

	start := time.Now()
	e.current = t.number
	for _, commit := range t.commits {
		commit()
	}

	n, err := e.propagate(t)
	e.metrics.turns.Inc()
	e.metrics.reevaluations.Add(float64(n))
	e.metrics.duration.Observe(time.Since(start).Seconds())
	if err != nil {
		e.metrics.errors.Inc()
		e.failed = err
		e.log.Error(err, "turn failed", "turn", t.number)
		return err
	}

	e.log.V(4).Info("turn committed", "turn", t.number, "admitted", len(t.admitted),
		"reevaluations", n)
	return nil
}

// propagate reevaluates the downstream of the admitted sources in level order and returns the
// number of reevaluations.
func (e *Engine) propagate(t *Turn) (int, error) {
	q := &nodeQueue{}
	queued := map[*nodeBase]bool{}
	push := func(b *nodeBase) {
		for _, s := range b.sinks {
			if !queued[s] {
				queued[s] = true
				heap.Push(q, s)
			}
		}
	}

	for _, src := range t.admitted {
		push(src)
	}

	n := 0
	for q.Len() > 0 {
		b := heap.Pop(q).(*nodeBase) //nolint:forcetypeassert
		n++
		changed, err := b.eval()
		if err != nil {
			return n, &TurnError{Turn: t.number, Node: b.name, Cause: err}
		}
		if !changed {
			b.log.V(6).Info("reevaluated: unchanged", "turn", t.number)
			continue
		}
		b.changed = t.number
		b.log.V(6).Info("reevaluated: changed", "turn", t.number)
		push(b)
	}

	return n, nil
}

// Read runs fn while no turn is in progress. Use it to take consistent readings of several
// nodes.
func (e *Engine) Read(fn func()) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	fn()
}

// NodeInfo describes a node of the propagation graph.
type NodeInfo struct {
	Name    string
	Kind    string
	Level   int
	Sources []string
}

// Graph returns the nodes of the propagation graph in creation order.
func (e *Engine) Graph() []NodeInfo {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ret := make([]NodeInfo, 0, len(e.nodes))
	for _, b := range e.nodes {
		info := NodeInfo{Name: b.name, Kind: b.kind, Level: b.level}
		for _, s := range b.sources {
			info.Sources = append(info.Sources, s.name)
		}
		ret = append(ret, info)
	}
	return ret
}

// Turns returns the number of committed turns.
func (e *Engine) Turns() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Err returns the fatal error that stopped the engine, or nil.
func (e *Engine) Err() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.failed
}

// nodeQueue is a min-heap of nodes ordered by level, then by creation order.
type nodeQueue []*nodeBase

func (q nodeQueue) Len() int { return len(q) }
func (q nodeQueue) Less(i, j int) bool {
	if q[i].level != q[j].level {
		return q[i].level < q[j].level
	}
	return q[i].id < q[j].id
}
func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)   { *q = append(*q, x.(*nodeBase)) } //nolint:forcetypeassert
func (q *nodeQueue) Pop() any {
	old := *q
	n := len(old)
	b := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return b
}
