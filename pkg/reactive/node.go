package reactive

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// Node is a vertex of the propagation graph.
type Node interface {
	// Name returns the name of the node.
	Name() string
	// Changed reports whether the node changed in the running or the last committed turn.
	Changed() bool

	node() *nodeBase
}

// Valued is a node that exposes a value of type V.
type Valued[V any] interface {
	Node
	// Value returns the current value. It may be called from reevaluation functions; outside a
	// turn use Now when turns may run concurrently.
	Value() V
}

type nodeBase struct {
	eng     *Engine
	id      uint64
	kind    string
	name    string
	level   int
	sources []*nodeBase
	sinks   []*nodeBase
	changed uint64
	eval    func() (bool, error)
	log     logr.Logger
}

func (b *nodeBase) Name() string     { return b.name }
func (b *nodeBase) node() *nodeBase  { return b }
func (b *nodeBase) Changed() bool    { return b.changed != 0 && b.changed == b.eng.current }
func (b *nodeBase) String() string   { return b.name }
func (b *nodeBase) Kind() string     { return b.kind }
func (b *nodeBase) Level() int       { return b.level }
func (b *nodeBase) Engine() *Engine  { return b.eng }
func (b *nodeBase) Log() logr.Logger { return b.log }

// newNodeBase registers a new node with the engine and links it to its sources. The caller holds
// the engine lock.
func (e *Engine) newNodeBase(kind, name string, sources []Node) *nodeBase {
	if name == "" {
		name = fmt.Sprintf("%s-%s", kind, uuid.NewString()[:8])
	}

	e.nextID++
	b := &nodeBase{
		eng:  e,
		id:   e.nextID,
		kind: kind,
		name: name,
		log:  e.log.WithName(name),
	}

	for _, src := range sources {
		s := src.node()
		if s.eng != e {
			panic(fmt.Sprintf("reactive: node %s belongs to a different engine than %s", s.name, name))
		}
		if s.level+1 > b.level {
			b.level = s.level + 1
		}
		s.sinks = append(s.sinks, b)
		b.sources = append(b.sources, s)
	}
	e.nodes = append(e.nodes, b)

	return b
}

// Source is a node without upstream sources whose value is written directly in a turn.
type Source[V any] struct {
	*nodeBase
	value V
}

// NewSource creates a new source node with the given initial value.
func NewSource[V any](eng *Engine, name string, initial V) *Source[V] {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	return &Source[V]{
		nodeBase: eng.newNodeBase("source", name, nil),
		value:    initial,
	}
}

// Admit records a new value for the source in the turn. The value becomes visible when the
// turn commits. If a source is admitted more than once in a turn the last value wins.
func (s *Source[V]) Admit(t *Turn, v V) {
	if t.eng != s.eng {
		panic(fmt.Sprintf("reactive: source %s admitted in a turn of a different engine", s.name))
	}

	t.admitted = append(t.admitted, s.nodeBase)
	t.commits = append(t.commits, func() {
		s.value = v
		s.changed = t.number
	})
}

// Value returns the current value of the source.
func (s *Source[V]) Value() V { return s.value }

// Now returns the current value of the source, waiting for the running turn to finish.
func (s *Source[V]) Now() V {
	s.eng.mu.RLock()
	defer s.eng.mu.RUnlock()
	return s.value
}

// Signal is a derived node whose value is recomputed from its sources.
type Signal[V any] struct {
	*nodeBase
	value V
}

// NewSignal creates a derived node. The reevaluate function is called once per turn in which
// at least one of the sources changed; it returns the new value of the node and whether the
// value has changed. Downstream nodes are reevaluated only if it has. An error is fatal to the
// turn.
func NewSignal[V any](eng *Engine, name string, initial V, reevaluate func() (V, bool, error), sources ...Node) *Signal[V] {
	return newSignal(eng, "signal", name, initial, reevaluate, sources...)
}

func newSignal[V any](eng *Engine, kind, name string, initial V, reevaluate func() (V, bool, error), sources ...Node) *Signal[V] {
	eng.mu.Lock()
	defer eng.mu.Unlock()

	s := &Signal[V]{
		nodeBase: eng.newNodeBase(kind, name, sources),
		value:    initial,
	}
	s.eval = func() (bool, error) {
		v, changed, err := reevaluate()
		if err != nil {
			return false, err
		}
		if changed {
			s.value = v
		}
		return changed, nil
	}

	return s
}

// NewFold creates a signal that maintains an accumulator over the values of src: in every turn
// in which src changes the accumulator is replaced by combine(accumulator, src.Value()).
func NewFold[A, E any](eng *Engine, name string, src Valued[E], initial A, combine func(A, E) (A, error)) *Signal[A] {
	var s *Signal[A]
	s = newSignal(eng, "fold", name, initial, func() (A, bool, error) {
		acc, err := combine(s.value, src.Value())
		if err != nil {
			return s.value, false, err
		}
		return acc, true, nil
	}, src)
	return s
}

// Lift creates a signal that applies f to the value of src.
func Lift[A, B any](eng *Engine, name string, src Valued[A], f func(A) B) *Signal[B] {
	return newSignal(eng, "lift", name, f(src.Value()), func() (B, bool, error) {
		return f(src.Value()), true, nil
	}, src)
}

// Value returns the current value of the signal.
func (s *Signal[V]) Value() V { return s.value }

// Now returns the current value of the signal, waiting for the running turn to finish.
func (s *Signal[V]) Now() V {
	s.eng.mu.RLock()
	defer s.eng.mu.RUnlock()
	return s.value
}
