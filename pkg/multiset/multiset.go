package multiset

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/l7mp/dmultiset/pkg/delta"
	"github.com/l7mp/dmultiset/pkg/reactive"
	"github.com/l7mp/dmultiset/pkg/util"
	"github.com/l7mp/dmultiset/pkg/zset"
)

var (
	_ Collection[int] = &Multiset[int]{}
	_ Collection[int] = &Derived[int]{}
)

// Collection is a multiset-like node that publishes one delta per turn.
type Collection[T any] interface {
	// Name returns the name of the collection.
	Name() string
	// Engine returns the engine the collection belongs to.
	Engine() *reactive.Engine
	// Deltas returns the node carrying the delta of the collection. Its value is meaningful
	// only in a turn in which the node changed, see Current.
	Deltas() reactive.Valued[delta.Delta[T]]
	// Each calls fn for each live occurrence of the collection, in unspecified order.
	Each(fn func(T))
}

// Current returns the delta c produced in the running turn, or NoChange if c did not change.
func Current[T any](c Collection[T]) delta.Delta[T] {
	n := c.Deltas()
	if !n.Changed() {
		return delta.NoChange[T]()
	}
	return n.Value()
}

// NotFoundError is returned when removing a value that has no occurrence in a multiset.
type NotFoundError struct {
	Collection string
	Value      any
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("multiset %s: cannot remove %v: not found", e.Collection, e.Value)
}

// Multiset is an incremental multiset. It stores the multiplicity of each value and emits a
// delta per accepted write. A Multiset must have a single writer.
type Multiset[T comparable] struct {
	src   *reactive.Source[delta.Delta[T]]
	store *zset.ZSet[T]
	log   logr.Logger
}

// New creates an empty multiset.
func New[T comparable](eng *reactive.Engine, name string) *Multiset[T] {
	src := reactive.NewSource(eng, name, delta.NoChange[T]())
	return &Multiset[T]{
		src:   src,
		store: zset.New[T](),
		log:   src.Log(),
	}
}

func (m *Multiset[T]) Name() string                            { return m.src.Name() }
func (m *Multiset[T]) Engine() *reactive.Engine                { return m.src.Engine() }
func (m *Multiset[T]) Deltas() reactive.Valued[delta.Delta[T]] { return m.src }

// Add adds one occurrence of v and emits Addition(v). It fails only if the engine has failed
// or a downstream node detects an inconsistency, see reactive.Engine.Transaction.
func (m *Multiset[T]) Add(v T) error {
	return m.Engine().Transaction(func(t *reactive.Turn) error {
		m.store.Insert(v, 1)
		m.src.Admit(t, delta.Addition(v))
		m.log.V(5).Info("add", "turn", t.Number(), "value", util.Stringify(v))
		return nil
	})
}

// Remove removes one occurrence of v and emits Removal(v). If v has no occurrence, Remove
// returns a *NotFoundError and the multiset is left unchanged.
func (m *Multiset[T]) Remove(v T) error {
	return m.Engine().Transaction(func(t *reactive.Turn) error {
		if m.store.Multiplicity(v) <= 0 {
			m.log.V(2).Info("remove: value not found", "value", util.Stringify(v))
			return &NotFoundError{Collection: m.Name(), Value: v}
		}
		m.store.Insert(v, -1)
		m.src.Admit(t, delta.Removal(v))
		m.log.V(5).Info("remove", "turn", t.Number(), "value", util.Stringify(v))
		return nil
	})
}

// Multiplicity returns the number of occurrences of v.
func (m *Multiset[T]) Multiplicity(v T) int {
	var n int
	m.Engine().Read(func() { n = m.store.Multiplicity(v) })
	return n
}

// Len returns the number of occurrences in the multiset.
func (m *Multiset[T]) Len() int {
	var n int
	m.Engine().Read(func() { n = m.store.Size() })
	return n
}

// Snapshot returns a copy of the current content.
func (m *Multiset[T]) Snapshot() *zset.ZSet[T] {
	var z *zset.ZSet[T]
	m.Engine().Read(func() { z = m.store.Copy() })
	return z
}

// Each calls fn for each occurrence. It must not run concurrently with a write.
func (m *Multiset[T]) Each(fn func(T)) {
	for _, v := range m.store.Values() {
		fn(v)
	}
}
