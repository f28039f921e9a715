// Package extremum maintains the minimum or maximum of a multiset under insertions and removals.
//
// A Tracker keeps one entry per live occurrence, newest first. Every entry stores its own value
// and the extremum of the suffix that starts at the entry, i.e., of itself and all older entries:
//
//	Extremum[i] = ext(Value[i], Value[i+1], ..., Value[n-1])
//
// so the extremum of the whole multiset is Extremum[0]. An insertion is a prepend and costs
// O(1). A removal excises the entry and repairs the suffix extrema of the newer entries, walking
// toward the front only while the repaired value differs from the stored one. The cost is the
// number of entries whose suffix extremum depended on the removed occurrence, which is O(n) in
// the worst case (always removing the current extremum in insertion order).
package extremum

import (
	"cmp"
	"fmt"

	"github.com/gammazero/deque"
)

// ElementNotFoundError is returned when a value is removed that has no live occurrence in the
// tracker. This means the tracker has fallen out of sync with the stream of changes it
// follows; the tracked extremum cannot be trusted after this.
type ElementNotFoundError struct {
	Value any
}

// Error implements the error interface.
func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("extremum tracker: no occurrence of %v to remove", e.Value)
}

// Pair is a single entry of the tracking sequence.
type Pair[T comparable] struct {
	Value    T
	Extremum T
}

// Tracker tracks the extremum of a multiset of values.
type Tracker[T comparable] struct {
	// better reports whether a is strictly preferred to b (a < b for a minimum).
	better func(a, b T) bool
	seq    *deque.Deque[Pair[T]]
}

// New creates a tracker that tracks the best value according to better, which must be a strict
// weak order. Two values are equivalent if neither is better than the other; Remove falls back to
// an equivalent occurrence when the removed value itself has none.
func New[T comparable](better func(a, b T) bool) *Tracker[T] {
	return &Tracker[T]{
		better: better,
		seq:    new(deque.Deque[Pair[T]]),
	}
}

// NewMin creates a tracker for the minimum.
func NewMin[T cmp.Ordered]() *Tracker[T] {
	return New(func(a, b T) bool { return cmp.Less(a, b) })
}

// NewMax creates a tracker for the maximum.
func NewMax[T cmp.Ordered]() *Tracker[T] {
	return New(func(a, b T) bool { return cmp.Less(b, a) })
}

func (t *Tracker[T]) pick(a, b T) T {
	if t.better(b, a) {
		return b
	}
	return a
}

func (t *Tracker[T]) equivalent(a, b T) bool {
	return !t.better(a, b) && !t.better(b, a)
}

// Add inserts a new occurrence of v.
func (t *Tracker[T]) Add(v T) {
	if t.seq.Len() == 0 {
		t.seq.PushFront(Pair[T]{Value: v, Extremum: v})
		return
	}
	t.seq.PushFront(Pair[T]{Value: v, Extremum: t.pick(v, t.seq.Front().Extremum)})
}

// Remove removes the newest occurrence of v, or, if there is none, the newest occurrence of a
// value equivalent to v. It returns an *ElementNotFoundError if neither exists, in which case the
// tracker is unchanged.
func (t *Tracker[T]) Remove(v T) error {
	i := t.index(v)
	if i < 0 {
		return &ElementNotFoundError{Value: v}
	}
	t.seq.Remove(i)

	n := t.seq.Len()
	if i == 0 || n == 0 {
		// the removed entry was the newest: no entry's suffix contained it
		return nil
	}

	// The suffix extremum of the older neighbor is still valid. If the removed entry was the
	// oldest there is no such neighbor and the repair starts from the own value at i-1.
	j := i - 1
	var repair T
	if i < n {
		repair = t.pick(t.seq.At(j).Value, t.seq.At(i).Extremum)
	} else {
		repair = t.seq.At(j).Value
	}

	for ; j >= 0; j-- {
		p := t.seq.At(j)
		if j < i-1 {
			repair = t.pick(p.Value, repair)
		}
		if p.Extremum == repair {
			// every newer suffix extremum is computed from this one, so they are all correct
			break
		}
		p.Extremum = repair
		t.seq.Set(j, p)
	}

	return nil
}

// index returns the position of the newest occurrence of v, then that of the newest equivalent
// occurrence, or -1.
func (t *Tracker[T]) index(v T) int {
	if i := t.seq.Index(func(p Pair[T]) bool { return p.Value == v }); i >= 0 {
		return i
	}
	return t.seq.Index(func(p Pair[T]) bool { return t.equivalent(p.Value, v) })
}

// Value returns the current extremum and true, or the zero value and false if the tracker is
// empty.
func (t *Tracker[T]) Value() (T, bool) {
	if t.seq.Len() == 0 {
		var zero T
		return zero, false
	}
	return t.seq.Front().Extremum, true
}

// Len returns the number of tracked occurrences.
func (t *Tracker[T]) Len() int { return t.seq.Len() }

// Entries returns a copy of the tracking sequence, newest first.
func (t *Tracker[T]) Entries() []Pair[T] {
	result := make([]Pair[T], t.seq.Len())
	for i := range result {
		result[i] = t.seq.At(i)
	}
	return result
}

// String returns a string representation of the tracking sequence for debugging.
func (t *Tracker[T]) String() string {
	return fmt.Sprintf("%v", t.Entries())
}
