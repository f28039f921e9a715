// Package fold implements reversible folds: aggregates that are maintained under both additions
// and removals by applying an explicit inverse of the addition step on a removal.
//
// Fold and Unfold must be exact inverses: folding a value and then unfolding it (or the other
// way around) must return the accumulator to an equivalent state. This is what makes O(1)
// maintenance per change possible, instead of recomputing the aggregate from scratch.
package fold

import (
	"github.com/l7mp/dmultiset/pkg/delta"
	"github.com/l7mp/dmultiset/pkg/extremum"
	"github.com/l7mp/dmultiset/pkg/zset"
)

// Reversible is a fold over a stream of deltas with an explicit inverse for removals.
type Reversible[A, T any] struct {
	// Initial returns the accumulator of the empty collection. It is a function so that
	// mutable accumulators are not shared between folds.
	Initial func() A
	// Fold adds one occurrence of a value to the accumulator. Additions cannot fail.
	Fold func(A, T) A
	// Unfold removes one occurrence of a value from the accumulator. An error means the
	// accumulator has never seen the value.
	Unfold func(A, T) (A, error)
}

// Apply advances the accumulator by a single delta. NoChange leaves the accumulator unchanged.
func Apply[A, T any](rf Reversible[A, T], acc A, d delta.Delta[T]) (A, error) {
	switch d.Type {
	case delta.Added:
		return rf.Fold(acc, d.Value), nil
	case delta.Removed:
		return rf.Unfold(acc, d.Value)
	default:
		return acc, nil
	}
}

// Number is the set of types Sum can add up.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

func zero[A any]() func() A { return func() (a A) { return } }

// Count counts the occurrences that satisfy pred. The predicate must be stable.
func Count[T any](pred func(T) bool) Reversible[int, T] {
	return Reversible[int, T]{
		Initial: zero[int](),
		Fold: func(n int, v T) int {
			if pred(v) {
				n++
			}
			return n
		},
		Unfold: func(n int, v T) (int, error) {
			if pred(v) {
				n--
			}
			return n, nil
		},
	}
}

// Size counts all occurrences.
func Size[T any]() Reversible[int, T] {
	return Count(func(T) bool { return true })
}

// Occurrences counts the occurrences of x.
func Occurrences[T comparable](x T) Reversible[int, T] {
	return Count(func(v T) bool { return v == x })
}

// Sum adds up all occurrences. Floating-point sums are only approximately reversible.
func Sum[T Number]() Reversible[T, T] {
	return Reversible[T, T]{
		Initial: zero[T](),
		Fold:    func(acc, v T) T { return acc + v },
		Unfold:  func(acc, v T) (T, error) { return acc - v, nil },
	}
}

// Integrate accumulates the collection itself into a Z-set, updated in place. An unfold of a
// value with no occurrence in the Z-set returns a *zset.ZSetError.
func Integrate[T comparable]() Reversible[*zset.ZSet[T], T] {
	return Reversible[*zset.ZSet[T], T]{
		Initial: zset.New[T],
		Fold: func(z *zset.ZSet[T], v T) *zset.ZSet[T] {
			z.Insert(v, 1)
			return z
		},
		Unfold: func(z *zset.ZSet[T], v T) (*zset.ZSet[T], error) {
			return z, z.Remove(v)
		},
	}
}

// Extremum maintains an extremum tracker, updated in place. An unfold of a value the tracker
// has not seen returns an *extremum.ElementNotFoundError.
func Extremum[T comparable](newTracker func() *extremum.Tracker[T]) Reversible[*extremum.Tracker[T], T] {
	return Reversible[*extremum.Tracker[T], T]{
		Initial: newTracker,
		Fold: func(t *extremum.Tracker[T], v T) *extremum.Tracker[T] {
			t.Add(v)
			return t
		},
		Unfold: func(t *extremum.Tracker[T], v T) (*extremum.Tracker[T], error) {
			return t, t.Remove(v)
		},
	}
}
