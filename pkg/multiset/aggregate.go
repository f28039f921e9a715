package multiset

import (
	"cmp"
	"fmt"

	"github.com/l7mp/dmultiset/pkg/delta"
	"github.com/l7mp/dmultiset/pkg/extremum"
	"github.com/l7mp/dmultiset/pkg/fold"
	"github.com/l7mp/dmultiset/pkg/reactive"
	"github.com/l7mp/dmultiset/pkg/zset"
)

// Fold creates a signal that maintains rf over the deltas of c. The accumulator starts from the
// current content of c, so aggregates can be created on non-empty collections. An unfold error
// is fatal to the turn that caused it.
func Fold[A, T any](name string, c Collection[T], rf fold.Reversible[A, T]) *reactive.Signal[A] {
	acc := rf.Initial()
	c.Each(func(v T) { acc = rf.Fold(acc, v) })

	return reactive.NewFold(c.Engine(), name, c.Deltas(), acc,
		func(acc A, d delta.Delta[T]) (A, error) {
			return fold.Apply(rf, acc, d)
		})
}

// Size maintains the number of occurrences in c.
func Size[T any](name string, c Collection[T]) *reactive.Signal[int] {
	return Fold(name, c, fold.Size[T]())
}

// Count maintains the number of occurrences in c that satisfy pred. The predicate must be
// stable.
func Count[T any](name string, c Collection[T], pred func(T) bool) *reactive.Signal[int] {
	return Fold(name, c, fold.Count(pred))
}

// Contains maintains whether c contains at least one occurrence of v.
func Contains[T comparable](name string, c Collection[T], v T) *reactive.Signal[bool] {
	n := Fold(subName(name, "occurrences"), c, fold.Occurrences(v))
	return reactive.Lift(c.Engine(), name, n, func(n int) bool { return n > 0 })
}

// Exists maintains whether c contains at least one occurrence that satisfies pred. The
// predicate must be stable.
func Exists[T any](name string, c Collection[T], pred func(T) bool) *reactive.Signal[bool] {
	n := Count(subName(name, "count"), c, pred)
	return reactive.Lift(c.Engine(), name, n, func(n int) bool { return n > 0 })
}

// Sum maintains the sum of the occurrences in c.
func Sum[T fold.Number](name string, c Collection[T]) *reactive.Signal[T] {
	return Fold(name, c, fold.Sum[T]())
}

// Materialize maintains the content of c as a Z-set. The Z-set is updated in place and must not
// be modified by the caller.
func Materialize[T comparable](name string, c Collection[T]) *reactive.Signal[*zset.ZSet[T]] {
	return Fold(name, c, fold.Integrate[T]())
}

// Optional is a value that may be absent.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.Value, o.Valid }

func (o Optional[T]) String() string {
	if !o.Valid {
		return "<absent>"
	}
	return fmt.Sprintf("%v", o.Value)
}

// Extremum maintains the best occurrence in c according to better, a strict weak order; the
// result is absent if c is empty. A removal that the tracker cannot match fails the turn with an
// *extremum.ElementNotFoundError.
func Extremum[T comparable](name string, c Collection[T], better func(a, b T) bool) *reactive.Signal[Optional[T]] {
	return trackExtremum(name, c, func() *extremum.Tracker[T] { return extremum.New(better) })
}

// Min maintains the minimum of c.
func Min[T cmp.Ordered](name string, c Collection[T]) *reactive.Signal[Optional[T]] {
	return trackExtremum(name, c, extremum.NewMin[T])
}

// Max maintains the maximum of c.
func Max[T cmp.Ordered](name string, c Collection[T]) *reactive.Signal[Optional[T]] {
	return trackExtremum(name, c, extremum.NewMax[T])
}

func trackExtremum[T comparable](name string, c Collection[T], newTracker func() *extremum.Tracker[T]) *reactive.Signal[Optional[T]] {
	tracker := Fold(subName(name, "tracker"), c, fold.Extremum(newTracker))
	return reactive.Lift(c.Engine(), name, tracker, func(t *extremum.Tracker[T]) Optional[T] {
		v, ok := t.Value()
		return Optional[T]{Value: v, Valid: ok}
	})
}

// subName derives the name of a helper node; anonymous nodes stay anonymous.
func subName(name, suffix string) string {
	if name == "" {
		return ""
	}
	return name + "-" + suffix
}
