package multiset

import (
	"github.com/l7mp/dmultiset/pkg/delta"
	"github.com/l7mp/dmultiset/pkg/reactive"
	"github.com/l7mp/dmultiset/pkg/util"
)

// Derived is a collection computed from other collections. It stores no elements: its only state
// is the last delta it produced.
type Derived[T any] struct {
	sig  *reactive.Signal[delta.Delta[T]]
	each func(fn func(T))
}

func (d *Derived[T]) Name() string                            { return d.sig.Name() }
func (d *Derived[T]) Engine() *reactive.Engine                { return d.sig.Engine() }
func (d *Derived[T]) Deltas() reactive.Valued[delta.Delta[T]] { return d.sig }

// Each calls fn for each occurrence, recomputed from the sources. It must not run concurrently
// with a write.
func (d *Derived[T]) Each(fn func(T)) { d.each(fn) }

func newDerived[T any](eng *reactive.Engine, name string, each func(func(T)), reevaluate func() delta.Delta[T], sources ...reactive.Node) *Derived[T] {
	sig := reactive.NewSignal(eng, name, delta.NoChange[T](), func() (delta.Delta[T], bool, error) {
		d := reevaluate()
		return d, !d.IsUnchanged(), nil
	}, sources...)
	return &Derived[T]{sig: sig, each: each}
}

// Map creates a collection that contains f(v) for each occurrence v of src.
func Map[T, U any](name string, src Collection[T], f func(T) U) *Derived[U] {
	return newDerived(src.Engine(), name,
		func(fn func(U)) { src.Each(func(v T) { fn(f(v)) }) },
		func() delta.Delta[U] { return delta.Map(Current(src), f) },
		src.Deltas())
}

// Filter creates a collection that contains the occurrences of src that satisfy p. The
// predicate must be stable: it must give the same answer for a value on its addition and on its
// later removal, otherwise the filtered collection goes out of sync with src.
func Filter[T any](name string, src Collection[T], p func(T) bool) *Derived[T] {
	return newDerived(src.Engine(), name,
		func(fn func(T)) {
			src.Each(func(v T) {
				if p(v) {
					fn(v)
				}
			})
		},
		func() delta.Delta[T] { return delta.Filter(Current(src), p) },
		src.Deltas())
}

// Concat creates a collection that contains the occurrences of both left and right. In a turn in
// which both sources change, only the delta of left is reflected and the delta of right is
// dropped.
func Concat[T any](name string, left, right Collection[T]) *Derived[T] {
	var d *Derived[T]
	d = newDerived(left.Engine(), name,
		func(fn func(T)) {
			left.Each(fn)
			right.Each(fn)
		},
		func() delta.Delta[T] {
			l, r := Current(left), Current(right)
			if !l.IsUnchanged() && !r.IsUnchanged() {
				d.sig.Log().V(2).Info("both sources changed in the same turn, dropping the right delta",
					"left", l.String(), "right", r.String(), "dropped", util.Stringify(r.Value))
			}
			return delta.Concat(l, r)
		},
		left.Deltas(), right.Deltas())
	return d
}
