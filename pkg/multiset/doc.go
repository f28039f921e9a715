// Package multiset implements incremental multisets: collections that publish every change as a
// delta, so that derived collections and aggregates can be maintained without recomputation.
//
// Key components:
//   - Multiset: the only mutable collection. Add and Remove each run one turn of the engine and
//     emit exactly one delta.
//   - Map, Filter, Concat: derived collections. They store nothing, they transform the delta of
//     their source(s) in each turn.
//   - Fold and the aggregates built on it (Size, Count, Contains, Exists, Sum, Min, Max,
//     Materialize): signals maintained by reversible folds over a delta stream, each read is O(1).
//
// Derived collections carry two documented limitations. A Filter predicate must give the same
// answer for a value when it is added and when it is later removed. Concat reflects only one
// delta per turn: if both of its sources change in the same turn, the change of the right source
// is dropped.
//
// Example usage:
//
//	eng := reactive.NewEngine(log)
//	ms := multiset.New[int](eng, "numbers")
//	evens := multiset.Filter("evens", ms, func(x int) bool { return x%2 == 0 })
//	minEven := multiset.Min("min-even", evens)
//	_ = ms.Add(4)
//	v, ok := minEven.Now().Get() // 4, true
package multiset
