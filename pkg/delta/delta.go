// Package delta defines the unit of change flowing between incremental collections: an addition
// or a removal of a single value, or no change at all.
package delta

import "fmt"

// Type is the kind of a delta.
type Type int

const (
	// Unchanged means no change occurred in the turn. This is the zero value.
	Unchanged Type = iota
	// Added means one occurrence of the value was added.
	Added
	// Removed means one occurrence of the value was removed.
	Removed
)

func (t Type) String() string {
	switch t {
	case Unchanged:
		return "Unchanged"
	case Added:
		return "Added"
	case Removed:
		return "Removed"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// Delta registers a change on a single value. By convention, Value is the zero value of T if no
// change occurs.
type Delta[T any] struct {
	Type  Type
	Value T
}

// Addition returns a delta that adds one occurrence of v.
func Addition[T any](v T) Delta[T] { return Delta[T]{Type: Added, Value: v} }

// Removal returns a delta that removes one occurrence of v.
func Removal[T any](v T) Delta[T] { return Delta[T]{Type: Removed, Value: v} }

// NoChange returns the delta that means no change.
func NoChange[T any]() Delta[T] { return Delta[T]{} }

func (d Delta[T]) IsUnchanged() bool { return d.Type == Unchanged }

// String returns a string representation of the delta for debugging.
func (d Delta[T]) String() string {
	switch d.Type {
	case Added:
		return fmt.Sprintf("+%v", d.Value)
	case Removed:
		return fmt.Sprintf("-%v", d.Value)
	default:
		return "Δ∅"
	}
}

// Map applies f to the value carried by d. NoChange maps to NoChange.
func Map[T, U any](d Delta[T], f func(T) U) Delta[U] {
	if d.IsUnchanged() {
		return NoChange[U]()
	}
	return Delta[U]{Type: d.Type, Value: f(d.Value)}
}

// Filter passes d through if its value satisfies p and returns NoChange otherwise.
//
// p must give the same answer for a value on its addition and its later removal, otherwise the
// filtered stream will contain a removal that was never added (or the reverse). This cannot be
// detected here.
func Filter[T any](d Delta[T], p func(T) bool) Delta[T] {
	if d.IsUnchanged() || !p(d.Value) {
		return NoChange[T]()
	}
	return d
}

// Concat merges two deltas of the same turn. The left delta wins: if both are changes, the right
// one is dropped.
func Concat[T any](left, right Delta[T]) Delta[T] {
	if !left.IsUnchanged() {
		return left
	}
	return right
}
