// Package zset implements Z-sets: multisets with integer multiplicities over comparable values.
// See https://mihaibudiu.github.io/work/dbsp-spec.pdf for the algebra.
//
// A value with multiplicity zero is never stored. Positive multiplicities are ordinary multiset
// occurrences, negative ones appear only in differences (e.g., after a negative Insert).
//
// Example usage:
//
//	z := zset.New[int]()
//	z.Insert(5, 1)  // one occurrence of 5
//	z.Insert(5, -1) // 5 is gone again
package zset

import (
	"fmt"
	"slices"
	"strings"

	"github.com/l7mp/dmultiset/pkg/delta"
)

// ZSet is a Z-set over values of type T.
type ZSet[T comparable] struct {
	counts map[T]int
}

// ZSetError is returned by Z-set operations that cannot be performed.
type ZSetError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ZSetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ZSetError) Unwrap() error { return e.Cause }

func newZSetError(message string, cause error) error {
	return &ZSetError{Message: message, Cause: cause}
}

// New creates an empty Z-set.
func New[T comparable]() *ZSet[T] {
	return &ZSet[T]{counts: make(map[T]int)}
}

// FromValues creates a Z-set from a slice of values, each with multiplicity 1.
func FromValues[T comparable](vs ...T) *ZSet[T] {
	z := New[T]()
	for _, v := range vs {
		z.Insert(v, 1)
	}
	return z
}

// Insert adds count to the multiplicity of v in place. Values reaching multiplicity zero are
// removed.
func (z *ZSet[T]) Insert(v T, count int) {
	if count == 0 {
		return
	}

	n := z.counts[v] + count
	if n == 0 {
		delete(z.counts, v)
		return
	}
	z.counts[v] = n
}

// Remove takes a single occurrence of v out of the Z-set. It returns a *ZSetError and leaves the
// Z-set unchanged if v has no positive multiplicity.
func (z *ZSet[T]) Remove(v T) error {
	if n := z.counts[v]; n <= 0 {
		return newZSetError(fmt.Sprintf("cannot remove %v", v),
			fmt.Errorf("multiplicity %d", n))
	}
	z.Insert(v, -1)
	return nil
}

// Apply integrates a single delta in place: an addition inserts with multiplicity 1, a removal
// with -1.
func (z *ZSet[T]) Apply(d delta.Delta[T]) {
	switch d.Type {
	case delta.Added:
		z.Insert(d.Value, 1)
	case delta.Removed:
		z.Insert(d.Value, -1)
	}
}

// Add performs Z-set addition and returns a new Z-set.
func (z *ZSet[T]) Add(other *ZSet[T]) *ZSet[T] {
	result := z.Copy()
	if other == nil {
		return result
	}
	for v, count := range other.counts {
		result.Insert(v, count)
	}
	return result
}

// Copy returns a copy of the Z-set. Values themselves are not copied.
func (z *ZSet[T]) Copy() *ZSet[T] {
	result := &ZSet[T]{counts: make(map[T]int, len(z.counts))}
	for v, count := range z.counts {
		result.counts[v] = count
	}
	return result
}

// Multiplicity returns the multiplicity of v, zero if v is absent.
func (z *ZSet[T]) Multiplicity(v T) int { return z.counts[v] }

// IsZero checks if the Z-set is empty.
func (z *ZSet[T]) IsZero() bool { return len(z.counts) == 0 }

// Size returns the number of occurrences, counting only positive multiplicities.
func (z *ZSet[T]) Size() int {
	total := 0
	for _, count := range z.counts {
		if count > 0 {
			total += count
		}
	}
	return total
}

// Values returns all values with positive multiplicity n repeated n times, in unspecified order.
func (z *ZSet[T]) Values() []T {
	var result []T
	for v, count := range z.counts {
		for i := 0; i < count; i++ {
			result = append(result, v)
		}
	}
	return result
}

// Equal checks whether two Z-sets have the same multiplicities.
func (z *ZSet[T]) Equal(other *ZSet[T]) bool {
	if other == nil {
		return z.IsZero()
	}
	if len(z.counts) != len(other.counts) {
		return false
	}
	for v, count := range z.counts {
		if other.counts[v] != count {
			return false
		}
	}
	return true
}

// String returns a string representation of the Z-set for debugging.
func (z *ZSet[T]) String() string {
	if z.IsZero() {
		return "∅"
	}

	parts := make([]string, 0, len(z.counts))
	for v, count := range z.counts {
		parts = append(parts, fmt.Sprintf("%v×%d", v, count))
	}
	slices.Sort(parts)

	return "{" + strings.Join(parts, ", ") + "}"
}
