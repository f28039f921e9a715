package fold

import (
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/dmultiset/internal/testutils"
	"github.com/l7mp/dmultiset/pkg/delta"
	"github.com/l7mp/dmultiset/pkg/extremum"
	"github.com/l7mp/dmultiset/pkg/zset"
)

func TestFold(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Fold Suite")
}

func run[A, T any](rf Reversible[A, T], ds ...delta.Delta[T]) A {
	GinkgoHelper()
	acc := rf.Initial()
	for _, d := range ds {
		var err error
		acc, err = Apply(rf, acc, d)
		Expect(err).NotTo(HaveOccurred())
	}
	return acc
}

func isEven(v int) bool { return v%2 == 0 }

var _ = Describe("Reversible folds", func() {
	It("should leave the accumulator alone on no change", func() {
		acc, err := Apply(Size[int](), 7, delta.NoChange[int]())
		Expect(err).NotTo(HaveOccurred())
		Expect(acc).To(Equal(7))
	})

	It("should count the size", func() {
		Expect(run(Size[string](),
			delta.Addition("a"), delta.Addition("b"), delta.Removal("a"), delta.Addition("a"),
		)).To(Equal(2))
	})

	It("should count even values", func() {
		rf := Count(isEven)
		acc := run(rf, delta.Addition(2), delta.Addition(4), delta.Addition(5), delta.Addition(6))
		Expect(acc).To(Equal(3))

		acc, _ = Apply(rf, acc, delta.Removal(4))
		Expect(acc).To(Equal(2))
		acc, _ = Apply(rf, acc, delta.Removal(5))
		Expect(acc).To(Equal(2))
	})

	It("should count occurrences of a value", func() {
		Expect(run(Occurrences(3),
			delta.Addition(3), delta.Addition(1), delta.Addition(3), delta.Removal(3),
		)).To(Equal(1))
	})

	It("should sum values", func() {
		Expect(run(Sum[int64](), delta.Addition(int64(5)), delta.Addition(int64(7)),
			delta.Removal(int64(5)))).To(Equal(int64(7)))
	})

	It("should integrate into a Z-set", func() {
		z := run(Integrate[string](), delta.Addition("a"), delta.Addition("a"), delta.Removal("a"),
			delta.Addition("b"))
		Expect(z.Equal(zset.FromValues("a", "b"))).To(BeTrue())
	})

	It("should refuse to unfold a value missing from the Z-set", func() {
		rf := Integrate[string]()
		z := run(rf, delta.Addition("a"))
		_, err := Apply(rf, z, delta.Removal("b"))
		var zerr *zset.ZSetError
		Expect(errors.As(err, &zerr)).To(BeTrue())
		Expect(zerr.Message).To(Equal("cannot remove b"))
		Expect(z.Equal(zset.FromValues("a"))).To(BeTrue())
	})

	It("should not share mutable accumulators", func() {
		rf := Integrate[int]()
		a, b := rf.Initial(), rf.Initial()
		a.Insert(1, 1)
		Expect(b.IsZero()).To(BeTrue())
	})

	It("should track the minimum and report desynchronized removals", func() {
		rf := Extremum(extremum.NewMin[int])
		t := run(rf, delta.Addition(4), delta.Addition(2))
		v, ok := t.Value()
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(2))

		_, err := Apply(rf, t, delta.Removal(9))
		var enf *extremum.ElementNotFoundError
		Expect(errors.As(err, &enf)).To(BeTrue())
	})

	It("should return to the same state after a fold and an unfold", func() {
		rfs := []Reversible[int, int]{Size[int](), Count(isEven), Occurrences(5), Sum[int]()}
		for _, rf := range rfs {
			acc := rf.Initial()
			for _, op := range testutils.RandomOps(11, 200, 10) {
				d := delta.Addition(op.Value)
				if op.Remove {
					d = delta.Removal(op.Value)
				}
				acc, _ = Apply(rf, acc, d)
				probe, _ := rf.Unfold(rf.Fold(acc, 5), 5)
				Expect(probe).To(Equal(acc))
			}
		}
	})
})
