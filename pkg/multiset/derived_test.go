package multiset

import (
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/l7mp/dmultiset/internal/testutils"
	"github.com/l7mp/dmultiset/pkg/delta"
	"github.com/l7mp/dmultiset/pkg/reactive"
)

var _ = Describe("Derived collections", func() {
	var (
		eng *reactive.Engine
		ms  *Multiset[int]
	)

	BeforeEach(func() {
		eng = reactive.NewEngine(testutils.NewLogger(4))
		ms = New[int](eng, "numbers")
	})

	Describe("Map", func() {
		It("should transform every delta", func() {
			strs := Map("strs", ms, strconv.Itoa)
			log := recordPair[int, string](ms, strs)

			Expect(ms.Add(1)).To(Succeed())
			Expect(ms.Add(22)).To(Succeed())
			Expect(ms.Remove(1)).To(Succeed())

			Expect(*log).To(Equal([]turn[int, string]{
				{In: delta.Addition(1), Out: delta.Addition("1")},
				{In: delta.Addition(22), Out: delta.Addition("22")},
				{In: delta.Removal(1), Out: delta.Removal("1")},
			}))
		})

		It("should apply f to each input delta of a random stream", func() {
			squares := Map("squares", ms, func(v int) int { return v * v })
			log := recordPair[int, int](ms, squares)
			apply(ms, testutils.RandomOps(3, 300, 20))

			Expect(*log).To(HaveLen(300))
			for _, t := range *log {
				Expect(t.Out).To(Equal(delta.Map(t.In, func(v int) int { return v * v })))
			}
		})
	})

	Describe("Filter", func() {
		It("should drop failing deltas as no change", func() {
			evens := Filter("evens", ms, isEven)
			log := recordPair[int, int](ms, evens)

			Expect(ms.Add(2)).To(Succeed())
			Expect(ms.Add(3)).To(Succeed())
			Expect(ms.Remove(3)).To(Succeed())
			Expect(ms.Remove(2)).To(Succeed())

			Expect(*log).To(Equal([]turn[int, int]{
				{In: delta.Addition(2), Out: delta.Addition(2)},
				{In: delta.Addition(3), Out: delta.NoChange[int]()},
				{In: delta.Removal(3), Out: delta.NoChange[int]()},
				{In: delta.Removal(2), Out: delta.Removal(2)},
			}))
		})

		It("should match the filtered input stream for random workloads", func() {
			evens := Filter("evens", ms, isEven)
			log := recordPair[int, int](ms, evens)
			apply(ms, testutils.RandomOps(9, 300, 20))

			for _, t := range *log {
				Expect(t.Out).To(Equal(delta.Filter(t.In, isEven)))
			}
		})

		It("should compose with Map", func() {
			doubledOdds := Map("doubled", Filter("odds", ms, func(v int) bool { return !isEven(v) }),
				func(v int) int { return 2 * v })
			size := Size("size", doubledOdds)
			view := Materialize("view", doubledOdds)

			for _, v := range []int{1, 2, 3, 3} {
				Expect(ms.Add(v)).To(Succeed())
			}
			Expect(size.Now()).To(Equal(3))
			Expect(view.Now().Multiplicity(6)).To(Equal(2))
			Expect(view.Now().Multiplicity(2)).To(Equal(1))
			Expect(view.Now().Multiplicity(4)).To(Equal(0))
		})
	})

	Describe("Concat", func() {
		var other *Multiset[int]

		BeforeEach(func() {
			other = New[int](eng, "other")
		})

		It("should interleave sources that change in different turns", func() {
			both := Concat("both", ms, other)
			var out []delta.Delta[int]
			reactive.NewFold(eng, "spy", both.Deltas(), 0, func(n int, d delta.Delta[int]) (int, error) {
				out = append(out, d)
				return n + 1, nil
			})
			size := Size("size", both)

			Expect(ms.Add(1)).To(Succeed())
			Expect(other.Add(2)).To(Succeed())
			Expect(other.Add(3)).To(Succeed())
			Expect(ms.Remove(1)).To(Succeed())

			Expect(out).To(Equal([]delta.Delta[int]{
				delta.Addition(1), delta.Addition(2), delta.Addition(3), delta.Removal(1),
			}))
			Expect(size.Now()).To(Equal(2))

			var content []int
			both.Each(func(v int) { content = append(content, v) })
			Expect(content).To(ConsistOf(2, 3))
		})

		It("should keep only the left delta when both sources change in the same turn", func() {
			left := Filter("evens", ms, isEven)
			right := Filter("bigs", ms, func(v int) bool { return v > 10 })
			both := Concat("both", left, right)
			size := Size("size", both)

			Expect(ms.Add(12)).To(Succeed()) // both sides see 12, only the left is reflected
			Expect(Current[int](both)).To(Equal(delta.Addition(12)))
			Expect(size.Now()).To(Equal(1))

			Expect(ms.Add(13)).To(Succeed()) // right only
			Expect(size.Now()).To(Equal(2))

			Expect(ms.Add(4)).To(Succeed()) // left only
			Expect(size.Now()).To(Equal(3))
		})

		It("should report no change in turns where neither source changed", func() {
			third := New[int](eng, "third")
			both := Concat("both", ms, other)
			Expect(third.Add(1)).To(Succeed())
			Expect(Current[int](both).IsUnchanged()).To(BeTrue())
		})
	})
})
