package workload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/l7mp/dmultiset/internal/testutils"
	"github.com/l7mp/dmultiset/pkg/multiset"
)

func TestWorkload(t *testing.T) {
	RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Workload Suite")
}

const minScript = `
name: min-scenario
ops:
- op: add
  value: 5
- op: add
  value: 3
- op: add
  value: 3
- op: add
  value: 7
- op: remove
  value: 3
- op: remove
  value: 3
- op: remove
  value: 5
- op: remove
  value: 7`

func ptr(v int) *int { return &v }

var _ = ginkgo.Describe("Workload", func() {
	var opts Options

	ginkgo.BeforeEach(func() {
		opts = Options{Logger: testutils.NewLogger(4)}
	})

	ginkgo.Describe("Parse", func() {
		ginkgo.It("should parse a YAML script", func() {
			s, err := Parse([]byte(minScript))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Name).To(Equal("min-scenario"))
			Expect(s.Ops).To(HaveLen(8))
			Expect(s.Ops[0]).To(Equal(Op{Kind: OpAdd, Value: 5}))
			Expect(s.Ops[7]).To(Equal(Op{Kind: OpRemove, Value: 7}))
		})

		ginkgo.It("should parse a JSON script", func() {
			s, err := Parse([]byte(`{"ops":[{"op":"add","value":1}]}`))
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Ops).To(Equal([]Op{{Kind: OpAdd, Value: 1}}))
		})

		ginkgo.DescribeTable("should reject malformed scripts",
			func(script string) {
				_, err := Parse([]byte(script))
				Expect(err).To(HaveOccurred())
			},
			ginkgo.Entry("unknown op", "ops:\n- op: insert\n  value: 1"),
			ginkgo.Entry("unknown field", "ops:\n- op: add\n  val: 1"),
			ginkgo.Entry("non-integer value", "ops:\n- op: add\n  value: x"),
			ginkgo.Entry("missing op", "ops:\n- value: 1"),
		)

		ginkgo.It("should load a script from file", func() {
			file := filepath.Join(ginkgo.GinkgoT().TempDir(), "script.yaml")
			Expect(os.WriteFile(file, []byte(minScript), 0o600)).To(Succeed())
			s, err := Load(file)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Ops).To(HaveLen(8))

			_, err = Load(filepath.Join(ginkgo.GinkgoT().TempDir(), "missing.yaml"))
			Expect(err).To(HaveOccurred())
		})
	})

	ginkgo.Describe("Run", func() {
		ginkgo.It("should report the aggregates after every step", func() {
			s, err := Parse([]byte(minScript))
			Expect(err).NotTo(HaveOccurred())
			r, err := Run(context.Background(), s, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Rejected).To(Equal(0))
			Expect(r.Steps).To(HaveLen(8))

			mins := []*int{}
			for _, st := range r.Steps {
				mins = append(mins, st.Min)
			}
			Expect(mins).To(Equal([]*int{ptr(5), ptr(3), ptr(3), ptr(3), ptr(3), ptr(5), ptr(7), nil}))
			Expect(r.Steps[3].Max).To(Equal(ptr(7)))
			Expect(r.Steps[3].Size).To(Equal(4))
			Expect(r.Steps[3].Sum).To(Equal(18))
			Expect(r.Steps[3].Evens).To(Equal(0))
			Expect(r.Steps[7].Size).To(Equal(0))
		})

		ginkgo.It("should continue after a rejected removal", func() {
			s := &Script{Ops: []Op{{OpAdd, 2}, {OpRemove, 4}, {OpAdd, 4}}}
			r, err := Run(context.Background(), s, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Rejected).To(Equal(1))
			Expect(r.Steps).To(HaveLen(3))
			Expect(r.Steps[1].Error).To(ContainSubstring("not found"))
			Expect(r.Steps[1].Size).To(Equal(1))
			Expect(r.Steps[2].Evens).To(Equal(2))
		})

		ginkgo.It("should stop at a rejected removal in fail-fast mode", func() {
			opts.FailFast = true
			s := &Script{Ops: []Op{{OpAdd, 2}, {OpRemove, 4}, {OpAdd, 4}}}
			r, err := Run(context.Background(), s, opts)
			Expect(err).To(HaveOccurred())
			var nf *multiset.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
			Expect(r.Steps).To(HaveLen(2))
		})

		ginkgo.It("should stop when the context is canceled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			r, err := Run(ctx, &Script{Ops: []Op{{OpAdd, 1}}}, opts)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(r.Steps).To(BeEmpty())
		})

		ginkgo.It("should refuse unknown ops", func() {
			p := NewPipeline(opts)
			Expect(p.Apply(Op{Kind: "insert", Value: 1})).NotTo(Succeed())
			Expect(p.Engine().Turns()).To(Equal(uint64(0)))
		})

		ginkgo.It("should export engine metrics", func() {
			reg := prometheus.NewRegistry()
			opts.Registerer = reg
			s := &Script{Ops: []Op{{OpAdd, 1}, {OpAdd, 2}, {OpRemove, 9}, {OpRemove, 1}}}
			_, err := Run(context.Background(), s, opts)
			Expect(err).NotTo(HaveOccurred())

			n, err := testutil.GatherAndCount(reg, "dmultiset_turns_total")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})
	})
})
