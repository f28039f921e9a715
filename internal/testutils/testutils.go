// Package testutils contains helpers shared by the test suites.
package testutils

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"

	"github.com/go-logr/logr"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
)

// NewLogger returns a development logger that writes to the Ginkgo output at the given
// verbosity.
func NewLogger(loglevel int) logr.Logger {
	opts := zap.Options{
		Development:     true,
		DestWriter:      GinkgoWriter,
		StacktraceLevel: zapcore.Level(4),
		TimeEncoder:     zapcore.RFC3339NanoTimeEncoder,
		Level:           zapcore.Level(-loglevel), //nolint:gosec
	}
	return zap.New(zap.UseFlagOptions(&opts))
}

// Op is a single write on an integer multiset.
type Op struct {
	Remove bool
	Value  int
}

// RandomOps generates n random writes with values in [0, maxValue). Removals only ever target
// values that are live at that point, so the sequence is always admissible.
func RandomOps(seed int64, n, maxValue int) []Op {
	rnd := rand.New(rand.NewSource(seed)) //nolint:gosec
	live := []int{}
	ops := make([]Op, 0, n)
	for i := 0; i < n; i++ {
		if len(live) > 0 && rnd.Intn(5) < 2 {
			j := rnd.Intn(len(live))
			ops = append(ops, Op{Remove: true, Value: live[j]})
			live[j] = live[len(live)-1]
			live = live[:len(live)-1]
			continue
		}
		v := rnd.Intn(maxValue)
		live = append(live, v)
		ops = append(ops, Op{Value: v})
	}
	return ops
}
