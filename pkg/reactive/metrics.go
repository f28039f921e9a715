package reactive

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "dmultiset"

type metrics struct {
	turns         prometheus.Counter
	reevaluations prometheus.Counter
	errors        prometheus.Counter
	duration      prometheus.Histogram
}

func newMetrics() *metrics {
	return &metrics{
		turns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "turns_total",
			Help:      "Number of committed turns.",
		}),
		reevaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reevaluations_total",
			Help:      "Number of node reevaluations.",
		}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "turn_errors_total",
			Help:      "Number of turns that failed with a fatal error.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "turn_duration_seconds",
			Help:      "Time spent propagating a turn.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
}

func (m *metrics) register(reg prometheus.Registerer) {
	m.turns = register(reg, m.turns)
	m.reevaluations = register(reg, m.reevaluations)
	m.errors = register(reg, m.errors)
	m.duration = register(reg, m.duration)
}

// register registers c, or returns the collector already registered under the same name.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
	}
	return c
}
