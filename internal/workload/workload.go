// Package workload replays scripted writes against an integer multiset and reports the tracked
// aggregates after every step.
package workload

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/yaml"

	"github.com/l7mp/dmultiset/pkg/multiset"
	"github.com/l7mp/dmultiset/pkg/reactive"
)

const (
	OpAdd    = "add"
	OpRemove = "remove"
)

var validate = validator.New()

// Op is a single scripted write.
type Op struct {
	Kind  string `json:"op" validate:"required,oneof=add remove"`
	Value int    `json:"value"`
}

// Script is a named sequence of writes.
type Script struct {
	Name string `json:"name,omitempty"`
	Ops  []Op   `json:"ops" validate:"dive"`
}

// Validate checks that every op is known.
func (s *Script) Validate() error {
	return validate.Struct(s)
}

// Parse parses a YAML or JSON script.
func Parse(b []byte) (*Script, error) {
	var s Script
	if err := yaml.UnmarshalStrict(b, &s); err != nil {
		return nil, fmt.Errorf("failed to parse workload: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload: %w", err)
	}
	return &s, nil
}

// Load reads a script from file.
func Load(file string) (*Script, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(b)
}

// Step is the outcome of a single op.
type Step struct {
	Index int    `json:"step"`
	Op    Op     `json:"write"`
	Error string `json:"error,omitempty"`
	Size  int    `json:"size"`
	Min   *int   `json:"min,omitempty"`
	Max   *int   `json:"max,omitempty"`
	Evens int    `json:"evens"`
	Sum   int    `json:"sum"`
}

// Report is the outcome of a replay.
type Report struct {
	Name     string `json:"name,omitempty"`
	Steps    []Step `json:"steps"`
	Rejected int    `json:"rejected"`
}

// Options configure a replay.
type Options struct {
	// FailFast stops the replay at the first rejected removal.
	FailFast bool
	// Registerer, if set, receives the engine metrics.
	Registerer prometheus.Registerer
	Logger     logr.Logger
}

// Pipeline is an integer multiset with the aggregates tracked by a replay.
type Pipeline struct {
	eng     *reactive.Engine
	ms      *multiset.Multiset[int]
	size    *reactive.Signal[int]
	minimum *reactive.Signal[multiset.Optional[int]]
	maximum *reactive.Signal[multiset.Optional[int]]
	evens   *reactive.Signal[int]
	sum     *reactive.Signal[int]
}

// NewPipeline creates an empty multiset and its aggregates on a new engine.
func NewPipeline(opts Options) *Pipeline {
	var engOpts []reactive.Option
	if opts.Registerer != nil {
		engOpts = append(engOpts, reactive.WithRegisterer(opts.Registerer))
	}
	eng := reactive.NewEngine(opts.Logger, engOpts...)

	ms := multiset.New[int](eng, "workload")
	return &Pipeline{
		eng:     eng,
		ms:      ms,
		size:    multiset.Size("size", ms),
		minimum: multiset.Min("min", ms),
		maximum: multiset.Max("max", ms),
		evens:   multiset.Count("evens", ms, func(v int) bool { return v%2 == 0 }),
		sum:     multiset.Sum("sum", ms),
	}
}

// Engine returns the engine of the pipeline.
func (p *Pipeline) Engine() *reactive.Engine { return p.eng }

// Apply performs a single write.
func (p *Pipeline) Apply(op Op) error {
	switch op.Kind {
	case OpAdd:
		return p.ms.Add(op.Value)
	case OpRemove:
		return p.ms.Remove(op.Value)
	default:
		return fmt.Errorf("unknown op %q", op.Kind)
	}
}

func (p *Pipeline) step(i int, op Op) Step {
	st := Step{Index: i, Op: op, Size: p.size.Now(), Evens: p.evens.Now(), Sum: p.sum.Now()}
	if v, ok := p.minimum.Now().Get(); ok {
		st.Min = &v
	}
	if v, ok := p.maximum.Now().Get(); ok {
		st.Max = &v
	}
	return st
}

// Run replays s and returns the per-step report. A rejected removal is recorded in the report and
// the replay continues, unless FailFast is set. Any other error aborts the replay; the partial
// report is returned with it.
func Run(ctx context.Context, s *Script, opts Options) (*Report, error) {
	log := opts.Logger.WithName("workload")
	p := NewPipeline(opts)

	report := &Report{Name: s.Name, Steps: make([]Step, 0, len(s.Ops))}
	for i, op := range s.Ops {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		err := p.Apply(op)
		var nf *multiset.NotFoundError
		if err != nil && !errors.As(err, &nf) {
			return report, fmt.Errorf("op %d: %w", i, err)
		}

		st := p.step(i, op)
		if err != nil {
			st.Error = err.Error()
			report.Rejected++
			log.V(2).Info("write rejected", "step", i, "op", op.Kind, "value", op.Value)
		}
		report.Steps = append(report.Steps, st)

		if err != nil && opts.FailFast {
			return report, fmt.Errorf("op %d: %w", i, err)
		}
	}

	log.V(4).Info("replay finished", "name", s.Name, "steps", len(report.Steps), "rejected", report.Rejected)
	return report, nil
}
