/*
Copyright 2022 The l7mp/stunner team.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	"sigs.k8s.io/yaml"

	"github.com/l7mp/dmultiset/internal/buildinfo"
	"github.com/l7mp/dmultiset/internal/workload"
	"github.com/l7mp/dmultiset/pkg/visualize"
)

var (
	version    = "dev"
	commitHash = "n/a"
	buildDate  = "<unknown>"
)

type rootOptions struct {
	zap    zap.Options
	logger logr.Logger
}

type replayOptions struct {
	*rootOptions
	file     string
	output   string
	failFast bool
	metrics  bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{
		zap: zap.Options{
			Development:     true,
			DestWriter:      os.Stderr,
			StacktraceLevel: zapcore.Level(3),
			TimeEncoder:     zapcore.RFC3339NanoTimeEncoder,
		},
	}

	cmd := &cobra.Command{
		Use:   "dmultiset",
		Short: "Incremental multisets with delta-propagated aggregates",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = zap.New(zap.UseFlagOptions(&opts.zap)).WithName("dmultiset")
		},
		SilenceUsage: true,
	}

	fs := flag.NewFlagSet("zap", flag.ExitOnError)
	opts.zap.BindFlags(fs)
	cmd.PersistentFlags().AddGoFlagSet(fs)

	cmd.AddCommand(newReplayCommand(opts))
	cmd.AddCommand(newGraphCommand(opts))
	cmd.AddCommand(newVersionCommand())
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			info := buildinfo.BuildInfo{Version: version, CommitHash: commitHash, BuildDate: buildDate}
			fmt.Fprintf(cmd.OutOrStdout(), "dmultiset %s\n", info.String())
		},
	}
}

func newGraphCommand(rootOpts *rootOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print the propagation graph used by replay",
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := visualize.NewGenerator(format)
			if err != nil {
				return err
			}
			p := workload.NewPipeline(workload.Options{Logger: rootOpts.logger})
			fmt.Fprint(cmd.OutOrStdout(), gen.Generate(visualize.BuildGraph("replay", p.Engine())))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "output", "o", "dot", "diagram format (dot|mermaid)")
	return cmd
}

func newReplayCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &replayOptions{rootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a workload script against an integer multiset",
		Long: `Replay a YAML workload of add/remove writes against an integer multiset and print
the size, minimum, maximum, number of even values and sum after every write.

Example script:
  name: demo
  ops:
  - op: add
    value: 5
  - op: remove
    value: 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "workload script (required)")
	_ = cmd.MarkFlagRequired("file")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "text", "output format (text|yaml)")
	cmd.Flags().BoolVar(&opts.failFast, "fail-fast", false, "stop at the first rejected removal")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "print engine metrics after the replay")

	return cmd
}

func runReplay(cmd *cobra.Command, opts *replayOptions) error {
	if opts.output != "text" && opts.output != "yaml" {
		return fmt.Errorf("invalid output format %q: must be text or yaml", opts.output)
	}

	s, err := workload.Load(opts.file)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	report, runErr := workload.Run(cmd.Context(), s, workload.Options{
		FailFast:   opts.failFast,
		Registerer: reg,
		Logger:     opts.logger,
	})

	out := cmd.OutOrStdout()
	if report != nil {
		if err := printReport(out, report, opts.output); err != nil {
			return err
		}
	}
	if opts.metrics {
		if err := printMetrics(out, reg); err != nil {
			return err
		}
	}
	return runErr
}

func printReport(w io.Writer, r *workload.Report, format string) error {
	if format == "yaml" {
		b, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		_, err = w.Write(b)
		return err
	}

	opt := func(v *int) string {
		if v == nil {
			return "-"
		}
		return strconv.Itoa(*v)
	}
	fmt.Fprintf(w, "%-5s %-16s %6s %6s %6s %6s %8s\n", "STEP", "WRITE", "SIZE", "MIN", "MAX", "EVENS", "SUM")
	for _, st := range r.Steps {
		write := fmt.Sprintf("%s %d", st.Op.Kind, st.Op.Value)
		fmt.Fprintf(w, "%-5d %-16s %6d %6s %6s %6d %8d\n", st.Index, write, st.Size,
			opt(st.Min), opt(st.Max), st.Evens, st.Sum)
		if st.Error != "" {
			fmt.Fprintf(w, "      rejected: %s\n", st.Error)
		}
	}
	fmt.Fprintf(w, "%d writes, %d rejected\n", len(r.Steps), r.Rejected)
	return nil
}

func printMetrics(w io.Writer, reg *prometheus.Registry) error {
	mfs, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			switch {
			case m.GetCounter() != nil:
				fmt.Fprintf(w, "%s %g\n", mf.GetName(), m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%g\n", mf.GetName(), h.GetSampleCount(), h.GetSampleSum())
			}
		}
	}
	return nil
}
