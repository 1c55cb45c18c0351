package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/cbehopkins/scopetree/allocator"
)

// session carries what the global flags set up for the command being run.
type session struct {
	logger  *zap.Logger
	scope   *allocator.Scope
	metrics bool
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	s := &session{}
	app := &cli.App{
		Name:   "scopetree",
		Usage:  "build scope-aware trees from the command line and query them",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log verbosity (debug, info, warn, error)",
				Value:   "warn",
				EnvVars: []string{"SCOPETREE_LOG_LEVEL"},
			},
			&cli.IntFlag{
				Name:    "chunk-size",
				Usage:   "arena chunk size in bytes (0 for the default)",
				EnvVars: []string{"SCOPETREE_CHUNK_SIZE"},
			},
			&cli.BoolFlag{
				Name:  "metrics",
				Usage: "print scope metrics after the command",
			},
		},
		Before: s.setup,
		After:  s.teardown,
	}
	app.Commands = []*cli.Command{
		keysCommand(s),
		intervalsCommand(s),
		stringsCommand(s),
	}
	return app
}

func (s *session) setup(cctx *cli.Context) error {
	level, err := zap.ParseAtomicLevel(cctx.String("log-level"))
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	s.logger = logger

	s.scope, err = allocator.New(allocator.Config{
		Name:      "cli",
		ChunkSize: cctx.Int("chunk-size"),
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	s.metrics = cctx.Bool("metrics")
	return nil
}

func (s *session) teardown(cctx *cli.Context) error {
	if s.scope == nil {
		return nil
	}
	defer func() {
		s.scope.Destroy()
		_ = s.logger.Sync()
	}()
	if !s.metrics {
		return nil
	}
	return dumpMetrics(cctx.App.Writer, s.scope)
}

// dumpMetrics prints the scope collector's samples, one per line.
func dumpMetrics(w io.Writer, scopes ...*allocator.Scope) error {
	reg := prometheus.NewRegistry()
	if err := reg.Register(allocator.NewCollector(scopes...)); err != nil {
		return err
	}
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	sort.Slice(families, func(i, j int) bool { return families[i].GetName() < families[j].GetName() })
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "%s%s %g\n", mf.GetName(), formatLabels(m.GetLabel()), sampleValue(mf.GetType(), m))
		}
	}
	return nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	out := "{"
	for i, l := range labels {
		if i > 0 {
			out += ","
		}
		out += fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return out + "}"
}

func sampleValue(t dto.MetricType, m *dto.Metric) float64 {
	switch t {
	case dto.MetricType_COUNTER:
		return m.GetCounter().GetValue()
	case dto.MetricType_GAUGE:
		return m.GetGauge().GetValue()
	default:
		return m.GetUntyped().GetValue()
	}
}
