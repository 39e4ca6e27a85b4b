package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsplice/internal/build"
	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
	"git.home.luguber.info/inful/docsplice/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	MetricsFile string `name:"metrics-file" help:"Write Prometheus metrics in text format to this file after the build" placeholder:"PATH"`
	Journal     string `name:"journal" help:"Record conversion events in this SQLite database" placeholder:"PATH"`
	Strict      bool   `help:"Exit non-zero when any page fails to convert"`
}

func (b *BuildCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var prom *metrics.PrometheusRecorder
	if b.MetricsFile != "" {
		prom = metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		recorder = prom
	}

	journal, err := openJournal(b.Journal, g.Logger)
	if err != nil {
		return err
	}
	defer closeJournal(journal, g.Logger)

	converter, err := newConverter(cfg, g.Logger, recorder, journal)
	if err != nil {
		return err
	}

	report, err := build.NewBuilder(converter).WithLogger(g.Logger).Build(ctx)

	if prom != nil {
		if werr := prom.WriteTextfile(b.MetricsFile); werr != nil {
			g.Logger.Warn("Failed to write metrics file", "path", b.MetricsFile, "error", werr)
		}
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Built %d of %d pages (%d failed, %d removed) in %s\n",
		report.Converted, report.Sources, report.Failed, report.Deleted, report.Duration.Round(time.Millisecond))
	for _, fe := range report.Errors {
		fmt.Fprintf(os.Stdout, "  failed: %s: %v\n", fe.Source, fe.Err)
	}

	if b.Strict && report.Failed > 0 {
		return ferrors.NewError(ferrors.CategoryRuntime, "build finished with failed conversions").
			WithContext("failed", report.Failed).
			WithContext("run_id", report.RunID).
			Build()
	}
	return nil
}
