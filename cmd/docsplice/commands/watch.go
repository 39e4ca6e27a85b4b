package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/docsplice/internal/build"
	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
	"git.home.luguber.info/inful/docsplice/internal/metrics"
	"git.home.luguber.info/inful/docsplice/internal/watch"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	MetricsFile     string `name:"metrics-file" help:"Keep Prometheus metrics in text format in this file, rewritten after template changes, rebuilds and on exit" placeholder:"PATH"`
	RebuildInterval string `name:"rebuild-interval" help:"Also rebuild every page on this interval, e.g. 1h (overrides watch.rebuild_interval)" placeholder:"DURATION"`
	Journal         string `name:"journal" help:"Record conversion events in this SQLite database" placeholder:"PATH"`
	InitialBuild    bool   `name:"initial-build" help:"Rebuild every page before watching" default:"true" negatable:""`
}

func (w *WatchCmd) Run(g *Global, root *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return w.run(ctx, g, root)
}

// run watches until ctx is cancelled.
func (w *WatchCmd) run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	if w.RebuildInterval != "" {
		cfg.Watch.RebuildInterval = w.RebuildInterval
	}
	interval, err := cfg.RebuildInterval()
	if err != nil {
		return err
	}

	journal, err := openJournal(w.Journal, g.Logger)
	if err != nil {
		return err
	}
	defer closeJournal(journal, g.Logger)

	var recorder metrics.Recorder = metrics.NoopRecorder{}
	writeMetrics := func() {}
	if w.MetricsFile != "" {
		prom := metrics.NewPrometheusRecorder(prometheus.NewRegistry())
		recorder = prom
		writeMetrics = func() {
			if err := prom.WriteTextfile(w.MetricsFile); err != nil {
				g.Logger.Warn("Failed to write metrics file", "path", w.MetricsFile, "error", err)
			}
		}
	}

	converter, err := newConverter(cfg, g.Logger, recorder, journal)
	if err != nil {
		return err
	}
	builder := build.NewBuilder(converter).WithLogger(g.Logger)

	if w.InitialBuild {
		_, err := builder.Build(ctx)
		writeMetrics()
		if err != nil {
			return err
		}
	}

	watcher := watch.New(converter, cfg.Source.Root, cfg.Template.Root).
		WithLogger(g.Logger).
		WithPeriodicRebuild(builder, interval).
		WithCheckpoint(writeMetrics)
	start := time.Now()
	if err := watcher.Run(ctx); err != nil {
		return err
	}
	if ctx.Err() == nil {
		return ferrors.WatchError("watcher stopped unexpectedly").Build()
	}
	g.Logger.Info("Watcher stopped", "uptime", time.Since(start).Round(time.Second).String())
	return nil
}
