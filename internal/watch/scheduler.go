package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docsplice/internal/build"
	"git.home.luguber.info/inful/docsplice/internal/logfields"
)

// rebuildScheduler runs a full build on a fixed interval while watching.
type rebuildScheduler struct {
	scheduler gocron.Scheduler
	builder   *build.Builder
	ctx       context.Context
	logger    *slog.Logger
	after     func()
}

func newRebuildScheduler(ctx context.Context, builder *build.Builder, interval time.Duration, logger *slog.Logger, after func()) (*rebuildScheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	rs := &rebuildScheduler{scheduler: s, builder: builder, ctx: ctx, logger: logger, after: after}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(rs.executeBuild),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	return rs, nil
}

func (rs *rebuildScheduler) start() {
	rs.scheduler.Start()
}

func (rs *rebuildScheduler) stop() error {
	return rs.scheduler.Shutdown()
}

// executeBuild is called by gocron. Build already logs its own summary.
func (rs *rebuildScheduler) executeBuild() {
	if rs.ctx.Err() != nil {
		return
	}
	rs.logger.Info("Executing scheduled rebuild")
	if _, err := rs.builder.Build(rs.ctx); err != nil {
		rs.logger.Error("Scheduled rebuild failed", logfields.Error(err))
	}
	if rs.after != nil {
		rs.after()
	}
}
