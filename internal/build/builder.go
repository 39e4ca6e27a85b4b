package build

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsplice/internal/convert"
	"git.home.luguber.info/inful/docsplice/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
	"git.home.luguber.info/inful/docsplice/internal/logfields"
	"git.home.luguber.info/inful/docsplice/internal/metrics"
)

// Trigger names the reason a build ran. It is journaled with the run.
type Trigger string

const (
	TriggerBuild   Trigger = "build"
	TriggerRebuild Trigger = "rebuild"
)

// Builder regenerates the whole output tree.
type Builder struct {
	converter *convert.Converter
	logger    *slog.Logger
	trigger   Trigger
	newRunID  func() string
}

// NewBuilder creates a Builder on top of converter. Metrics and journal are
// taken from the converter so a build and its conversions report to the same sinks.
func NewBuilder(converter *convert.Converter) *Builder {
	return &Builder{
		converter: converter,
		logger:    slog.Default(),
		trigger:   TriggerBuild,
		newRunID:  uuid.NewString,
	}
}

// WithLogger sets the logger.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	if l != nil {
		b.logger = l
	}
	return b
}

// WithTrigger sets the trigger recorded for every run of this Builder.
func (b *Builder) WithTrigger(t Trigger) *Builder {
	b.trigger = t
	return b
}

// Build deletes every output and converts every source. The returned error is
// non-nil only when a root cannot be listed or ctx is cancelled; per-file
// failures are in the Report.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	report := &Report{RunID: b.newRunID(), StartTime: time.Now()}
	ctx = convert.WithRunID(ctx, report.RunID)
	mapping := b.converter.Mapping()
	recorder := b.converter.Recorder()
	journal := b.converter.Journal()

	logger := b.logger.With(logfields.RunID(report.RunID))
	logger.Info("Build started", slog.String("trigger", string(b.trigger)))
	journal.Record(eventstore.NewRunStarted(report.RunID, eventstore.RunStartedMeta{
		Trigger:    string(b.trigger),
		SourceRoot: mapping.SourceRoot,
		OutputRoot: mapping.OutputRoot,
	}))

	err := b.run(ctx, report)
	switch {
	case err != nil && ctx.Err() != nil:
		report.finish(BuildStatusCancelled)
	case err != nil:
		report.finish(BuildStatusFailed)
	case report.Failed > 0:
		report.finish(BuildStatusPartial)
	default:
		report.finish(BuildStatusSuccess)
	}

	recorder.ObserveBuildDuration(report.Duration)
	recorder.IncBuildOutcome(outcomeLabel(report.Status))
	journal.Record(eventstore.NewRunFinished(report.RunID, eventstore.RunSummary{
		Outcome:   string(report.Status),
		Sources:   report.Sources,
		Converted: report.Converted,
		Failed:    report.Failed,
		Deleted:   report.Deleted,
		Duration:  report.Duration,
	}))

	attrs := []any{
		slog.String("status", string(report.Status)),
		slog.Int("sources", report.Sources),
		slog.Int("converted", report.Converted),
		slog.Int("failed", report.Failed),
		slog.Int("deleted", report.Deleted),
		logfields.DurationMS(float64(report.Duration.Milliseconds())),
	}
	if err != nil {
		logger.Error("Build aborted", append(attrs, logfields.Error(err))...)
		return report, err
	}
	if report.Failed > 0 {
		logger.Warn("Build finished with failures", attrs...)
	} else {
		logger.Info("Build finished", attrs...)
	}
	return report, nil
}

func (b *Builder) run(ctx context.Context, report *Report) error {
	mapping := b.converter.Mapping()

	outputs, err := mapping.Outputs()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, ErrListOutputs.Message()).
			Fatal().
			WithContext("path", mapping.OutputRoot).
			Build()
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		deleted int
	)
	for _, out := range outputs {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			if b.converter.RemoveOutput(ctx, path) {
				mu.Lock()
				deleted++
				mu.Unlock()
			}
		}(out)
	}
	// Barrier: no conversion may start while the cleanup pass is still deleting.
	wg.Wait()
	report.Deleted = deleted

	if err := ctx.Err(); err != nil {
		return err
	}

	sources, err := mapping.Sources()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, ErrListSources.Message()).
			Fatal().
			WithContext("path", mapping.SourceRoot).
			Build()
	}
	report.Sources = len(sources)

	for _, src := range sources {
		wg.Add(1)
		go func(source, output string) {
			defer wg.Done()
			err := b.converter.Convert(ctx, source, output)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				report.Errors = append(report.Errors, FileError{Source: source, Output: output, Err: err})
				return
			}
			report.Converted++
		}(src, mapping.OutputPathFor(src))
	}
	wg.Wait()

	sort.Slice(report.Errors, func(i, j int) bool { return report.Errors[i].Source < report.Errors[j].Source })
	return ctx.Err()
}

func outcomeLabel(s BuildStatus) metrics.BuildOutcomeLabel {
	switch s {
	case BuildStatusSuccess:
		return metrics.BuildOutcomeSuccess
	case BuildStatusPartial:
		return metrics.BuildOutcomePartial
	case BuildStatusCancelled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}
