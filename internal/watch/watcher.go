package watch

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/docsplice/internal/build"
	"git.home.luguber.info/inful/docsplice/internal/convert"
	"git.home.luguber.info/inful/docsplice/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
	"git.home.luguber.info/inful/docsplice/internal/logfields"
)

// Watcher reacts to changes under the source and template roots.
type Watcher struct {
	converter *convert.Converter
	roots     []string
	logger    *slog.Logger

	builder         *build.Builder
	rebuildInterval time.Duration
	checkpoint      func()

	handlers sync.WaitGroup

	mu          sync.Mutex
	propagation *propagation
}

// OutcomeStopped is the journaled outcome of a watch session that ended.
const OutcomeStopped = "stopped"

// propagation is one in-flight template propagation.
type propagation struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Watcher over roots. Duplicate roots are watched once.
func New(converter *convert.Converter, roots ...string) *Watcher {
	seen := make(map[string]bool, len(roots))
	var unique []string
	for _, r := range roots {
		key := filepath.Clean(r)
		if abs, err := filepath.Abs(r); err == nil {
			key = abs
		}
		if r == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, r)
	}
	return &Watcher{
		converter: converter,
		roots:     unique,
		logger:    slog.Default(),
	}
}

// WithLogger sets the logger.
func (w *Watcher) WithLogger(l *slog.Logger) *Watcher {
	if l != nil {
		w.logger = l
	}
	return w
}

// WithPeriodicRebuild schedules builder every interval while Run is active.
// A zero interval disables it.
func (w *Watcher) WithPeriodicRebuild(builder *build.Builder, interval time.Duration) *Watcher {
	w.builder = builder
	w.rebuildInterval = interval
	return w
}

// WithCheckpoint sets fn to run after every template propagation, after every
// periodic rebuild and once when Run stops. The watch command uses it to
// export metrics.
func (w *Watcher) WithCheckpoint(fn func()) *Watcher {
	w.checkpoint = fn
	return w
}

func (w *Watcher) runCheckpoint() {
	if w.checkpoint != nil {
		w.checkpoint()
	}
}

// Roots returns the watched roots.
func (w *Watcher) Roots() []string {
	out := make([]string, len(w.roots))
	copy(out, w.roots)
	return out
}

// Run watches until ctx is cancelled. It returns an error only when the
// notification source cannot be set up; per-file failures are logged.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryWatch, "failed to create file watcher").Fatal().Build()
	}
	defer func() { _ = fsw.Close() }()

	for _, root := range w.roots {
		if err := fsw.Add(root); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryWatch, "failed to watch directory").
				Fatal().
				WithContext("path", root).
				Build()
		}
	}

	runID := uuid.NewString()
	ctx = convert.WithRunID(ctx, runID)
	mapping := w.converter.Mapping()
	w.converter.Journal().Record(eventstore.NewRunStarted(runID, eventstore.RunStartedMeta{
		Trigger:    "watch",
		SourceRoot: mapping.SourceRoot,
		OutputRoot: mapping.OutputRoot,
	}))
	// Runs after the scheduler has shut down.
	defer w.runCheckpoint()
	started := time.Now()
	defer func() {
		w.converter.Journal().Record(eventstore.NewRunFinished(runID, eventstore.RunSummary{
			Outcome:  OutcomeStopped,
			Duration: time.Since(started),
		}))
	}()

	if w.builder != nil && w.rebuildInterval > 0 {
		rs, err := newRebuildScheduler(ctx, w.builder.WithTrigger(build.TriggerRebuild), w.rebuildInterval, w.logger, w.runCheckpoint)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryWatch, "failed to schedule periodic rebuild").Fatal().Build()
		}
		rs.start()
		defer func() {
			if err := rs.stop(); err != nil {
				w.logger.Warn("Failed to stop rebuild scheduler", logfields.Error(err))
			}
		}()
		w.logger.Info("Periodic rebuild scheduled", slog.Duration("interval", w.rebuildInterval))
	}

	w.logger.Info("Watching for changes", logfields.RunID(runID), slog.Any("roots", w.roots))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping watcher")
			w.Wait()
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				w.Wait()
				return nil
			}
			w.HandleFSEvent(ctx, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				w.Wait()
				return nil
			}
			w.logger.Error("Watcher error", logfields.Error(err))
		}
	}
}

// HandleFSEvent classifies a raw notification and dispatches it.
func (w *Watcher) HandleFSEvent(ctx context.Context, ev fsnotify.Event) {
	op, ok := opFromFSNotify(ev.Op)
	if !ok {
		return
	}
	w.Dispatch(ctx, Event{Op: op, Path: ev.Name, Kind: Classify(w.converter.Mapping(), ev.Name)})
}

// Dispatch runs the handler for a classified event without waiting for it.
func (w *Watcher) Dispatch(ctx context.Context, ev Event) {
	w.converter.Recorder().IncWatchEvent(string(ev.Kind))

	switch ev.Kind {
	case KindSource:
		output := w.converter.Mapping().OutputPathFor(ev.Path)
		w.logger.Info("Source changed",
			logfields.EventKind(string(ev.Op)),
			logfields.Source(ev.Path),
			logfields.Output(output))
		w.handlers.Add(1)
		go func() {
			defer w.handlers.Done()
			// Errors are logged and recorded by the converter.
			_ = w.converter.Convert(ctx, ev.Path, output)
		}()
	case KindTemplate:
		w.logger.Info("Template changed", logfields.EventKind(string(ev.Op)), logfields.Template(ev.Path))
		w.PropagateTemplate(ctx)
	default:
		w.logger.Debug("Ignoring event", logfields.EventKind(string(ev.Op)), logfields.Path(ev.Path))
	}
}

// PropagateTemplate regenerates every existing output from the current template.
// A propagation still in flight is cancelled first, and the new one starts only
// after it has wound down, so two propagations never overlap.
func (w *Watcher) PropagateTemplate(ctx context.Context) {
	pctx, cancel := context.WithCancel(ctx)
	next := &propagation{cancel: cancel, done: make(chan struct{})}

	w.mu.Lock()
	prev := w.propagation
	w.propagation = next
	w.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}

	w.handlers.Add(1)
	go func() {
		defer w.handlers.Done()
		defer close(next.done)
		defer cancel()
		if prev != nil {
			<-prev.done
		}
		w.propagate(pctx)
		w.runCheckpoint()
	}()
}

func (w *Watcher) propagate(ctx context.Context) {
	if ctx.Err() != nil {
		w.converter.Recorder().IncTemplatePropagation(true)
		return
	}
	mapping := w.converter.Mapping()
	outputs, err := mapping.Outputs()
	if err != nil {
		w.logger.Error("Template propagation failed to list outputs",
			logfields.Path(mapping.OutputRoot),
			logfields.Error(err))
		return
	}

	start := time.Now()
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, out := range outputs {
		wg.Add(1)
		go func(output string) {
			defer wg.Done()
			if err := w.converter.Regenerate(ctx, mapping.SourcePathFor(output), output); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(out)
	}
	wg.Wait()

	canceled := ctx.Err() != nil
	w.converter.Recorder().IncTemplatePropagation(canceled)
	attrs := []any{
		logfields.Count(len(outputs)),
		slog.Int("failed", failed),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())),
	}
	if canceled {
		w.logger.Info("Template propagation superseded", attrs...)
		return
	}
	w.logger.Info("Template propagated", attrs...)
}

// Wait blocks until every dispatched handler has finished.
func (w *Watcher) Wait() {
	w.handlers.Wait()
}
