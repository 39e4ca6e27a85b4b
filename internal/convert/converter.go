package convert

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"git.home.luguber.info/inful/docsplice/internal/config"
	"git.home.luguber.info/inful/docsplice/internal/document"
	"git.home.luguber.info/inful/docsplice/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
	"git.home.luguber.info/inful/docsplice/internal/logfields"
	"git.home.luguber.info/inful/docsplice/internal/markdown"
	"git.home.luguber.info/inful/docsplice/internal/metrics"
	"git.home.luguber.info/inful/docsplice/internal/postprocess"
)

// Converter turns one source document into one output document.
type Converter struct {
	renderer     markdown.Renderer
	processor    *postprocess.Processor
	merger       *document.Merger
	templatePath string
	mapping      Mapping

	recorder metrics.Recorder
	journal  *eventstore.Journal
	logger   *slog.Logger

	locks pathLocks
}

// New builds a Converter from configuration with the default goldmark renderer
// and the configured post-processing chain.
func New(cfg *config.Config) (*Converter, error) {
	merger, err := document.NewMerger(cfg.Template.ContentSelector)
	if err != nil {
		return nil, err
	}
	return &Converter{
		renderer:     markdown.NewRenderer(markdown.Options{}),
		processor:    postprocess.FromConfig(cfg.PostProcess),
		merger:       merger,
		templatePath: cfg.TemplatePath(),
		mapping:      MappingFor(cfg),
		recorder:     metrics.NoopRecorder{},
		logger:       slog.Default(),
	}, nil
}

// WithRenderer replaces the markdown renderer.
func (c *Converter) WithRenderer(r markdown.Renderer) *Converter {
	c.renderer = r
	return c
}

// WithProcessor replaces the post-processing chain.
func (c *Converter) WithProcessor(p *postprocess.Processor) *Converter {
	c.processor = p
	return c
}

// WithRecorder sets the metrics recorder.
func (c *Converter) WithRecorder(r metrics.Recorder) *Converter {
	if r != nil {
		c.recorder = r
	}
	return c
}

// WithJournal sets the conversion journal. A nil journal disables journaling.
func (c *Converter) WithJournal(j *eventstore.Journal) *Converter {
	c.journal = j
	return c
}

// WithLogger sets the logger.
func (c *Converter) WithLogger(l *slog.Logger) *Converter {
	if l != nil {
		c.logger = l
	}
	return c
}

// Mapping returns the source/output path mapping.
func (c *Converter) Mapping() Mapping { return c.mapping }

// Recorder returns the metrics recorder.
func (c *Converter) Recorder() metrics.Recorder { return c.recorder }

// Journal returns the journal, which may be nil.
func (c *Converter) Journal() *eventstore.Journal { return c.journal }

// Convert renders sourcePath and splices it into outputPath. The error is also
// logged, recorded and journaled here, so callers only need it for counting.
func (c *Converter) Convert(ctx context.Context, sourcePath, outputPath string) error {
	unlock := c.locks.lock(outputPath)
	defer unlock()
	return c.convertLocked(ctx, sourcePath, outputPath)
}

// Regenerate deletes outputPath and converts it again from sourcePath, holding
// the output lock across both steps.
func (c *Converter) Regenerate(ctx context.Context, sourcePath, outputPath string) error {
	unlock := c.locks.lock(outputPath)
	defer unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	c.RemoveOutput(ctx, outputPath)
	// A deleted output is always written back, even if ctx is cancelled meanwhile.
	return c.convertLocked(context.WithoutCancel(ctx), sourcePath, outputPath)
}

// RemoveOutput deletes path if it exists. A missing file is not an error.
// It reports whether a file was removed; failures are logged, not returned.
func (c *Converter) RemoveOutput(ctx context.Context, path string) bool {
	removed, err := removeIfExists(path)
	if err != nil {
		c.logger.Warn("Failed to delete output document", logfields.Output(path), logfields.Error(err))
		c.recorder.IncOutputDeletion(false)
		return false
	}
	if removed {
		c.recorder.IncOutputDeletion(true)
		c.journal.Record(eventstore.NewOutputDeleted(RunIDFrom(ctx), path))
	}
	return removed
}

func (c *Converter) convertLocked(ctx context.Context, sourcePath, outputPath string) error {
	start := time.Now()
	fingerprint, err := c.convert(ctx, sourcePath, outputPath)
	elapsed := time.Since(start)
	runID := RunIDFrom(ctx)

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.logger.Debug("Conversion canceled", logfields.Source(sourcePath))
			return err
		}
		c.recorder.ObserveConversion(elapsed, metrics.ResultFailed)
		c.recorder.IncConversionFailure(string(ferrors.GetCategory(err)))
		c.journal.Record(eventstore.NewConversionFailed(runID, sourcePath, err))
		c.logger.Error("Conversion failed",
			logfields.RunID(runID),
			logfields.Source(sourcePath),
			logfields.Output(outputPath),
			logfields.Category(string(ferrors.GetCategory(err))),
			logfields.Error(err))
		return err
	}

	c.recorder.ObserveConversion(elapsed, metrics.ResultSuccess)
	c.journal.Record(eventstore.NewOutputConverted(runID, sourcePath, outputPath, fingerprint, elapsed))
	c.logger.Info("Converted",
		logfields.RunID(runID),
		logfields.Source(sourcePath),
		logfields.Output(outputPath),
		logfields.DurationMS(float64(elapsed.Microseconds())/1000))
	return nil
}

func (c *Converter) convert(ctx context.Context, sourcePath, outputPath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	raw, err := os.ReadFile(sourcePath) // #nosec G304 -- source root is operator-configured
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategorySource, ErrSourceRead.Message()).
			WithContext("source", sourcePath).
			Build()
	}

	src, err := ParseSource(raw)
	if err != nil {
		c.logger.Warn("Ignoring malformed frontmatter", logfields.Source(sourcePath), logfields.Error(err))
	}

	rendered, err := c.renderer.Render(src.Body)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, ErrRender.Message()).
			WithContext("source", sourcePath).
			Build()
	}
	markup := c.processor.Process(rendered)

	existing := c.readExisting(outputPath)
	var template string
	if strings.TrimSpace(existing) == "" {
		c.logger.Debug("Creating output from template", logfields.Output(outputPath), logfields.Template(c.templatePath))
		tpl, err := os.ReadFile(c.templatePath)
		if err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryTemplate, ErrTemplateRead.Message()).
				UserAction().
				WithContext("template", c.templatePath).
				Build()
		}
		template = string(tpl)
	}

	fingerprint := Fingerprint(src)
	opts := []document.Option{document.WithMeta(FingerprintMeta, fingerprint)}
	if title := src.Title(); title != "" {
		opts = append(opts, document.WithTitle(title))
	}

	merged, err := c.merger.Merge(existing, template, markup, opts...)
	if err != nil {
		if ce, ok := ferrors.AsClassified(err); ok {
			return "", ce.WithContext("output", outputPath)
		}
		return "", err
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := writeOutput(outputPath, merged); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, ErrWrite.Message()).
			WithContext("output", outputPath).
			Build()
	}
	return fingerprint, nil
}

// readExisting returns the current output document, or "" when there is none.
// Only a missing file is the expected template-fallback signal; any other read
// failure also falls back but is worth a warning.
func (c *Converter) readExisting(path string) string {
	data, err := os.ReadFile(path) // #nosec G304 -- output root is operator-configured
	switch {
	case err == nil:
		return string(data)
	case errors.Is(err, fs.ErrNotExist):
		return ""
	default:
		c.logger.Warn("Existing output unreadable, using template", logfields.Output(path), logfields.Error(err))
		return ""
	}
}

// writeOutput replaces path with content: delete-then-write.
func writeOutput(path, content string) error {
	if _, err := removeIfExists(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644) //nolint:gosec // public HTML output, non-sensitive
}

func removeIfExists(path string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := os.Remove(path); err != nil {
		// Lost a race with another remover; still gone.
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
