package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docsplice/internal/config"
	"git.home.luguber.info/inful/docsplice/internal/convert"
	"git.home.luguber.info/inful/docsplice/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
	"git.home.luguber.info/inful/docsplice/internal/metrics"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (docsplice.yaml is used when present)"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Source       string `name:"source" help:"Markdown source directory (overrides MDPATH)" placeholder:"DIR"`
	Output       string `name:"output" short:"o" help:"Output directory for generated pages (overrides HTMLPATH)" placeholder:"DIR"`
	Templates    string `name:"templates" help:"Template directory (overrides TEMPLATEPATH)" placeholder:"DIR"`
	TemplateFile string `name:"template-file" help:"Template file name inside the template directory (overrides TEMPLATEFILE)"`

	Build  BuildCmd  `cmd:"" help:"Rebuild every page once"`
	Watch  WatchCmd  `cmd:"" help:"Watch sources and template and update pages as they change"`
	Status StatusCmd `cmd:"" help:"Show which pages are missing, stale or current"`
}

// AfterApply runs after flag parsing; setup logging once. The configuration
// file may refine it later in LoadConfig.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	g.Logger = newLogger(parseLogLevel(c.Verbose, ""), config.LogFormatText)
	return nil
}

// parseLogLevel resolves the level: --verbose, then DOCSPLICE_LOG_LEVEL, then
// the configured level, then info.
func parseLogLevel(verbose bool, configured string) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if env := os.Getenv(config.EnvLogLevel); env != "" {
		return config.NormalizeLogLevel(env).SlogLevel()
	}
	return config.NormalizeLogLevel(configured).SlogLevel()
}

func newLogger(level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// LoadConfig loads, overrides and validates configuration, creating the output
// root when needed. Flags win over environment and file values.
func (c *CLI) LoadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if cfg.Logging != (config.LoggingConfig{}) {
		g.Logger = newLogger(parseLogLevel(c.Verbose, cfg.Logging.Level), config.NormalizeLogFormat(cfg.Logging.Format))
	}
	if c.Source != "" {
		cfg.Source.Root = c.Source
	}
	if c.Output != "" {
		cfg.Output.Root = c.Output
	}
	if c.Templates != "" {
		cfg.Template.Root = c.Templates
	}
	if c.TemplateFile != "" {
		cfg.Template.File = c.TemplateFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureOutputRoot(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newConverter wires a Converter with the given sinks.
func newConverter(cfg *config.Config, logger *slog.Logger, recorder metrics.Recorder, journal *eventstore.Journal) (*convert.Converter, error) {
	c, err := convert.New(cfg)
	if err != nil {
		return nil, err
	}
	return c.WithLogger(logger).WithRecorder(recorder).WithJournal(journal), nil
}

// openJournal opens the journal at path; an empty path disables journaling.
func openJournal(path string, logger *slog.Logger) (*eventstore.Journal, error) {
	if path == "" {
		return nil, nil
	}
	store, err := eventstore.NewSQLiteStore(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "cannot open journal").
			Fatal().
			WithContext("path", path).
			Build()
	}
	return eventstore.NewJournal(store, logger), nil
}

func closeJournal(j *eventstore.Journal, logger *slog.Logger) {
	if err := j.Close(); err != nil {
		logger.Warn("Failed to close journal", slog.String("error", err.Error()))
	}
}
