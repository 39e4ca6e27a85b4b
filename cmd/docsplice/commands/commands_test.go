package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsplice/internal/config"
	"git.home.luguber.info/inful/docsplice/internal/eventstore"
	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
)

type site struct {
	root *CLI
	dir  string
}

func newSite(t *testing.T) site {
	t.Helper()
	for _, k := range []string{config.EnvSourceRoot, config.EnvOutputRoot, config.EnvTemplateRoot, config.EnvTemplateFile, config.EnvLogLevel} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	dir := t.TempDir()
	t.Chdir(dir)
	for _, d := range []string{"md", "tpl"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, d), 0o750))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tpl", config.DefaultTemplateFile),
		[]byte(`<html><head></head><body><div class="text"></div></body></html>`), 0o600))
	return site{
		root: &CLI{Source: "md", Output: "public", Templates: "tpl"},
		dir:  dir,
	}
}

func (s site) write(t *testing.T, rel, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(s.dir, rel), []byte(content), 0o600))
}

func TestParseLogLevel(t *testing.T) {
	t.Setenv(config.EnvLogLevel, "warn")
	assert.Equal(t, slog.LevelWarn, parseLogLevel(false, "error"))
	assert.Equal(t, slog.LevelDebug, parseLogLevel(true, "error"))

	t.Setenv(config.EnvLogLevel, "")
	assert.Equal(t, slog.LevelError, parseLogLevel(false, "error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel(false, ""))
}

func TestLoadConfig_FlagsOverrideAndCreateOutput(t *testing.T) {
	s := newSite(t)
	t.Setenv(config.EnvOutputRoot, "from-env")

	cfg, err := s.root.LoadConfig(&Global{Logger: slog.Default()})
	require.NoError(t, err)
	assert.Equal(t, "public", cfg.Output.Root)
	assert.DirExists(t, filepath.Join(s.dir, "public"))
}

func TestLoadConfig_InvalidRoots(t *testing.T) {
	s := newSite(t)
	s.root.Templates = "missing"
	_, err := s.root.LoadConfig(&Global{Logger: slog.Default()})
	require.Error(t, err)
	assert.Equal(t, 7, ferrors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestBuildCmd_Run(t *testing.T) {
	s := newSite(t)
	s.write(t, "md/post1.md", "# One")
	s.write(t, "md/post2.md", "# Two")

	cmd := &BuildCmd{MetricsFile: "metrics.prom", Journal: "journal.db"}
	require.NoError(t, cmd.Run(&Global{Logger: slog.Default()}, s.root))

	assert.FileExists(t, filepath.Join(s.dir, "public", "post1.html"))
	assert.FileExists(t, filepath.Join(s.dir, "public", "post2.html"))

	prom, err := os.ReadFile(filepath.Join(s.dir, "metrics.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "docsplice_")

	store, err := eventstore.NewSQLiteStore(filepath.Join(s.dir, "journal.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	events, err := store.GetRange(t.Context(), time.Unix(0, 0), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, events, 4, "run started, two conversions, run finished")
}

func TestBuildCmd_Strict(t *testing.T) {
	s := newSite(t)
	s.write(t, "md/ok.md", "fine")
	require.NoError(t, os.Symlink(filepath.Join(s.dir, "nowhere"), filepath.Join(s.dir, "md", "broken.md")))

	require.NoError(t, (&BuildCmd{}).Run(&Global{Logger: slog.Default()}, s.root))

	err := (&BuildCmd{Strict: true}).Run(&Global{Logger: slog.Default()}, s.root)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryRuntime))
}

func TestWatchCmd_WritesMetricsOnExit(t *testing.T) {
	s := newSite(t)
	s.write(t, "md/first.md", "# First")
	g := &Global{Logger: slog.Default()}

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- (&WatchCmd{MetricsFile: "watch.prom", InitialBuild: true}).run(ctx, g, s.root) }()

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(s.dir, "watch.prom"))
		return err == nil
	}, 5*time.Second, 20*time.Millisecond, "initial build writes the metrics file")
	assert.FileExists(t, filepath.Join(s.dir, "public", "first.html"))

	live := filepath.Join(s.dir, "public", "live.html")
	assert.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(s.dir, "md", "live.md"), []byte("# Live"), 0o600)
		_, err := os.Stat(live)
		return err == nil
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	prom, err := os.ReadFile(filepath.Join(s.dir, "watch.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), `docsplice_watch_events_total{kind="source"}`)
	assert.Contains(t, string(prom), `docsplice_build_outcomes_total{outcome="success"}`)
}

func TestStatusCmd_Check(t *testing.T) {
	s := newSite(t)
	s.write(t, "md/post.md", "body")
	g := &Global{Logger: slog.Default()}

	err := (&StatusCmd{Check: true}).Run(g, s.root)
	require.Error(t, err, "page was never built")

	require.NoError(t, (&BuildCmd{}).Run(g, s.root))
	require.NoError(t, (&StatusCmd{Check: true}).Run(g, s.root))
}

func TestStatusCmd_Journal(t *testing.T) {
	s := newSite(t)
	s.write(t, "md/post.md", "# Post")
	g := &Global{Logger: slog.Default()}
	require.NoError(t, (&BuildCmd{Journal: "journal.db"}).Run(g, s.root))

	cmd := &StatusCmd{Journal: "journal.db", Runs: 5}
	require.NoError(t, cmd.Run(g, s.root))

	var buf bytes.Buffer
	require.NoError(t, cmd.printJournal(t.Context(), &buf))
	assert.Contains(t, buf.String(), "Recent runs:")
	assert.Contains(t, buf.String(), "success")
	assert.Contains(t, buf.String(), "1 converted")

	store, err := eventstore.NewSQLiteStore(filepath.Join(s.dir, "journal.db"))
	require.NoError(t, err)
	runs, err := eventstore.History(t.Context(), store, 1)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.Len(t, runs, 1)

	buf.Reset()
	cmd.RunID = runs[0].RunID
	require.NoError(t, cmd.printJournal(t.Context(), &buf))
	assert.Contains(t, buf.String(), "Run "+runs[0].RunID+" (build): success, 1 converted")

	cmd.RunID = "no-such-run"
	err = cmd.printJournal(t.Context(), &buf)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryJournal))

	err = (&StatusCmd{Journal: "missing.db"}).printJournal(t.Context(), &buf)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(s.dir, "missing.db"))
}

func TestCLI_Parse(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Vars{"version": "test"}, kong.Bind(&Global{}))
	require.NoError(t, err)

	_, err = parser.Parse([]string{"--source", "md", "watch", "--rebuild-interval", "30m", "--no-initial-build", "--journal", "j.db"})
	require.NoError(t, err)
	assert.Equal(t, "md", cli.Source)
	assert.Equal(t, "30m", cli.Watch.RebuildInterval)
	assert.False(t, cli.Watch.InitialBuild)
	assert.Equal(t, "j.db", cli.Watch.Journal)

	_, err = parser.Parse([]string{"watch", "--metrics-file", "w.prom"})
	require.NoError(t, err)
	assert.Equal(t, "w.prom", cli.Watch.MetricsFile)

	_, err = parser.Parse([]string{"build", "--metrics-file", "m.prom", "--strict"})
	require.NoError(t, err)
	assert.True(t, cli.Build.Strict)
}
