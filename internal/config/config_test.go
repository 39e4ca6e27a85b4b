package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
)

// clearEnv isolates a test from the developer's environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvSourceRoot, EnvOutputRoot, EnvTemplateRoot, EnvTemplateFile} {
		// Setenv registers the restore; Unsetenv lets godotenv see the key as absent.
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_FileWithDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source:
  root: ./md
output:
  root: ./public/posts
template:
  root: ./templates
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "./md", cfg.Source.Root)
	assert.Equal(t, ".md", cfg.Source.Extension)
	assert.Equal(t, ".html", cfg.Output.Extension)
	assert.Equal(t, DefaultTemplateFile, cfg.Template.File)
	assert.Equal(t, ".text", cfg.Template.ContentSelector)
	assert.Equal(t, map[string]string{"code": "language-js"}, cfg.PostProcess.ClassMap)
	assert.Equal(t, filepath.Join("./templates", DefaultTemplateFile), cfg.TemplatePath())
}

func TestLoad_EnvOverridesAndExpansion(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	t.Setenv("SITE_DIR", "/srv/site")
	t.Setenv(EnvOutputRoot, "/srv/out")
	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source:
  root: ${SITE_DIR}/md
  extension: markdown
output:
  root: ./ignored
postprocess:
  class_map:
    pre: hljs
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/site/md", cfg.Source.Root)
	assert.Equal(t, ".markdown", cfg.Source.Extension)
	assert.Equal(t, "/srv/out", cfg.Output.Root)
	assert.Equal(t, map[string]string{"pre": "hljs"}, cfg.PostProcess.ClassMap)
}

func TestLoad_DotEnvWithoutConfigFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MDPATH=./markdown\nTEMPLATEPATH=./tpl\n"), 0o600))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "./markdown", cfg.Source.Root)
	assert.Equal(t, "./tpl", cfg.Template.Root)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("source:\n  rot: typo\n"), 0o600))
	_, err = Load(bad)
	require.Error(t, err, "unknown fields should be rejected")
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &Config{
		Source:   SourceConfig{Root: filepath.Join(dir, "md")},
		Output:   OutputConfig{Root: filepath.Join(dir, "html")},
		Template: TemplateConfig{Root: filepath.Join(dir, "tpl")},
	}
	require.NoError(t, os.MkdirAll(cfg.Source.Root, 0o750))
	require.NoError(t, os.MkdirAll(cfg.Template.Root, 0o750))
	applyDefaults(cfg)
	return cfg
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		cfg := validConfig(t)
		require.NoError(t, cfg.Validate())
		require.NoError(t, cfg.EnsureOutputRoot())
		assert.DirExists(t, cfg.Output.Root)
	})

	cases := []struct {
		name     string
		mutate   func(*Config)
		category ferrors.ErrorCategory
	}{
		{"missing source root", func(c *Config) { c.Source.Root = "" }, ferrors.CategoryConfig},
		{"unreadable template root", func(c *Config) { c.Template.Root = filepath.Join(c.Template.Root, "nope") }, ferrors.CategoryConfig},
		{"missing output root", func(c *Config) { c.Output.Root = "" }, ferrors.CategoryConfig},
		{"same extensions", func(c *Config) { c.Output.Extension = c.Source.Extension }, ferrors.CategoryValidation},
		{"output equals template root", func(c *Config) { c.Output.Root = c.Template.Root }, ferrors.CategoryValidation},
		{"template with wrong extension", func(c *Config) { c.Template.File = "posts.tmpl" }, ferrors.CategoryValidation},
		{"bad rebuild interval", func(c *Config) { c.Watch.RebuildInterval = "soon" }, ferrors.CategoryValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig(t)
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, tc.category), "got %v", err)
		})
	}
}

func TestRebuildInterval_Negative(t *testing.T) {
	cfg := &Config{Watch: WatchConfig{RebuildInterval: "-5m"}}
	_, err := cfg.RebuildInterval()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryValidation))

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.NoError(t, ce.Cause(), "a negative duration parses fine, so there is no cause")
	assert.True(t, ce.IsFatal())
}

func TestLoad_BrokenDotEnvIsLogged(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BAD-KEY=1\n"), 0o600))

	_, err := Load("")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Could not load env file")
	assert.Contains(t, buf.String(), "path=.env")
}

func TestRebuildInterval(t *testing.T) {
	cfg := &Config{}
	d, err := cfg.RebuildInterval()
	require.NoError(t, err)
	assert.Zero(t, d)

	cfg.Watch.RebuildInterval = "90m"
	d, err = cfg.RebuildInterval()
	require.NoError(t, err)
	assert.Equal(t, "1h30m0s", d.String())
}

func TestLoad_LoggingSection(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
source:
  root: ./md
logging:
  level: Warning
  format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, LogLevelWarn, NormalizeLogLevel(cfg.Logging.Level))
	assert.Equal(t, LogFormatJSON, NormalizeLogFormat(cfg.Logging.Format))
}
