package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
)

// DefaultConfigFile is picked up from the working directory when no --config is given.
const DefaultConfigFile = "docsplice.yaml"

// Config is the complete docsplice configuration. Components receive the
// sub-structs they need; nothing reads process environment after Load.
type Config struct {
	Source      SourceConfig      `yaml:"source"`
	Output      OutputConfig      `yaml:"output"`
	Template    TemplateConfig    `yaml:"template"`
	PostProcess PostProcessConfig `yaml:"postprocess"`
	Watch       WatchConfig       `yaml:"watch"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// SourceConfig locates the markdown source documents.
type SourceConfig struct {
	Root      string `yaml:"root"`
	Extension string `yaml:"extension"`
}

// OutputConfig locates the generated output documents.
type OutputConfig struct {
	Root      string `yaml:"root"`
	Extension string `yaml:"extension"`
}

// TemplateConfig locates the seed document and its content region.
type TemplateConfig struct {
	Root string `yaml:"root"`
	File string `yaml:"file"`
	// ContentSelector finds the content region: ".class", "#id", "tag" or "tag.class".
	ContentSelector string `yaml:"content_selector"`
}

// PostProcessConfig configures the markup rule chain.
type PostProcessConfig struct {
	// ClassMap maps tag names to a CSS class injected into every opening tag.
	ClassMap            map[string]string `yaml:"class_map"`
	KeepImageParagraphs bool              `yaml:"keep_image_paragraphs"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	// RebuildInterval schedules a periodic full rebuild (e.g. "1h"); empty disables it.
	RebuildInterval string `yaml:"rebuild_interval"`
}

// TemplatePath returns the absolute-or-relative path of the template document.
func (c *Config) TemplatePath() string {
	return filepath.Join(c.Template.Root, c.Template.File)
}

// Load reads configuration from path. An empty path falls back to DefaultConfigFile
// when it exists and to pure environment/default configuration otherwise.
// .env files are loaded first so ${VAR} references in the YAML can resolve against them.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse configuration file").
				Fatal().
				WithContext("path", path).
				Build()
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
		// environment-only configuration
	case errors.Is(err, fs.ErrNotExist):
		return nil, ferrors.ConfigError("configuration file not found").WithContext("path", path).Build()
	default:
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read configuration file").
			Fatal().
			WithContext("path", path).
			Build()
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

// decode expands environment references and strictly unmarshals YAML.
func decode(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode yaml: %w", err)
	}
	return nil
}

// EnsureOutputRoot creates the output root when it does not exist yet.
func (c *Config) EnsureOutputRoot() error {
	if err := os.MkdirAll(c.Output.Root, 0o750); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "cannot create output root").
			Fatal().
			WithContext("path", c.Output.Root).
			Build()
	}
	return nil
}
