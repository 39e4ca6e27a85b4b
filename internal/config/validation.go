package config

import (
	"os"
	"path/filepath"
	"time"

	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
)

// Validate checks the startup requirements. Any failure here is fatal to the whole run;
// per-file problems are only discovered later and never surface through Validate.
func (c *Config) Validate() error {
	if err := validateDir("source root", EnvSourceRoot, c.Source.Root); err != nil {
		return err
	}
	if err := validateDir("template root", EnvTemplateRoot, c.Template.Root); err != nil {
		return err
	}
	if c.Output.Root == "" {
		return ferrors.ConfigError("output root is not configured").
			WithContext("env", EnvOutputRoot).
			Build()
	}
	if c.Source.Extension == c.Output.Extension {
		return ferrors.ValidationError("source and output extensions must differ").
			WithContext("extension", c.Source.Extension).
			Build()
	}
	if samePath(c.Template.Root, c.Output.Root) || samePath(c.Source.Root, c.Output.Root) {
		// A watched output root would feed every write back in as a template change.
		return ferrors.ValidationError("output root must not be the source or template root").
			WithContext("output", c.Output.Root).
			Build()
	}
	if filepath.Ext(c.Template.File) != c.Output.Extension {
		return ferrors.ValidationError("template file must use the output extension").
			WithContext("file", c.Template.File).
			WithContext("extension", c.Output.Extension).
			Build()
	}
	if _, err := c.RebuildInterval(); err != nil {
		return err
	}
	return nil
}

// RebuildInterval parses Watch.RebuildInterval; zero means disabled.
func (c *Config) RebuildInterval() (time.Duration, error) {
	if c.Watch.RebuildInterval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Watch.RebuildInterval)
	if err != nil {
		return 0, ferrors.WrapError(err, ferrors.CategoryValidation, "invalid watch.rebuild_interval").
			Fatal().
			WithContext("value", c.Watch.RebuildInterval).
			Build()
	}
	if d < 0 {
		return 0, ferrors.ValidationError("watch.rebuild_interval must not be negative").
			WithContext("value", c.Watch.RebuildInterval).
			Build()
	}
	return d, nil
}

func validateDir(label, env, dir string) error {
	if dir == "" {
		return ferrors.ConfigError(label+" is not configured").WithContext("env", env).Build()
	}
	st, err := os.Stat(dir)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, label+" is not readable").
			Fatal().
			WithContext("path", dir).
			Build()
	}
	if !st.IsDir() {
		return ferrors.ConfigError(label+" is not a directory").WithContext("path", dir).Build()
	}
	return nil
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
