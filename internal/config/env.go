package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"git.home.luguber.info/inful/docsplice/internal/logfields"
)

// Environment variable names shared with the site deployment scripts.
const (
	EnvSourceRoot   = "MDPATH"
	EnvOutputRoot   = "HTMLPATH"
	EnvTemplateRoot = "TEMPLATEPATH"
	EnvTemplateFile = "TEMPLATEFILE"
	EnvLogLevel     = "DOCSPLICE_LOG_LEVEL"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads every present .env file. godotenv never overrides
// variables already set in the process environment.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Could not load env file", logfields.Path(name), logfields.Error(err))
		}
	}
}

// applyEnvOverrides lets the environment override file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvSourceRoot); v != "" {
		cfg.Source.Root = v
	}
	if v := os.Getenv(EnvOutputRoot); v != "" {
		cfg.Output.Root = v
	}
	if v := os.Getenv(EnvTemplateRoot); v != "" {
		cfg.Template.Root = v
	}
	if v := os.Getenv(EnvTemplateFile); v != "" {
		cfg.Template.File = v
	}
}
