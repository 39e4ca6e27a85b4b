package config

import "strings"

const (
	DefaultSourceExtension = ".md"
	DefaultOutputExtension = ".html"
	DefaultTemplateFile    = "posts.template.html"
	DefaultContentSelector = ".text"
)

// DefaultClassMap is applied when the configuration does not declare one.
func DefaultClassMap() map[string]string {
	return map[string]string{"code": "language-js"}
}

func applyDefaults(cfg *Config) {
	cfg.Source.Extension = normalizeExtension(cfg.Source.Extension, DefaultSourceExtension)
	cfg.Output.Extension = normalizeExtension(cfg.Output.Extension, DefaultOutputExtension)
	if cfg.Template.File == "" {
		cfg.Template.File = DefaultTemplateFile
	}
	if strings.TrimSpace(cfg.Template.ContentSelector) == "" {
		cfg.Template.ContentSelector = DefaultContentSelector
	}
	// An explicit empty map disables class injection; only a missing key gets the default.
	if cfg.PostProcess.ClassMap == nil {
		cfg.PostProcess.ClassMap = DefaultClassMap()
	}
}

func normalizeExtension(ext, def string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return def
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
