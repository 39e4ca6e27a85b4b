package convert

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/docsplice/internal/config"
)

// Mapping converts between source and output paths. Only the final extension
// is swapped and the base name is otherwise kept byte for byte, so the mapping
// is a bijection between sources and outputs.
type Mapping struct {
	SourceRoot      string
	SourceExtension string
	OutputRoot      string
	OutputExtension string
}

// MappingFor returns the mapping described by cfg.
func MappingFor(cfg *config.Config) Mapping {
	return Mapping{
		SourceRoot:      cfg.Source.Root,
		SourceExtension: cfg.Source.Extension,
		OutputRoot:      cfg.Output.Root,
		OutputExtension: cfg.Output.Extension,
	}
}

// OutputPathFor returns the output document derived from sourcePath.
// For "md/post1.md" and output root "public" this is "public/post1.html".
func (m Mapping) OutputPathFor(sourcePath string) string {
	return filepath.Join(m.OutputRoot, swapExt(filepath.Base(sourcePath), m.SourceExtension, m.OutputExtension))
}

// SourcePathFor is the inverse of OutputPathFor.
func (m Mapping) SourcePathFor(outputPath string) string {
	return filepath.Join(m.SourceRoot, swapExt(filepath.Base(outputPath), m.OutputExtension, m.SourceExtension))
}

// IsSource reports whether path carries the source extension.
func (m Mapping) IsSource(path string) bool {
	return hasExt(path, m.SourceExtension)
}

// IsOutput reports whether path carries the output extension.
func (m Mapping) IsOutput(path string) bool {
	return hasExt(path, m.OutputExtension)
}

// Slug returns the base name of a source or output path without its extension.
func Slug(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func hasExt(path, ext string) bool {
	return ext != "" && filepath.Ext(path) == ext
}

func swapExt(base, from, to string) string {
	if hasExt(base, from) {
		return base[:len(base)-len(filepath.Ext(base))] + to
	}
	return base + to
}

// Sources lists the source documents directly under SourceRoot, sorted.
func (m Mapping) Sources() ([]string, error) {
	return listWithExt(m.SourceRoot, m.SourceExtension)
}

// Outputs lists the output documents directly under OutputRoot, sorted.
func (m Mapping) Outputs() ([]string, error) {
	return listWithExt(m.OutputRoot, m.OutputExtension)
}

func listWithExt(root, ext string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !hasExt(e.Name(), ext) {
			continue
		}
		out = append(out, filepath.Join(root, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}
