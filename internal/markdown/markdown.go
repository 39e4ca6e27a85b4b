// Package markdown renders source documents to HTML fragments.
package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Renderer converts a markdown body (frontmatter already removed) into markup.
// Implementations must be pure: no I/O, same input gives the same output.
type Renderer interface {
	Render(body []byte) (string, error)
}

// Options tunes the goldmark renderer.
type Options struct {
	// DisableGFM turns off tables, strikethrough, autolinks and task lists.
	DisableGFM bool
	// Safe drops raw HTML embedded in the markdown instead of passing it through.
	Safe bool
}

// GoldmarkRenderer is the default Renderer.
type GoldmarkRenderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a goldmark-backed renderer. Heading IDs are generated and raw
// HTML is passed through unless Safe is set, matching what post authors expect from
// a blog converter.
func NewRenderer(opts Options) *GoldmarkRenderer {
	var exts []goldmark.Extender
	if !opts.DisableGFM {
		exts = append(exts, extension.GFM)
	}
	var rendererOpts []goldmark.Option
	if !opts.Safe {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	md := goldmark.New(append(rendererOpts,
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)...)
	return &GoldmarkRenderer{md: md}
}

// Render converts body to an HTML fragment.
func (r *GoldmarkRenderer) Render(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
