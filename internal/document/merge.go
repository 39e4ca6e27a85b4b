// Package document splices rendered markup into output documents.
//
// Merge is a pure transform over document text: it never touches the filesystem.
package document

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
)

// ErrMissingContentRegion is returned when neither the existing document nor
// the template holds the content region. It points at a malformed template.
var ErrMissingContentRegion = ferrors.TemplateError("content region not found").Build()

// Option decorates the merged document head.
type Option func(*mergeOptions)

type mergeOptions struct {
	title string
	metas [][2]string
}

// WithTitle sets the <title> of the merged document. Empty titles are ignored.
func WithTitle(title string) Option {
	return func(o *mergeOptions) { o.title = strings.TrimSpace(title) }
}

// WithMeta upserts <meta name=name content=content> in the document head.
func WithMeta(name, content string) Option {
	return func(o *mergeOptions) { o.metas = append(o.metas, [2]string{name, content}) }
}

// Merger replaces the content region of output documents.
type Merger struct {
	selector Selector
}

// NewMerger builds a Merger for the given content region selector.
func NewMerger(selector string) (*Merger, error) {
	sel, err := ParseSelector(selector)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "invalid content selector").
			Fatal().
			WithContext("selector", selector).
			Build()
	}
	return &Merger{selector: sel}, nil
}

// Selector returns the content region selector.
func (m *Merger) Selector() Selector { return m.selector }

// Merge parses existing (or template when existing is blank), replaces the
// inner content of the content region with markup and serializes the result.
// The first element matching the selector is the content region.
func (m *Merger) Merge(existing, template, markup string, opts ...Option) (string, error) {
	origin, src := "existing", existing
	if strings.TrimSpace(existing) == "" {
		origin, src = "template", template
	}

	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryTemplate, "cannot parse document").
			WithContext("document", origin).
			Build()
	}

	region := m.selector.FindFirst(doc)
	if region == nil {
		return "", ferrors.NewError(ferrors.CategoryTemplate, ErrMissingContentRegion.Message()).
			UserAction().
			WithContext("selector", m.selector.String()).
			WithContext("document", origin).
			Build()
	}

	if err := setInnerHTML(region, markup); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, "cannot parse rendered markup").Build()
	}

	var o mergeOptions
	for _, opt := range opts {
		opt(&o)
	}
	if head := findElement(doc, atom.Head); head != nil {
		if o.title != "" {
			setTitle(head, o.title)
		}
		for _, kv := range o.metas {
			upsertMeta(head, kv[0], kv[1])
		}
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return buf.String(), nil
}

// ReadMeta returns the content of <meta name=name> in doc.
func ReadMeta(doc, name string) (string, bool) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return "", false
	}
	head := findElement(root, atom.Head)
	if head == nil {
		return "", false
	}
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Meta && attr(c, "name") == name {
			return attr(c, "content"), true
		}
	}
	return "", false
}

func setInnerHTML(n *html.Node, markup string) error {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return err
	}
	for _, child := range nodes {
		n.AppendChild(child)
	}
	return nil
}

func setTitle(head *html.Node, title string) {
	t := findElement(head, atom.Title)
	if t == nil {
		t = &html.Node{Type: html.ElementNode, Data: "title", DataAtom: atom.Title}
		head.AppendChild(t)
	}
	for c := t.FirstChild; c != nil; {
		next := c.NextSibling
		t.RemoveChild(c)
		c = next
	}
	t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
}

func upsertMeta(head *html.Node, name, content string) {
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Meta || attr(c, "name") != name {
			continue
		}
		for i := range c.Attr {
			if c.Attr[i].Key == "content" {
				c.Attr[i].Val = content
				return
			}
		}
		c.Attr = append(c.Attr, html.Attribute{Key: "content", Val: content})
		return
	}
	head.AppendChild(&html.Node{
		Type:     html.ElementNode,
		Data:     "meta",
		DataAtom: atom.Meta,
		Attr:     []html.Attribute{{Key: "name", Val: name}, {Key: "content", Val: content}},
	})
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
