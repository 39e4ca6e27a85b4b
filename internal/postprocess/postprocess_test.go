package postprocess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docsplice/internal/config"
	"git.home.luguber.info/inful/docsplice/internal/document"
)

func TestClassInjector(t *testing.T) {
	ci := NewClassInjector(map[string]string{"code": "language-js"})

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare tag", `<code>print(1)</code>`, `<code class="language-js">print(1)</code>`},
		{"keeps other attributes", `<code id="x" data-line="2">a</code>`, `<code class="language-js" id="x" data-line="2">a</code>`},
		{"extends existing class", `<pre><code class="language-go">a</code></pre>`, `<pre><code class="language-go language-js">a</code></pre>`},
		{"single quoted class", `<code class='hl'>a</code>`, `<code class="hl language-js">a</code>`},
		{"already present", `<code class="language-js">a</code>`, `<code class="language-js">a</code>`},
		{"data-class is not class", `<code data-class="x">a</code>`, `<code class="language-js" data-class="x">a</code>`},
		{"does not touch longer tag names", `<codex>a</codex>`, `<codex>a</codex>`},
		{"closing tag untouched", `</code>`, `</code>`},
		{"multiple tags", `<code>a</code> and <code>b</code>`, `<code class="language-js">a</code> and <code class="language-js">b</code>`},
		{"upper case tag", `<CODE>a</CODE>`, `<CODE class="language-js">a</CODE>`},
		{"class text inside another value", `<code title="see class=foo">x</code>`, `<code class="language-js" title="see class=foo">x</code>`},
		{"class after quoted value", `<code title='a class="b"' class="hl">x</code>`, `<code title='a class="b"' class="hl language-js">x</code>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ci.Apply(tt.input))
		})
	}
}

func TestClassInjector_SkipsEmptyEntries(t *testing.T) {
	ci := NewClassInjector(map[string]string{"code": "", "": "x", "pre": "hljs"})
	assert.Equal(t, `<pre class="hljs"><code>a</code></pre>`, ci.Apply(`<pre><code>a</code></pre>`))
}

func TestImageParagraphStripper(t *testing.T) {
	s := ImageParagraphStripper{}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"image only paragraph", `<p><img src="a.png"></p>`, `<img src="a.png">`},
		{"with attributes and whitespace", "<p class=\"x\">\n  <img src=\"a.png\" alt=\"a\" />\n</p>", `<img src="a.png" alt="a" />`},
		{"nested paragraph runs", `<p><p><img src="a.png"></p></p>`, `<img src="a.png">`},
		{"text paragraph untouched", `<p>hello</p>`, `<p>hello</p>`},
		{"pre is not p", `<pre><img src="a.png"></pre>`, `<pre><img src="a.png"></pre>`},
		{"caption drops matching closing tag", `<p><img src="a.png"> caption</p>`, `<img src="a.png"> caption`},
		{"two images in one paragraph", `<p><img src="a.png"><img src="b.png"></p>`, `<img src="a.png"><img src="b.png">`},
		{"image inside text paragraph untouched", `<p>see <img src="a.png"></p>`, `<p>see <img src="a.png"></p>`},
		{"next paragraph kept", "<p><img src=\"a.png\"> caption\n<p>next</p>", "<img src=\"a.png\"> caption\n<p>next</p>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, s.Apply(tt.input))
		})
	}
}

func TestImageParagraphStripper_MergedCaptionStaysBalanced(t *testing.T) {
	m, err := document.NewMerger(".text")
	require.NoError(t, err)

	markup := FromConfig(config.PostProcessConfig{}).Process("<p><img src=\"a.png\" alt=\"a\"> A caption</p>\n")
	out, err := m.Merge("", `<html><head></head><body><div class="text"></div></body></html>`, markup)
	require.NoError(t, err)

	assert.Contains(t, out, `<div class="text"><img src="a.png" alt="a"/> A caption`)
	assert.NotContains(t, out, "<p></p>")
	assert.NotContains(t, out, "<p>")
}

func TestProcessor_Order(t *testing.T) {
	var seen []string
	record := func(name string) Rule {
		return NewRuleFunc(name, func(m string) string {
			seen = append(seen, name)
			return m + "|" + name
		})
	}

	p := New(record("first"), nil, record("second"))
	assert.Equal(t, "x|first|second", p.Process("x"))
	assert.Equal(t, []string{"first", "second"}, seen)

	extended := p.With(record("third"))
	assert.Len(t, p.Rules(), 2, "With must not alter the original chain")
	assert.Len(t, extended.Rules(), 3)
	assert.Equal(t, "third", extended.Rules()[2].Name())
}

func TestProcessor_RulesReturnsCopy(t *testing.T) {
	p := New(ImageParagraphStripper{})
	rules := p.Rules()
	rules[0] = NewRuleFunc("evil", func(string) string { return "" })
	assert.Equal(t, "strip_image_paragraphs", p.Rules()[0].Name())
}

func TestFromConfig(t *testing.T) {
	p := FromConfig(config.PostProcessConfig{ClassMap: config.DefaultClassMap()})
	names := make([]string, 0)
	for _, r := range p.Rules() {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"class_injector", "strip_image_paragraphs"}, names)

	keep := FromConfig(config.PostProcessConfig{KeepImageParagraphs: true})
	require.Len(t, keep.Rules(), 1)
	assert.Equal(t, `<p><img src="a.png"></p>`, keep.Process(`<p><img src="a.png"></p>`))
}

// TestProcessor_Idempotent runs the default chain twice over a corpus of markup
// shaped like renderer output.
func TestProcessor_Idempotent(t *testing.T) {
	p := FromConfig(config.PostProcessConfig{ClassMap: map[string]string{
		"code": "language-js",
		"img":  "responsive",
		"p":    "para",
		"pre":  "hljs",
	}})

	corpus := []string{
		`<code>print(1)</code>`,
		`<p><img src="a.png"></p>`,
		`<p>text with <code>inline</code></p>`,
		"<pre><code class=\"language-go\">func main() {}\n</code></pre>",
		`<p><img src="a.png" alt="a"><img src="b.png"></p>`,
		`<h1 id="t">Title</h1><p>Intro</p><p><img src="c.png"> caption</p>`,
		`<p class="lead"><p><img src="nested.png"></p></p>`,
		"",
		strings.Repeat(`<p><code>x</code></p>`, 5),
	}

	for _, m := range corpus {
		once := p.Process(m)
		twice := p.Process(once)
		assert.Equal(t, once, twice, "input %q", m)
	}
}
