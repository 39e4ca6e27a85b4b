package postprocess

import (
	"regexp"
	"sort"
	"strings"
)

// one attribute of an opening tag; quoted values are consumed whole so
// name=value text inside another attribute's value is never seen as an attribute
var attrPattern = regexp.MustCompile(`([^\s"'=/>]+)(?:\s*=\s*("[^"]*"|'[^']*'|[^\s"'>]+))?`)

type tagClass struct {
	class   string
	pattern *regexp.Regexp
}

// ClassInjector adds a CSS class to every opening tag of the configured names.
// Existing attributes are preserved; an existing class attribute is extended
// rather than duplicated, and a class already present is left alone.
type ClassInjector struct {
	tags []tagClass
}

// NewClassInjector builds an injector for a tag name -> class mapping.
// Empty tag names or classes are skipped.
func NewClassInjector(classMap map[string]string) *ClassInjector {
	names := make([]string, 0, len(classMap))
	for tag := range classMap {
		names = append(names, tag)
	}
	sort.Strings(names)

	ci := &ClassInjector{}
	for _, tag := range names {
		class := strings.TrimSpace(classMap[tag])
		tag = strings.TrimSpace(tag)
		if tag == "" || class == "" {
			continue
		}
		ci.tags = append(ci.tags, tagClass{
			class: class,
			// The attribute group must start with whitespace so <code> never matches <codex>.
			pattern: regexp.MustCompile(`(?i)<` + regexp.QuoteMeta(tag) + `(\s[^>]*)?>`),
		})
	}
	return ci
}

func (c *ClassInjector) Name() string { return "class_injector" }

func (c *ClassInjector) Apply(markup string) string {
	for _, tc := range c.tags {
		markup = tc.pattern.ReplaceAllStringFunc(markup, func(tag string) string {
			return injectClass(tag, tc.class)
		})
	}
	return markup
}

// injectClass rewrites a single opening tag such as `<code id="x">`.
func injectClass(tag, class string) string {
	nameEnd := strings.IndexFunc(tag[1:], func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '>' || r == '/'
	}) + 1
	name, attrs := tag[:nameEnd], tag[nameEnd:]

	valStart, valEnd := findClassValue(attrs)
	if valStart < 0 {
		return name + ` class="` + class + `"` + attrs
	}

	raw := attrs[valStart:valEnd]
	value := strings.Trim(raw, `"'`)
	for _, existing := range strings.Fields(value) {
		if existing == class {
			return tag
		}
	}
	merged := strings.TrimSpace(value + " " + class)
	return name + attrs[:valStart] + `"` + merged + `"` + attrs[valEnd:]
}

// findClassValue returns the bounds of the class attribute value in attrs, or
// -1, -1 when there is none. A bare class attribute without a value counts as
// absent.
func findClassValue(attrs string) (int, int) {
	for _, loc := range attrPattern.FindAllStringSubmatchIndex(attrs, -1) {
		if strings.EqualFold(attrs[loc[2]:loc[3]], "class") && loc[4] >= 0 {
			return loc[4], loc[5]
		}
	}
	return -1, -1
}
