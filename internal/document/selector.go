package document

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Selector is a compound simple selector: an optional tag name followed by any
// number of .class and #id parts, e.g. ".text", "#content", "article.post".
// Combinators are not supported; the content region must be addressable on its own.
type Selector struct {
	raw     string
	tag     string
	id      string
	classes []string
}

// ParseSelector parses a compound selector.
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Selector{}, fmt.Errorf("empty selector")
	}
	if strings.ContainsAny(s, " \t\n>+~[]:,*") {
		return Selector{}, fmt.Errorf("unsupported selector %q: only tag, .class and #id parts are allowed", s)
	}

	sel := Selector{raw: s}
	i := strings.IndexAny(s, ".#")
	if i < 0 {
		sel.tag = strings.ToLower(s)
		return sel, nil
	}
	sel.tag = strings.ToLower(s[:i])

	rest := s[i:]
	for rest != "" {
		kind := rest[0]
		rest = rest[1:]
		end := strings.IndexAny(rest, ".#")
		if end < 0 {
			end = len(rest)
		}
		part := rest[:end]
		rest = rest[end:]
		if part == "" {
			return Selector{}, fmt.Errorf("invalid selector %q: empty %q part", s, string(kind))
		}
		if kind == '#' {
			if sel.id != "" {
				return Selector{}, fmt.Errorf("invalid selector %q: more than one id", s)
			}
			sel.id = part
			continue
		}
		sel.classes = append(sel.classes, part)
	}
	return sel, nil
}

// MustParseSelector is ParseSelector for constants.
func MustParseSelector(s string) Selector {
	sel, err := ParseSelector(s)
	if err != nil {
		panic(err)
	}
	return sel
}

func (s Selector) String() string { return s.raw }

// Matches reports whether n is an element satisfying every part of the selector.
func (s Selector) Matches(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" && attr(n, "id") != s.id {
		return false
	}
	if len(s.classes) == 0 {
		return true
	}
	have := strings.Fields(attr(n, "class"))
	for _, want := range s.classes {
		found := false
		for _, c := range have {
			if c == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FindFirst returns the first matching element in document order, or nil.
func (s Selector) FindFirst(root *html.Node) *html.Node {
	if s.Matches(root) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := s.FindFirst(c); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
