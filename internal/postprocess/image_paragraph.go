package postprocess

import (
	"regexp"
	"strings"
)

var (
	// a run of opening <p> tags directly followed by an image tag
	pRunBeforeImg = regexp.MustCompile(`(?i)((?:<p(?:\s[^>]*)?>\s*)+)(<img\b[^>]*>)`)
	pOpen         = regexp.MustCompile(`(?i)<p(?:\s[^>]*)?>`)
	pOpenOrClose  = regexp.MustCompile(`(?i)<p(?:\s[^>]*)?>|</p\s*>`)
)

// ImageParagraphStripper removes paragraph tags wrapping an image so images are
// not trapped inside <p> elements. Opening tags are removed only when they
// directly precede the <img> (whitespace aside), and each removed opening tag
// takes its closing </p> with it, so trailing caption text stays balanced.
// <pre> and <param> are never touched.
type ImageParagraphStripper struct{}

func (ImageParagraphStripper) Name() string { return "strip_image_paragraphs" }

func (ImageParagraphStripper) Apply(markup string) string {
	var b strings.Builder
	rest := markup
	for {
		loc := pRunBeforeImg.FindStringSubmatchIndex(rest)
		if loc == nil {
			b.WriteString(rest)
			return b.String()
		}
		opened := len(pOpen.FindAllStringIndex(rest[loc[2]:loc[3]], -1))
		b.WriteString(rest[:loc[0]])
		b.WriteString(rest[loc[4]:loc[5]])
		rest = dropClosers(&b, rest[loc[1]:], opened)
	}
}

// dropClosers removes up to n closing </p> tags from the start of rest,
// copying the content between them to b. It stops at the first opening <p>,
// which belongs to another paragraph. Whitespace that only separates the image
// from a removed closing tag is dropped as well.
func dropClosers(b *strings.Builder, rest string, n int) string {
	for ; n > 0; n-- {
		loc := pOpenOrClose.FindStringIndex(rest)
		if loc == nil || rest[loc[0]+1] != '/' {
			break
		}
		if between := rest[:loc[0]]; strings.TrimSpace(between) != "" {
			b.WriteString(between)
		}
		rest = rest[loc[1]:]
	}
	return rest
}
