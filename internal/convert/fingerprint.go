package convert

import (
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/docsplice/internal/frontmatter"
)

// FingerprintMeta is the <meta> name carrying the fingerprint of the source
// an output was generated from.
const FingerprintMeta = "docsplice:source-fingerprint"

// Fingerprint returns the content fingerprint of a parsed source document.
func Fingerprint(doc frontmatter.Document) string {
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(doc.Raw), "\n"), string(doc.Body))
}

// ParseSource splits content into frontmatter and body. Content whose leading
// "---" is never closed is treated as plain markdown, where it is a thematic break.
func ParseSource(content []byte) (frontmatter.Document, error) {
	doc, err := frontmatter.Parse(content)
	if err != nil {
		return frontmatter.Document{Body: content}, err
	}
	return doc, nil
}
