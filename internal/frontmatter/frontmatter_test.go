package frontmatter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		fm     string
		body   string
		had    bool
		errIs  error
	}{
		{name: "no frontmatter", input: "# Title\n\nBody\n", body: "# Title\n\nBody\n"},
		{name: "yaml block", input: "---\ntitle: Hello\n---\n# Body\n", fm: "title: Hello\n", body: "# Body\n", had: true},
		{name: "crlf", input: "---\r\ntitle: x\r\n---\r\nBody\r\n", fm: "title: x\r\n", body: "Body\r\n", had: true},
		{name: "empty block", input: "---\n---\nBody\n", fm: "", body: "Body\n", had: true},
		{name: "closing at eof", input: "---\ntitle: x\n---", fm: "title: x\n", body: "", had: true},
		{name: "thematic break later is body", input: "Intro\n---\nMore\n", body: "Intro\n---\nMore\n"},
		{name: "unterminated", input: "---\ntitle: x\nBody\n", errIs: ErrMissingClosingDelimiter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, had, err := Split([]byte(tt.input))
			if tt.errIs != nil {
				require.True(t, errors.Is(err, tt.errIs), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.fm, string(fm))
			assert.Equal(t, tt.body, string(body))
			assert.Equal(t, tt.had, had)
		})
	}
}

func TestParse_Title(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: \"  First post \"\ntags: [a, b]\n---\nHello\n"))
	require.NoError(t, err)
	assert.True(t, doc.Had)
	assert.Equal(t, "First post", doc.Title())
	assert.Equal(t, "Hello\n", string(doc.Body))

	plain, err := Parse([]byte("Hello\n"))
	require.NoError(t, err)
	assert.False(t, plain.Had)
	assert.Empty(t, plain.Title())
	assert.Empty(t, plain.Fields)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("---\ntitle: [unclosed\n---\nBody\n"))
	require.Error(t, err)
}
