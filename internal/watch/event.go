// Package watch keeps the output tree in step with source and template edits.
//
// Every filesystem event under the watched roots is classified by extension.
// A source change converts exactly the one output derived from it; a template
// change regenerates every existing output (template propagation). Handlers run
// in their own goroutines without debouncing; conversions of the same output
// are serialized by the converter.
package watch

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/docsplice/internal/convert"
)

// Op is the kind of filesystem change.
type Op string

const (
	OpCreated  Op = "created"
	OpModified Op = "modified"
	OpDeleted  Op = "deleted"
	OpRenamed  Op = "renamed"
)

// Kind is what a changed path means to the pipeline.
type Kind string

const (
	KindSource   Kind = "source"
	KindTemplate Kind = "template"
	KindIgnored  Kind = "ignored"
)

// Event is a classified filesystem change.
type Event struct {
	Op   Op
	Path string
	Kind Kind
}

// opFromFSNotify maps an fsnotify op. Permission-only changes are dropped.
func opFromFSNotify(op fsnotify.Op) (Op, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreated, true
	case op.Has(fsnotify.Write):
		return OpModified, true
	case op.Has(fsnotify.Remove):
		return OpDeleted, true
	case op.Has(fsnotify.Rename):
		return OpRenamed, true
	default:
		return "", false
	}
}

// Classify decides what path means for the given mapping.
func Classify(m convert.Mapping, path string) Kind {
	switch {
	case shouldIgnoreEvent(path):
		return KindIgnored
	case m.IsSource(path):
		return KindSource
	case m.IsOutput(path):
		return KindTemplate
	default:
		return KindIgnored
	}
}

// shouldIgnoreEvent reports hidden, editor swap and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}

	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
