// Package status compares the output tree against the source tree without
// writing anything.
package status

import (
	"errors"
	"io/fs"
	"os"
	"sort"

	"git.home.luguber.info/inful/docsplice/internal/convert"
	"git.home.luguber.info/inful/docsplice/internal/document"
	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
)

// State is the freshness of one output document.
type State string

const (
	// StateCurrent means the output was generated from the current source.
	StateCurrent State = "current"
	// StateStale means the source changed since the output was generated,
	// or the output carries no fingerprint.
	StateStale State = "stale"
	// StateMissing means the source has no output yet.
	StateMissing State = "missing"
	// StateOrphan means the output has no source any more.
	StateOrphan State = "orphan"
)

// Entry is the status of one source/output pair.
type Entry struct {
	Source string
	Output string
	State  State
	// Fingerprint of the current source; empty for orphans.
	Fingerprint string
}

// Summary counts entries per state.
type Summary map[State]int

// Check inspects every source and every output under the mapping's roots.
// Entries are sorted by output path.
func Check(m convert.Mapping) ([]Entry, error) {
	sources, err := m.Sources()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot list source root").
			WithContext("path", m.SourceRoot).
			Build()
	}
	outputs, err := m.Outputs()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot list output root").
			WithContext("path", m.OutputRoot).
			Build()
	}

	claimed := make(map[string]bool, len(sources))
	entries := make([]Entry, 0, len(sources))
	for _, src := range sources {
		out := m.OutputPathFor(src)
		claimed[out] = true
		entry, err := checkPair(src, out)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	for _, out := range outputs {
		if !claimed[out] {
			entries = append(entries, Entry{Source: m.SourcePathFor(out), Output: out, State: StateOrphan})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Output < entries[j].Output })
	return entries, nil
}

// Summarize counts entries per state.
func Summarize(entries []Entry) Summary {
	s := Summary{}
	for _, e := range entries {
		s[e.State]++
	}
	return s
}

func checkPair(source, output string) (Entry, error) {
	entry := Entry{Source: source, Output: output}

	raw, err := os.ReadFile(source) // #nosec G304 -- source root is operator-configured
	if err != nil {
		return entry, ferrors.WrapError(err, ferrors.CategorySource, convert.ErrSourceRead.Message()).
			WithContext("source", source).
			Build()
	}
	doc, _ := convert.ParseSource(raw)
	entry.Fingerprint = convert.Fingerprint(doc)

	out, err := os.ReadFile(output) // #nosec G304 -- output root is operator-configured
	switch {
	case errors.Is(err, fs.ErrNotExist):
		entry.State = StateMissing
		return entry, nil
	case err != nil:
		return entry, ferrors.WrapError(err, ferrors.CategoryFileSystem, "cannot read output document").
			WithContext("output", output).
			Build()
	}

	if fp, ok := document.ReadMeta(string(out), convert.FingerprintMeta); ok && fp == entry.Fingerprint {
		entry.State = StateCurrent
	} else {
		entry.State = StateStale
	}
	return entry, nil
}
