// Package errors provides the classified error primitives used across docsplice.
//
// Every failure that crosses a package boundary is a ClassifiedError carrying a
// category (config, source, template, filesystem, ...), a severity and structured
// context. Two ClassifiedErrors compare equal under errors.Is when category and
// message match, so packages export sentinel values built with the same builder
// and return enriched copies:
//
//	var ErrSourceRead = errors.SourceError("source document unreadable").Build()
//
//	return errors.WrapError(err, errors.CategorySource, ErrSourceRead.Message()).
//		WithContext("path", path).
//		Build()
//
// The CLI adapter maps categories to process exit codes.
package errors
