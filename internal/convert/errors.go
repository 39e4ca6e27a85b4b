package convert

import (
	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
)

var (
	// ErrSourceRead indicates the source document was missing or unreadable.
	ErrSourceRead = ferrors.SourceError("source document unreadable").Build()

	// ErrTemplateRead indicates the template was needed but could not be read.
	ErrTemplateRead = ferrors.TemplateError("template document unreadable").Build()

	// ErrRender indicates the markdown renderer failed.
	ErrRender = ferrors.RenderError("markdown rendering failed").Build()

	// ErrWrite indicates the merged output could not be written.
	ErrWrite = ferrors.FileSystemError("output write failed").Build()
)
