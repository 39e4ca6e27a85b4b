package build

import (
	ferrors "git.home.luguber.info/inful/docsplice/internal/foundation/errors"
)

// Sentinel errors for the failures that abort a whole build. Per-file failures
// are reported through Report.Errors instead.
var (
	ErrListOutputs = ferrors.FileSystemError("cannot list output root").Fatal().Build()
	ErrListSources = ferrors.FileSystemError("cannot list source root").Fatal().Build()
)
