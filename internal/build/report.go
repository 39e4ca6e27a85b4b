package build

import "time"

// BuildStatus represents the outcome of a build execution.
type BuildStatus string

const (
	// BuildStatusSuccess indicates every source converted.
	BuildStatusSuccess BuildStatus = "success"

	// BuildStatusPartial indicates at least one conversion failed.
	BuildStatusPartial BuildStatus = "partial"

	// BuildStatusFailed indicates the build could not enumerate its inputs.
	BuildStatusFailed BuildStatus = "failed"

	// BuildStatusCancelled indicates the build was cancelled.
	BuildStatusCancelled BuildStatus = "cancelled"
)

// IsSuccess returns true if the build converted every source.
func (s BuildStatus) IsSuccess() bool {
	return s == BuildStatusSuccess
}

// FileError is a single failed conversion.
type FileError struct {
	Source string
	Output string
	Err    error
}

// Report summarizes one build.
type Report struct {
	RunID  string
	Status BuildStatus

	// Sources is the number of source documents found.
	Sources   int
	Converted int
	Failed    int
	// Deleted is the number of stale outputs removed before converting.
	Deleted int

	// Errors lists failed conversions sorted by source path.
	Errors []FileError

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

func (r *Report) finish(status BuildStatus) {
	r.Status = status
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}
