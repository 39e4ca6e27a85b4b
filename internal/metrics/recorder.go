package metrics

import "time"

// ResultLabel enumerates conversion result categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
)

// BuildOutcomeLabel enumerates batch build outcomes.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess BuildOutcomeLabel = "success"
	// BuildOutcomePartial means at least one conversion failed.
	BuildOutcomePartial  BuildOutcomeLabel = "partial"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for conversions, builds and watch events.
type Recorder interface {
	ObserveConversion(d time.Duration, result ResultLabel)
	IncConversionFailure(category string)
	IncOutputDeletion(success bool)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	IncWatchEvent(kind string)
	IncTemplatePropagation(canceled bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveConversion(time.Duration, ResultLabel) {}
func (NoopRecorder) IncConversionFailure(string)                   {}
func (NoopRecorder) IncOutputDeletion(bool)                        {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)            {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)             {}
func (NoopRecorder) IncWatchEvent(string)                          {}
func (NoopRecorder) IncTemplatePropagation(bool)                   {}
