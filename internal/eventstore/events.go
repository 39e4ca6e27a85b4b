package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/docsplice/internal/foundation/errors"
)

// Event type names as stored in the journal.
const (
	TypeRunStarted       = "RunStarted"
	TypeOutputDeleted    = "OutputDeleted"
	TypeOutputConverted  = "OutputConverted"
	TypeConversionFailed = "ConversionFailed"
	TypeRunFinished      = "RunFinished"
)

// RunStartedMeta describes the trigger and roots of a run.
type RunStartedMeta struct {
	Trigger    string `json:"trigger"` // "build", "watch" or "rebuild"
	SourceRoot string `json:"source_root"`
	OutputRoot string `json:"output_root"`
	Template   string `json:"template"`
}

// RunStarted is emitted when a batch build or watch session begins.
type RunStarted struct {
	BaseEvent
	Meta RunStartedMeta `json:"meta"`
}

// NewRunStarted creates a RunStarted event.
func NewRunStarted(runID string, meta RunStartedMeta) (*RunStarted, error) {
	payload, err := marshal(runID, TypeRunStarted, meta)
	if err != nil {
		return nil, err
	}
	return &RunStarted{BaseEvent: newBase(runID, TypeRunStarted, payload), Meta: meta}, nil
}

// OutputDeleted is emitted when a stale output document is removed.
type OutputDeleted struct {
	BaseEvent
	Output string `json:"output"`
}

// NewOutputDeleted creates an OutputDeleted event.
func NewOutputDeleted(runID, output string) (*OutputDeleted, error) {
	payload, err := marshal(runID, TypeOutputDeleted, map[string]any{"output": output})
	if err != nil {
		return nil, err
	}
	return &OutputDeleted{BaseEvent: newBase(runID, TypeOutputDeleted, payload), Output: output}, nil
}

// OutputConverted is emitted when a source was converted and written.
type OutputConverted struct {
	BaseEvent
	Source      string        `json:"source"`
	Output      string        `json:"output"`
	Fingerprint string        `json:"fingerprint"`
	Duration    time.Duration `json:"duration_ms"`
}

// NewOutputConverted creates an OutputConverted event.
func NewOutputConverted(runID, source, output, fingerprint string, duration time.Duration) (*OutputConverted, error) {
	payload, err := marshal(runID, TypeOutputConverted, map[string]any{
		"source":      source,
		"output":      output,
		"fingerprint": fingerprint,
		"duration_ms": duration.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	return &OutputConverted{
		BaseEvent:   newBase(runID, TypeOutputConverted, payload),
		Source:      source,
		Output:      output,
		Fingerprint: fingerprint,
		Duration:    duration,
	}, nil
}

// ConversionFailed is emitted when a single conversion unit fails.
type ConversionFailed struct {
	BaseEvent
	Source   string `json:"source"`
	Category string `json:"category"`
	Error    string `json:"error"`
}

// NewConversionFailed creates a ConversionFailed event.
func NewConversionFailed(runID, source string, cause error) (*ConversionFailed, error) {
	category := string(errors.GetCategory(cause))
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	payload, err := marshal(runID, TypeConversionFailed, map[string]any{
		"source":   source,
		"category": category,
		"error":    msg,
	})
	if err != nil {
		return nil, err
	}
	return &ConversionFailed{
		BaseEvent: newBase(runID, TypeConversionFailed, payload),
		Source:    source,
		Category:  category,
		Error:     msg,
	}, nil
}

// RunSummary carries the final counts of a run.
type RunSummary struct {
	Outcome   string        `json:"outcome"`
	Sources   int           `json:"sources"`
	Converted int           `json:"converted"`
	Failed    int           `json:"failed"`
	Deleted   int           `json:"deleted"`
	Duration  time.Duration `json:"duration_ms"`
}

// RunFinished is emitted when a batch build completes.
type RunFinished struct {
	BaseEvent
	Summary RunSummary `json:"summary"`
}

// NewRunFinished creates a RunFinished event.
func NewRunFinished(runID string, summary RunSummary) (*RunFinished, error) {
	payload, err := marshal(runID, TypeRunFinished, map[string]any{
		"outcome":     summary.Outcome,
		"sources":     summary.Sources,
		"converted":   summary.Converted,
		"failed":      summary.Failed,
		"deleted":     summary.Deleted,
		"duration_ms": summary.Duration.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}
	return &RunFinished{BaseEvent: newBase(runID, TypeRunFinished, payload), Summary: summary}, nil
}

func newBase(runID, eventType string, payload []byte) BaseEvent {
	return BaseEvent{
		EventRunID:     runID,
		EventType:      eventType,
		EventTimestamp: time.Now(),
		EventPayload:   payload,
	}
}

func marshal(runID, eventType string, v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, errors.JournalError("failed to marshal "+eventType+" payload").
			WithCause(err).
			WithContext("run_id", runID).
			Build()
	}
	return payload, nil
}
