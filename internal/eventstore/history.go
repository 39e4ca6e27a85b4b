package eventstore

import (
	"context"
	"encoding/json"
	"time"
)

// OutcomeRunning marks a run that has no RunFinished event yet.
const OutcomeRunning = "running"

// RunFailure is one failed conversion of a run.
type RunFailure struct {
	Source   string `json:"source"`
	Category string `json:"category"`
	Error    string `json:"error"`
}

// RunHistory is a read model of one run, reconstructed from its journal events.
type RunHistory struct {
	RunID      string        `json:"run_id"`
	Trigger    string        `json:"trigger"`
	Outcome    string        `json:"outcome"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Converted  int           `json:"converted"`
	Deleted    int           `json:"deleted"`
	Failures   []RunFailure  `json:"failures,omitempty"`
}

// History returns the latest limit runs in the journal, newest first.
// A limit of zero or less returns every run.
func History(ctx context.Context, store Store, limit int) ([]RunHistory, error) {
	events, err := store.GetRange(ctx, time.Unix(0, 0), time.Now().Add(time.Hour))
	if err != nil {
		return nil, err
	}

	runs := make(map[string]*RunHistory)
	var order []string
	for _, ev := range events {
		run, ok := runs[ev.RunID()]
		if !ok {
			run = newRunHistory(ev)
			runs[ev.RunID()] = run
			order = append(order, ev.RunID())
		}
		run.apply(ev)
	}

	out := make([]RunHistory, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, *runs[order[i]])
	}
	return out, nil
}

// LoadRun reconstructs a single run. ok is false when the journal holds no
// events for runID.
func LoadRun(ctx context.Context, store Store, runID string) (run RunHistory, ok bool, err error) {
	events, err := store.GetByRunID(ctx, runID)
	if err != nil || len(events) == 0 {
		return RunHistory{}, false, err
	}
	r := newRunHistory(events[0])
	for _, ev := range events {
		r.apply(ev)
	}
	return *r, true, nil
}

func newRunHistory(first Event) *RunHistory {
	return &RunHistory{
		RunID:     first.RunID(),
		Outcome:   OutcomeRunning,
		StartedAt: first.Timestamp(),
	}
}

// apply folds one event into the run. Undecodable payloads only lose detail.
func (r *RunHistory) apply(ev Event) {
	switch ev.Type() {
	case TypeRunStarted:
		r.StartedAt = ev.Timestamp()
		var meta RunStartedMeta
		if err := json.Unmarshal(ev.Payload(), &meta); err == nil {
			r.Trigger = meta.Trigger
		}

	case TypeOutputDeleted:
		r.Deleted++

	case TypeOutputConverted:
		r.Converted++

	case TypeConversionFailed:
		var f RunFailure
		_ = json.Unmarshal(ev.Payload(), &f)
		r.Failures = append(r.Failures, f)

	case TypeRunFinished:
		finished := ev.Timestamp()
		r.FinishedAt = &finished
		r.Duration = finished.Sub(r.StartedAt)
		var payload struct {
			Outcome string `json:"outcome"`
		}
		if err := json.Unmarshal(ev.Payload(), &payload); err == nil && payload.Outcome != "" {
			r.Outcome = payload.Outcome
		}
	}
}
