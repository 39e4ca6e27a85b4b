package eventstore

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/docsplice/internal/logfields"
)

// Journal records events without ever failing the caller. A nil *Journal is
// valid and discards everything, so components can hold one unconditionally.
type Journal struct {
	store  Store
	logger *slog.Logger
}

// NewJournal wraps store. A nil logger uses slog.Default().
func NewJournal(store Store, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{store: store, logger: logger}
}

// Record appends ev. It accepts the constructor results directly, as in
// j.Record(NewOutputDeleted(runID, path)). Failures are logged at warn level
// and otherwise ignored. Appends are not tied to a caller context so the
// outcome of a canceled run is still journaled.
func (j *Journal) Record(ev Event, buildErr error) {
	if j == nil || j.store == nil {
		return
	}
	if buildErr != nil {
		j.logger.Warn("Failed to build journal event", logfields.Error(buildErr))
		return
	}
	if err := j.store.Append(context.Background(), ev.RunID(), ev.Type(), ev.Payload(), ev.Metadata()); err != nil {
		j.logger.Warn("Failed to append journal event",
			logfields.RunID(ev.RunID()),
			logfields.Event(ev.Type()),
			logfields.Error(err))
	}
}

// Close closes the underlying store.
func (j *Journal) Close() error {
	if j == nil || j.store == nil {
		return nil
	}
	return j.store.Close()
}
