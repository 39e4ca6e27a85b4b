// Package eventstore keeps an append-only journal of conversion events.
//
// The journal is an operator-facing record of what every run did to the output
// tree (which files were deleted, converted or failed and why). History and
// LoadRun fold it back into per-run summaries for the status command; nothing
// in the pipeline reads it to decide what to convert.
package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) error

	// GetByRunID retrieves all events for a specific run in insertion order.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}
