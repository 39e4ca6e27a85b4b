package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeySource     = "source"
	KeyOutput     = "output"
	KeyTemplate   = "template"
	KeyPath       = "path"
	KeyRule       = "rule"
	KeyEvent      = "event"
	KeyEventKind  = "event_kind"
	KeyCategory   = "category"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Source(p string) slog.Attr       { return slog.String(KeySource, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Template(p string) slog.Attr     { return slog.String(KeyTemplate, p) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Rule(name string) slog.Attr      { return slog.String(KeyRule, name) }
func Event(op string) slog.Attr       { return slog.String(KeyEvent, op) }
func EventKind(k string) slog.Attr    { return slog.String(KeyEventKind, k) }
func Category(c string) slog.Attr     { return slog.String(KeyCategory, c) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
