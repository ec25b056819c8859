package logging

import (
	"context"
	"log/slog"
	"time"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldEvent marks pipeline phase transitions (watch_started, transfer_started, ...).
	FieldEvent = "event"
	// FieldFile is the standardized key for the work item path being processed.
	FieldFile = "file"
	// FieldSource is the standardized key for a source root or directory.
	FieldSource = "source"
	// FieldDestination is the standardized key for a destination identifier.
	FieldDestination = "destination"
	// FieldRun is the standardized key for the pipeline run identifier.
	FieldRun = "run_id"
)

// Pipeline phase event values.
const (
	EventWatchStarted       = "watch_started"
	EventTransferStarted    = "transfer_started"
	EventTransferSucceeded  = "transfer_succeeded"
	EventTransferFailed     = "transfer_failed"
	EventItemDropped        = "item_dropped"
	EventWorkerTerminated   = "worker_terminated"
	EventDestinationRetried = "destination_retried"
)

type Attr = slog.Attr

func Any(key string, value any) Attr { return slog.Any(key, value) }

func Bool(key string, value bool) Attr { return slog.Bool(key, value) }

func Duration(key string, value time.Duration) Attr { return slog.Duration(key, value) }

func Int(key string, value int) Attr { return slog.Int(key, value) }

func Int64(key string, value int64) Attr { return slog.Int64(key, value) }

func Uint64(key string, value uint64) Attr { return slog.Uint64(key, value) }

func String(key string, value string) Attr { return slog.String(key, value) }

func Event(value string) Attr { return slog.String(FieldEvent, value) }

func Error(err error) Attr {
	if err == nil {
		return slog.String("error", "<nil>")
	}
	return slog.Any("error", err)
}

// NewNop returns a logger that discards all output.
func NewNop() *slog.Logger {
	return slog.New(NoopHandler{})
}

// WithComponent creates a child logger tagged with a standardized component
// attribute. A nil base falls back to a no-op logger.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	return logger.With(String(FieldComponent, component))
}

// NoopHandler discards all log output.
type NoopHandler struct{}

func (NoopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (NoopHandler) Handle(context.Context, slog.Record) error { return nil }

func (NoopHandler) WithAttrs([]slog.Attr) slog.Handler { return NoopHandler{} }

func (NoopHandler) WithGroup(string) slog.Handler { return NoopHandler{} }
