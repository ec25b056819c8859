package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestConsoleHandlerOutput(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger = WithComponent(logger, "worker")
	logger.Info("transfer finished",
		Event(EventTransferSucceeded),
		String(FieldDestination, "/mnt/store0"),
		Int64("bytes", 4096),
	)

	line := buf.String()
	for _, want := range []string{
		"INFO",
		"worker: transfer finished",
		"event=transfer_succeeded",
		"destination=/mnt/store0",
		"bytes=4096",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("console output missing %q: %s", want, line)
		}
	}
}

func TestConsoleHandlerQuotesValues(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl))

	logger.Warn("odd value", String("detail", "has spaces"))
	if !strings.Contains(buf.String(), `detail="has spaces"`) {
		t.Errorf("expected quoted value, got: %s", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(nil, slog.LevelError) { //nolint:staticcheck
		t.Fatal("noop logger should never be enabled")
	}
}
