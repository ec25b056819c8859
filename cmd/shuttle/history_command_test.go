package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"shuttle/internal/history"
)

func TestHistoryEmpty(t *testing.T) {
	_, configPath := newCLIConfig(t)

	out, _, err := runCLI(t, configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "No transfers recorded yet")
}

func TestHistoryListsRecords(t *testing.T) {
	cfg, configPath := newCLIConfig(t)

	ledger, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	ctx := context.Background()
	if err := ledger.RecordTransfer(ctx, "run-1", "/data/capture/postdata_a.bin", "/mnt/store0", 4096, 2*time.Second); err != nil {
		t.Fatalf("record transfer: %v", err)
	}
	if err := ledger.RecordDrop(ctx, "run-1", "/data/capture/postdata_b.bin", "/mnt/store0", "source vanished"); err != nil {
		t.Fatalf("record drop: %v", err)
	}
	if err := ledger.Close(); err != nil {
		t.Fatalf("close ledger: %v", err)
	}

	out, _, err := runCLI(t, configPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "postdata_a.bin")
	requireContains(t, out, "transferred")
	requireContains(t, out, "dropped (source vanished)")
	requireContains(t, out, "4.0 KiB")
}

func TestHistoryLimit(t *testing.T) {
	cfg, configPath := newCLIConfig(t)

	ledger, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	ctx := context.Background()
	for _, name := range []string{"postdata_a.bin", "postdata_b.bin", "postdata_c.bin"} {
		if err := ledger.RecordTransfer(ctx, "run-1", "/data/capture/"+name, "/mnt/store0", 64, time.Second); err != nil {
			t.Fatalf("record transfer: %v", err)
		}
	}
	if err := ledger.Close(); err != nil {
		t.Fatalf("close ledger: %v", err)
	}

	out, _, err := runCLI(t, configPath, "history", "--limit", "1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	// Most recent record only.
	requireContains(t, out, "postdata_c.bin")
	for _, absent := range []string{"postdata_a.bin", "postdata_b.bin"} {
		if strings.Contains(out, absent) {
			t.Fatalf("expected %q to be filtered out by --limit", absent)
		}
	}
}
