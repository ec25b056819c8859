package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenPath(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.RecordTransfer(ctx, "run-1", "/src/postdata_a.bin", "/mnt/store0", 4096, 1500*time.Millisecond); err != nil {
		t.Fatalf("record transfer: %v", err)
	}
	if err := store.RecordDrop(ctx, "run-1", "/src/postdata_b.bin", "/mnt/store1", "source vanished before transfer"); err != nil {
		t.Fatalf("record drop: %v", err)
	}

	records, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	// Most recent first.
	drop := records[0]
	if drop.Outcome != OutcomeDropped || drop.Detail != "source vanished before transfer" {
		t.Fatalf("drop record = %+v", drop)
	}
	transfer := records[1]
	if transfer.Outcome != OutcomeTransferred || transfer.Bytes != 4096 {
		t.Fatalf("transfer record = %+v", transfer)
	}
	if transfer.Duration != 1500*time.Millisecond {
		t.Fatalf("duration = %v", transfer.Duration)
	}
	if transfer.CreatedAt.IsZero() {
		t.Fatal("created_at not parsed")
	}
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.RecordTransfer(ctx, "run-1", "/src/a.bin", "/mnt/store0", 1, time.Millisecond); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	records, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
}

func TestReopenExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := OpenPath(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.RecordTransfer(context.Background(), "run-1", "/src/a.bin", "/mnt/store0", 1, 0); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	records, err := reopened.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records after reopen, want 1", len(records))
	}
}
