package main

import (
	"os"
	"testing"

	"github.com/gofrs/flock"

	"shuttle/internal/daemon"
)

func TestStatusNoDaemon(t *testing.T) {
	_, configPath := newCLIConfig(t)

	out, _, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "not running")
}

func TestStatusRunningDaemon(t *testing.T) {
	cfg, configPath := newCLIConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	holder := flock.New(daemon.LockPath(cfg))
	locked, err := holder.TryLock()
	if err != nil {
		t.Fatalf("acquire lock: %v", err)
	}
	if !locked {
		t.Fatal("could not acquire daemon lock for test")
	}
	defer holder.Unlock()

	out, _, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "running")
	requireContains(t, out, daemon.LockPath(cfg))
}

func TestStatusStaleLock(t *testing.T) {
	cfg, configPath := newCLIConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	if err := os.WriteFile(daemon.LockPath(cfg), nil, 0o644); err != nil {
		t.Fatalf("create stale lock: %v", err)
	}

	out, _, err := runCLI(t, configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "stale lock")
}
