package testsupport

import (
	"path/filepath"
	"testing"

	"shuttle/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Sources.Roots = []string{filepath.Join(base, "capture")}
	cfg.Destinations.Targets = []string{filepath.Join(base, "store0")}
	cfg.Transfer.PreflightFile = filepath.Join(base, "reference")
	cfg.Backoff.ShortSeconds = 1
	cfg.Backoff.LongSeconds = 2
	WriteFile(t, cfg.Transfer.PreflightFile, 8)

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithSources overrides the source roots on the test config.
func WithSources(roots ...string) ConfigOption {
	return func(c *config.Config) {
		c.Sources.Roots = roots
	}
}

// WithDestinations overrides the destination targets on the test config.
func WithDestinations(targets ...string) ConfigOption {
	return func(c *config.Config) {
		c.Destinations.Targets = targets
	}
}

// WithLocking sets the concurrency-limiting policies on the test config.
func WithLocking(global, perSource bool) ConfigOption {
	return func(c *config.Config) {
		c.Locking.GlobalSingleTransfer = global
		c.Locking.PerSourceSingleTransfer = perSource
	}
}
