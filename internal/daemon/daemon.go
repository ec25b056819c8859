package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"shuttle/internal/config"
	"shuttle/internal/history"
	"shuttle/internal/logging"
	"shuttle/internal/pipeline"
)

// LockFileName is the daemon lock file created under the data directory.
const LockFileName = "shuttled.lock"

// Daemon runs one pipeline and guards against concurrent instances.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	ledger   *history.Store
	pipeline *pipeline.Pipeline

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, ledger *history.Store, logger *slog.Logger, p *pipeline.Pipeline) (*Daemon, error) {
	if cfg == nil || ledger == nil || p == nil {
		return nil, errors.New("daemon requires config, ledger, and pipeline")
	}

	lockPath := LockPath(cfg)
	return &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		ledger:   ledger,
		pipeline: p,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// LockPath returns the daemon lock file location for a config.
func LockPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.DataDir, LockFileName)
}

// Start acquires the instance lock and launches the pipeline.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shuttle daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.pipeline.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start pipeline: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("shuttle daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldRun, d.pipeline.RunID()),
	)
	return nil
}

// Stop halts the pipeline and releases the instance lock. Interruption is
// deliberately quiet: in-flight transfers are left to the OS.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.pipeline.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	if d.ledger != nil {
		return d.ledger.Close()
	}
	return nil
}
