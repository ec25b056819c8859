package worker

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"shuttle/internal/locking"
	"shuttle/internal/logging"
	"shuttle/internal/queue"
	"shuttle/internal/services/rsync"
)

// State is the worker lifecycle state. The transition is one-way:
// RUNNING -> TERMINATED.
type State int32

const (
	// StateRunning means the worker is dequeuing and processing items.
	StateRunning State = iota
	// StateTerminated means the worker has permanently stopped after a
	// fail-stop condition and will never dequeue again.
	StateTerminated
)

// WorkQueue is the worker's view of the shared queue.
type WorkQueue interface {
	Get(ctx context.Context) (queue.Item, error)
	Put(queue.Item)
}

// Transferer is the transfer capability invoked for pre-flight and real
// transfers.
type Transferer interface {
	Transfer(ctx context.Context, source, destination string, opts rsync.Options) (rsync.Result, error)
	Preflight(ctx context.Context, destination string) (rsync.Result, error)
}

// DiskProbe answers mount and free-space questions for local destinations.
type DiskProbe interface {
	Mounted(path string) (bool, error)
	FreeSpace(path string) (uint64, error)
}

// Ledger records terminal outcomes so no dequeued item is ever silently
// lost.
type Ledger interface {
	RecordTransfer(ctx context.Context, runID, path, destination string, bytes int64, elapsed time.Duration) error
	RecordDrop(ctx context.Context, runID, path, destination, reason string) error
}

// Config assembles a worker's collaborators.
type Config struct {
	Destination string
	Queue       WorkQueue
	Locks       *locking.Guard
	Transfer    Transferer
	Disk        DiskProbe
	Ledger      Ledger
	Logger      *slog.Logger
	RunID       string

	// Options is the base option set for real transfers; the worker forces
	// RemoveSource, Preallocate, and WholeFile on top of it.
	Options rsync.Options

	ShortBackoff  time.Duration
	LongBackoff   time.Duration
	EscalateAfter int
}

// Worker consumes the shared queue on behalf of a single destination.
type Worker struct {
	destination string
	remote      bool
	queue       WorkQueue
	locks       *locking.Guard
	transfer    Transferer
	disk        DiskProbe
	ledger      Ledger
	logger      *slog.Logger
	runID       string
	opts        rsync.Options

	shortBackoff  time.Duration
	longBackoff   time.Duration
	escalateAfter int

	// sleep is replaceable in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration)

	state            atomic.Int32
	notMountedStreak int
}

// New constructs a worker for one destination.
func New(cfg Config) (*Worker, error) {
	if strings.TrimSpace(cfg.Destination) == "" {
		return nil, errors.New("worker requires a destination")
	}
	if cfg.Queue == nil || cfg.Locks == nil || cfg.Transfer == nil || cfg.Ledger == nil {
		return nil, errors.New("worker requires queue, locks, transfer, and ledger")
	}
	if cfg.Disk == nil && !isRemote(cfg.Destination) {
		return nil, errors.New("worker requires a disk probe for local destinations")
	}

	opts := cfg.Options
	opts.RemoveSource = true
	opts.Preallocate = true
	opts.WholeFile = true

	escalateAfter := cfg.EscalateAfter
	if escalateAfter <= 0 {
		escalateAfter = 1
	}

	return &Worker{
		destination:   cfg.Destination,
		remote:        isRemote(cfg.Destination),
		queue:         cfg.Queue,
		locks:         cfg.Locks,
		transfer:      cfg.Transfer,
		disk:          cfg.Disk,
		ledger:        cfg.Ledger,
		logger:        logging.WithComponent(cfg.Logger, "worker").With(logging.String(logging.FieldDestination, cfg.Destination)),
		runID:         cfg.RunID,
		opts:          opts,
		shortBackoff:  cfg.ShortBackoff,
		longBackoff:   cfg.LongBackoff,
		escalateAfter: escalateAfter,
		sleep:         sleepContext,
	}, nil
}

// State returns the worker's lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Run consumes items until the worker terminates or ctx is done.
func (w *Worker) Run(ctx context.Context) {
	for w.State() == StateRunning {
		item, err := w.queue.Get(ctx)
		if err != nil {
			return
		}
		if !w.processItem(ctx, item) {
			w.terminate()
			return
		}
	}
}

// processItem handles one dequeued item. It returns false when the worker
// must fail-stop. Every path re-enqueues the item or records a terminal
// outcome; nothing is silently discarded.
func (w *Worker) processItem(ctx context.Context, item queue.Item) bool {
	logger := w.logger.With(logging.String(logging.FieldFile, item.Path))

	if !w.remote {
		if cont, settled := w.checkMount(ctx, item, logger); settled {
			return cont
		}
	}

	size, ok := w.sourceSize(ctx, item, logger)
	if !ok {
		// Item already settled (re-enqueued or recorded dropped).
		return true
	}

	if !w.remote {
		if !w.checkSpace(ctx, item, size, logger) {
			return false
		}
	}

	return w.attemptTransfer(ctx, item, size, logger)
}

// checkMount validates that an existing local destination is a real mount.
// The second return reports whether the item was settled here.
func (w *Worker) checkMount(ctx context.Context, item queue.Item, logger *slog.Logger) (bool, bool) {
	if _, err := os.Stat(w.destination); err != nil {
		// Missing destination paths fall through to the space check, whose
		// failure takes the recoverable error path.
		return false, false
	}

	mounted, err := w.disk.Mounted(w.destination)
	if err != nil {
		w.recoverItem(ctx, item, logger, "mount check failed", err)
		return true, true
	}
	if mounted {
		w.notMountedStreak = 0
		return false, false
	}

	// Recoverable: push the item back, throttle only this worker.
	w.notMountedStreak++
	backoff := w.shortBackoff
	if w.notMountedStreak >= w.escalateAfter {
		backoff = w.longBackoff
	}
	w.queue.Put(item)
	logger.Warn("destination not mounted, retrying later",
		logging.Event(logging.EventDestinationRetried),
		logging.Int("attempt", w.notMountedStreak),
		logging.Duration("backoff", backoff),
	)
	w.sleep(ctx, backoff)
	return true, true
}

// sourceSize reads the item's current size. A vanished source is recorded
// as dropped; any other failure re-enqueues the item.
func (w *Worker) sourceSize(ctx context.Context, item queue.Item, logger *slog.Logger) (int64, bool) {
	info, err := os.Stat(item.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.dropItem(ctx, item, logger, "source vanished before transfer")
			return 0, false
		}
		w.recoverItem(ctx, item, logger, "read source size failed", err)
		return 0, false
	}
	return info.Size(), true
}

// checkSpace fail-stops the worker when the destination cannot hold the
// file. Returns false to terminate.
func (w *Worker) checkSpace(ctx context.Context, item queue.Item, size int64, logger *slog.Logger) bool {
	free, err := w.disk.FreeSpace(w.destination)
	if err != nil {
		w.recoverItem(ctx, item, logger, "free space check failed", err)
		return true
	}
	if free < uint64(size) {
		w.queue.Put(item)
		logger.Error("destination out of space, removing it from service",
			logging.Event(logging.EventWorkerTerminated),
			logging.Int64("file_bytes", size),
			logging.Uint64("free_bytes", free),
		)
		return false
	}
	return true
}

// attemptTransfer runs the pre-flight and the real transfer under the
// configured locks. Locks are released before any backoff sleep. Returns
// false to terminate the worker.
func (w *Worker) attemptTransfer(ctx context.Context, item queue.Item, size int64, logger *slog.Logger) bool {
	release := w.locks.Acquire(item.SourceDir())

	preflight, err := w.transfer.Preflight(ctx, w.destination)
	if err != nil {
		release()
		w.recoverItem(ctx, item, logger, "pre-flight could not run", err)
		return true
	}
	if !preflight.Succeeded() {
		release()
		w.queue.Put(item)
		logger.Error("connectivity pre-flight failed, removing destination from service",
			logging.Event(logging.EventWorkerTerminated),
			logging.Int("exit_code", preflight.ExitCode),
			logging.String("stderr", strings.TrimSpace(preflight.Stderr)),
		)
		return false
	}

	logger.Info("transfer started",
		logging.Event(logging.EventTransferStarted),
		logging.Int64("bytes", size),
	)

	result, err := w.transfer.Transfer(ctx, item.Path, w.destination, w.opts)
	release()
	if err != nil {
		w.recoverItem(ctx, item, logger, "transfer could not run", err)
		return true
	}

	if result.Succeeded() {
		logger.Info("transfer succeeded",
			logging.Event(logging.EventTransferSucceeded),
			logging.Int64("bytes", size),
			logging.Duration("elapsed", result.Duration),
		)
		if out := strings.TrimSpace(result.Stdout); out != "" {
			logger.Info("transfer output", logging.String("output", out))
		}
		if err := w.ledger.RecordTransfer(ctx, w.runID, item.Path, w.destination, size, result.Duration); err != nil {
			logger.Warn("failed to record transfer in ledger", logging.Error(err))
		}
		return true
	}

	w.queue.Put(item)
	logger.Error("transfer failed, removing destination from service",
		logging.Event(logging.EventTransferFailed),
		logging.Int("exit_code", result.ExitCode),
		logging.String("stderr", strings.TrimSpace(result.Stderr)),
	)
	w.sleep(ctx, w.shortBackoff)
	return false
}

// recoverItem handles an unanticipated error: the item goes back on the
// queue and the worker stays RUNNING.
func (w *Worker) recoverItem(ctx context.Context, item queue.Item, logger *slog.Logger, msg string, err error) {
	w.queue.Put(item)
	logger.Error(msg, logging.Error(err))
	w.sleep(ctx, w.shortBackoff)
}

// dropItem abandons an item with an explicit, recorded reason.
func (w *Worker) dropItem(ctx context.Context, item queue.Item, logger *slog.Logger, reason string) {
	logger.Warn("dropping item",
		logging.Event(logging.EventItemDropped),
		logging.String("reason", reason),
	)
	if err := w.ledger.RecordDrop(ctx, w.runID, item.Path, w.destination, reason); err != nil {
		logger.Error("failed to record drop in ledger", logging.Error(err))
	}
}

func (w *Worker) terminate() {
	w.state.Store(int32(StateTerminated))
	w.logger.Info("worker terminated", logging.Event(logging.EventWorkerTerminated))
}

func isRemote(destination string) bool {
	return strings.Contains(destination, ":")
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
