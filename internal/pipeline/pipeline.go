package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/google/uuid"

	"shuttle/internal/config"
	"shuttle/internal/discover"
	"shuttle/internal/diskcheck"
	"shuttle/internal/locking"
	"shuttle/internal/logging"
	"shuttle/internal/queue"
	"shuttle/internal/services/rsync"
	"shuttle/internal/worker"
)

// Option configures pipeline construction.
type Option func(*Pipeline)

// WithTransferer injects a custom transfer capability (primarily for tests).
func WithTransferer(t worker.Transferer) Option {
	return func(p *Pipeline) {
		if t != nil {
			p.transfer = t
		}
	}
}

// WithDiskProbe injects a custom disk probe (primarily for tests).
func WithDiskProbe(d worker.DiskProbe) Option {
	return func(p *Pipeline) {
		if d != nil {
			p.disk = d
		}
	}
}

// Pipeline owns the state of one distribution run.
type Pipeline struct {
	cfg      *config.Config
	logger   *slog.Logger
	ledger   worker.Ledger
	queue    *queue.FIFO
	locks    *locking.Guard
	transfer worker.Transferer
	disk     worker.DiskProbe
	runID    string

	discoverer *discover.Discoverer
	workers    []*worker.Worker

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New assembles a pipeline from configuration. The ledger receives every
// terminal outcome.
func New(cfg *config.Config, ledger worker.Ledger, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil || ledger == nil {
		return nil, errors.New("pipeline requires config and ledger")
	}

	p := &Pipeline{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "pipeline"),
		ledger: ledger,
		queue:  queue.NewFIFO(),
		locks:  locking.New(cfg.Locking.GlobalSingleTransfer, cfg.Locking.PerSourceSingleTransfer),
		disk:   diskcheck.Probe{},
		runID:  uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.transfer == nil {
		client, err := rsync.New(cfg.RsyncBinary(), cfg.Transfer.PreflightFile)
		if err != nil {
			return nil, fmt.Errorf("build rsync client: %w", err)
		}
		p.transfer = client
	}

	p.discoverer = discover.New(cfg.Sources.Roots, p.queue, logger)

	targets := append([]string{}, cfg.Destinations.Targets...)
	if cfg.Destinations.Shuffle {
		rand.Shuffle(len(targets), func(i, j int) {
			targets[i], targets[j] = targets[j], targets[i]
		})
	}

	for _, target := range targets {
		w, err := worker.New(worker.Config{
			Destination: target,
			Queue:       p.queue,
			Locks:       p.locks,
			Transfer:    p.transfer,
			Disk:        p.disk,
			Ledger:      p.ledger,
			Logger:      logger,
			RunID:       p.runID,
			Options: rsync.Options{
				BandwidthLimit: cfg.Transfer.BandwidthLimit,
				IOPriority:     cfg.Transfer.IOPriority,
			},
			ShortBackoff:  cfg.ShortBackoff(),
			LongBackoff:   cfg.LongBackoff(),
			EscalateAfter: cfg.Backoff.UnmountedEscalateAfter,
		})
		if err != nil {
			return nil, fmt.Errorf("build worker for %s: %w", target, err)
		}
		p.workers = append(p.workers, w)
	}

	return p, nil
}

// RunID identifies this pipeline run in logs and ledger records.
func (p *Pipeline) RunID() string {
	return p.runID
}

// Queue exposes the shared work queue.
func (p *Pipeline) Queue() *queue.FIFO {
	return p.queue
}

// WorkerStates reports the lifecycle state of every destination worker in
// configuration order (post-shuffle).
func (p *Pipeline) WorkerStates() []worker.State {
	states := make([]worker.State, len(p.workers))
	for i, w := range p.workers {
		states[i] = w.State()
	}
	return states
}

// Start launches the discoverer and all destination workers. It returns
// immediately; processing continues until Stop or ctx cancellation.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("pipeline already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.running = true

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		if err := p.discoverer.Run(runCtx); err != nil {
			// Watch failures on existing roots are fatal for discovery but
			// must not tear down workers still draining the queue.
			p.logger.Error("discovery stopped", logging.Error(err))
		}
	}()

	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *worker.Worker) {
			defer p.wg.Done()
			w.Run(runCtx)
		}(w)
	}

	return nil
}

// Stop cancels processing and waits for the discoverer and workers to
// finish. In-flight rsync processes are not cancelled beyond context
// propagation.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	p.running = false
	p.cancel = nil
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}
