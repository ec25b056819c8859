package discover

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"shuttle/internal/logging"
	"shuttle/internal/queue"
)

const (
	namePrefix = "postdata_"
	nameSuffix = ".bin"
)

// Matches reports whether a file name follows the capture-file naming
// convention. Matching is case-sensitive.
func Matches(name string) bool {
	return strings.HasPrefix(name, namePrefix) && strings.HasSuffix(name, nameSuffix)
}

// Enqueuer receives discovered work items.
type Enqueuer interface {
	Put(queue.Item)
}

// Discoverer scans and watches source roots, enqueueing every matching
// file it sees. A file created in an already-visited directory while the
// initial scan is still running can be missed until the watch phase begins;
// that window is an accepted limitation.
type Discoverer struct {
	roots  []string
	sink   Enqueuer
	logger *slog.Logger
}

// New constructs a Discoverer over the given source roots.
func New(roots []string, sink Enqueuer, logger *slog.Logger) *Discoverer {
	return &Discoverer{
		roots:  roots,
		sink:   sink,
		logger: logging.WithComponent(logger, "discoverer"),
	}
}

// Run performs the initial scan, then watches until ctx is done. It returns
// nil on cancellation and an error only for watch failures on roots that do
// exist.
func (d *Discoverer) Run(ctx context.Context) error {
	for _, root := range d.roots {
		d.scanTree(root)
	}
	return d.watch(ctx)
}

// scanTree walks root recursively and enqueues matching files in
// enumeration order. A missing or unreadable root is logged and skipped.
func (d *Discoverer) scanTree(root string) {
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			d.logger.Warn("skipping unreadable path during scan",
				logging.String(logging.FieldSource, path),
				logging.Error(walkErr),
			)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if Matches(entry.Name()) {
			d.sink.Put(queue.Item{Path: path})
		}
		return nil
	})
	if err != nil {
		d.logger.Warn("initial scan aborted for root",
			logging.String(logging.FieldSource, root),
			logging.Error(err),
		)
	}
}

func (d *Discoverer) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	watching := 0
	for _, root := range d.roots {
		if _, statErr := os.Stat(root); statErr != nil {
			if errors.Is(statErr, fs.ErrNotExist) {
				d.logger.Warn("source root missing, not watching",
					logging.String(logging.FieldSource, root),
				)
				continue
			}
			return fmt.Errorf("stat root %s: %w", root, statErr)
		}
		if err := d.addTree(watcher, root); err != nil {
			return err
		}
		watching++
		d.logger.Info("watching source root",
			logging.Event(logging.EventWatchStarted),
			logging.String(logging.FieldSource, root),
		)
	}

	if watching == 0 {
		d.logger.Warn("no source roots available to watch; only scanned files will be processed")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			d.handleEvent(watcher, event)
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch: %w", watchErr)
		}
	}
}

func (d *Discoverer) handleEvent(watcher *fsnotify.Watcher, event fsnotify.Event) {
	// Files moved into a watched directory surface as Create; Rename covers
	// in-place renames onto a matching name.
	if event.Op&(fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// The entry disappeared between event and stat.
		return
	}

	if info.IsDir() {
		// Keep the watch recursive: cover the new subtree and sweep it for
		// files that landed before the watch attached.
		if err := d.addTree(watcher, event.Name); err != nil {
			d.logger.Warn("failed to watch new subdirectory",
				logging.String(logging.FieldSource, event.Name),
				logging.Error(err),
			)
			return
		}
		d.scanTree(event.Name)
		return
	}

	if Matches(filepath.Base(event.Name)) {
		d.sink.Put(queue.Item{Path: event.Name})
	}
}

// addTree registers watches for dir and every subdirectory beneath it.
func (d *Discoverer) addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("walk %s: %w", path, walkErr)
		}
		if !entry.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
