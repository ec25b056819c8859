package queue

import (
	"context"
	"path/filepath"
	"sync"
)

// Item is a discovered capture file pending transfer. Its identity is the
// path alone; enqueuing the same path twice yields two indistinguishable
// items. Size is read at processing time, not at enqueue time.
type Item struct {
	Path string
}

// SourceDir returns the item's parent directory, used as the per-source
// lock key.
func (i Item) SourceDir() string {
	return filepath.Dir(i.Path)
}

// FIFO is an unbounded, ordered, concurrency-safe queue. Put never blocks;
// Get suspends until an item is available and delivers each item to exactly
// one caller. There is no deduplication, peeking, or priority.
type FIFO struct {
	mu    sync.Mutex
	items []Item
	ready chan struct{}
}

// NewFIFO constructs an empty queue.
func NewFIFO() *FIFO {
	return &FIFO{ready: make(chan struct{}, 1)}
}

// Put appends an item to the tail of the queue.
func (q *FIFO) Put(item Item) {
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	q.signal()
}

// Get removes and returns the item at the front of the queue, suspending
// until one is available or ctx is done. Concurrent callers race; each item
// is delivered exactly once.
func (q *FIFO) Get(ctx context.Context) (Item, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()
			if remaining > 0 {
				// Wake another waiter for the items left behind.
				q.signal()
			}
			return item, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Item{}, ctx.Err()
		case <-q.ready:
		}
	}
}

// Len reports the number of queued items.
func (q *FIFO) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *FIFO) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
