package task

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Item is the queued reference to a job: enough for a worker to look up
// the executor and run the body without reading the state store.
type Item struct {
	JobID   uuid.UUID
	Kind    Kind
	Payload json.RawMessage
}

// QueueReader gives workers blocking access to queued items.
type QueueReader interface {
	// Next blocks until an item is available, the queue is closed and
	// drained, or ctx is done. The bool is false in the last two cases.
	Next(ctx context.Context) (Item, bool)
}

// QueueWriter accepts items for processing.
type QueueWriter interface {
	// Enqueue adds an item. It never blocks.
	// Returns ErrQueueClosed after Close.
	Enqueue(item Item) error

	// Close stops accepting items. Items already queued are still delivered.
	Close()
}

// Queue is an unbounded FIFO that satisfies both QueueReader and QueueWriter.
// Capacity is limited only by memory, so submission never fails while the
// queue is open.
type Queue struct {
	mu     sync.Mutex
	items  []Item
	notify chan struct{}
	closed bool
	logger *slog.Logger
}

var (
	_ QueueReader = (*Queue)(nil)
	_ QueueWriter = (*Queue)(nil)
)

// NewQueue creates an empty, open queue.
func NewQueue(logger *slog.Logger) *Queue {
	return &Queue{
		notify: make(chan struct{}, 1),
		logger: logger,
	}
}

// Enqueue implements QueueWriter.
func (q *Queue) Enqueue(item Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.items = append(q.items, item)
	q.signal()

	q.logger.Debug("job enqueued",
		"job_id", item.JobID,
		"job_kind", item.Kind,
		"queue_len", len(q.items))
	return nil
}

// Next implements QueueReader.
func (q *Queue) Next(ctx context.Context) (Item, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = Item{}
			q.items = q.items[1:]
			if len(q.items) > 0 {
				// Wake another waiting consumer for the remainder.
				q.signal()
			}
			q.mu.Unlock()
			return item, true
		}
		if q.closed {
			q.mu.Unlock()
			return Item{}, false
		}
		q.mu.Unlock()

		select {
		case <-q.notify:
		case <-ctx.Done():
			return Item{}, false
		}
	}
}

// Close implements QueueWriter. It is safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.notify)
	q.logger.Info("job queue closed", "remaining", len(q.items))
}

// Len returns the number of items waiting to be picked up.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// signal must be called with mu held. Once closed, notify is closed and
// wakes every waiter on its own.
func (q *Queue) signal() {
	if q.closed {
		return
	}
	select {
	case q.notify <- struct{}{}:
	default:
	}
}
