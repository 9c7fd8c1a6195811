// Package queue defines the contract for enqueuing and consuming bouts.
//
// The in-memory implementation is a bounded channel; producers never block
// and see backpressure as a false return from Enqueue.
package queue

import (
	"context"
	"sync"

	"github.com/okian/elo/internal/domain/model"
	"github.com/okian/elo/pkg/metrics"
)

const defaultQueueCapacity = 100_000

// Bout is the payload flowing through the queue.
type Bout = model.Bout

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a bout to the queue.
	// Returns false if the queue is full or closed and the bout was not enqueued.
	Enqueue(ctx context.Context, b Bout) bool

	// Dequeue returns a channel that will receive bouts as they become available.
	// The channel will be closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Bout

	// Len returns the current number of queued bouts.
	Len(ctx context.Context) int

	// Capacity returns the configured bound.
	Capacity() int

	// Close stops accepting bouts. Buffered bouts are still delivered.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	bouts    chan Bout
	capacity int

	mu     sync.RWMutex
	closed bool
}

var _ Queue = (*InMemoryQueue)(nil)

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.bouts = make(chan Bout, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)

	return q
}

// Enqueue adds a bout to the queue without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, b Bout) bool { //nolint:gocritic // hugeParam: Bout is passed by value for channel semantics
	// The read lock keeps Close from closing the channel mid-send.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError("closed")
		return false
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError("context_cancelled")
		return false
	}

	select {
	case q.bouts <- b:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	default:
		metrics.RecordQueueEnqueueError("queue_full")
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that will receive bouts as they become available.
// Each call starts a forwarding goroutine that exits when ctx is done or the
// queue is closed and drained.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Bout {
	out := make(chan Bout)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case b, ok := <-q.bouts:
				if !ok {
					return
				}
				select {
				case out <- b:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued bouts.
func (q *InMemoryQueue) Len(_ context.Context) int {
	q.observe()
	return len(q.bouts)
}

// Capacity returns the configured bound.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close stops accepting bouts. It is safe to call more than once.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.bouts)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observe() {
	size := len(q.bouts)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
