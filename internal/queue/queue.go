// Package queue provides the unbounded hand-off buffer between the many
// message producers and the single drain worker. Producers must never be
// stalled by disk latency, so Push never blocks; the queue is the only
// buffering boundary between "fast, many" and "slow, one".
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Pop after Close once the queue is empty.
var ErrClosed = errors.New("queue closed")

// Queue is an unbounded FIFO of serialized records. Safe for any number of
// concurrent pushers and one blocking popper.
type Queue struct {
	mu       sync.Mutex
	nonEmpty *sync.Cond
	records  []string
	closed   bool
}

// New creates an empty queue.
func New() *Queue {
	q := &Queue{}
	q.nonEmpty = sync.NewCond(&q.mu)
	return q
}

// Push appends a record. It never blocks and preserves total arrival order
// across all producers.
func (q *Queue) Push(record string) {
	q.mu.Lock()
	q.records = append(q.records, record)
	q.mu.Unlock()
	q.nonEmpty.Signal()
}

// Pop removes and returns the oldest record, blocking until one is
// available, the context is cancelled, or the queue is closed and drained.
func (q *Queue) Pop(ctx context.Context) (string, error) {
	// Wake the waiter when the caller's context ends. The goroutine exits
	// once Pop returns because stop() prevents further broadcasts mattering.
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.nonEmpty.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.records) == 0 {
		if q.closed {
			return "", ErrClosed
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		q.nonEmpty.Wait()
	}
	record := q.records[0]
	q.records = q.records[1:]
	if len(q.records) == 0 {
		// Reset the backing array so a long burst does not pin memory.
		q.records = nil
	}
	return record, nil
}

// Close marks the queue as closed. Pending records remain poppable;
// Pop returns ErrClosed once the queue is empty.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.nonEmpty.Broadcast()
}

// Len reports the current depth, for the queue-depth gauge.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}
