// Package msg provides the ordered, unbounded message queues used between
// the UI side and the background workers.
//
// Go channels have a fixed capacity; a producer on the UI thread must never
// block no matter how many requests pile up during a long decode, so the
// queues here grow without bound instead. The consumer side offers both a
// blocking receive (workers sleep between requests) and a non-blocking poll
// (the UI drains replies once per frame).
package msg

import (
	"sync"
)

// Queue is an ordered FIFO queue with a non-blocking producer side.
//
// A Queue is safe for any number of producers and consumers, though in this
// codebase every queue has a single consumer.
type Queue[T any] struct {
	mu     sync.Mutex
	ready  sync.Cond
	items  []T
	closed bool
}

// NewQueue creates an empty queue.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{}
	q.ready.L = &q.mu
	return q
}

// Push appends an item. It never blocks.
//
// Pushing to a closed queue is a no-op.
func (q *Queue[T]) Push(item T) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, item)
	q.ready.Signal()
}

// Pop removes and returns the oldest item, blocking until one is available
// or the queue is closed. The second result is false once the queue is
// closed and drained.
func (q *Queue[T]) Pop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.ready.Wait()
	}
	return q.popLocked()
}

// TryPop removes and returns the oldest item without blocking. The second
// result is false if the queue is empty.
func (q *Queue[T]) TryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.popLocked()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close marks the queue closed. Queued items remain poppable; Push becomes
// a no-op and blocked Pop calls return.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.ready.Broadcast()
}

func (q *Queue[T]) popLocked() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	item := q.items[0]
	// Shift instead of re-slicing so consumed items do not pin the array.
	copy(q.items, q.items[1:])
	q.items = q.items[:len(q.items)-1]
	return item, true
}
