package queue

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrClosed is returned by Push once the queue is closed, and by Take
	// once it is closed and empty.
	ErrClosed = errors.New("queue: closed")

	// ErrFull is returned by Push when a bounded queue is at capacity.
	ErrFull = errors.New("queue: full")
)

// Queue is an insertion-ordered, closeable FIFO.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	closed   bool

	// ready is closed and replaced whenever an item is pushed or the queue
	// is closed, waking every blocked Take.
	ready chan struct{}

	// consumer is a one-slot semaphore held by the current Guard.
	consumer chan struct{}
}

// New creates a queue. A capacity <= 0 means unbounded.
func New[T any](capacity int) *Queue[T] {
	return &Queue[T]{
		capacity: capacity,
		ready:    make(chan struct{}),
		consumer: make(chan struct{}, 1),
	}
}

// Push appends item. It never blocks.
func (q *Queue[T]) Push(item T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	if q.capacity > 0 && len(q.items) >= q.capacity {
		return ErrFull
	}
	q.items = append(q.items, item)
	q.notifyLocked()
	return nil
}

// Len returns the number of buffered items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Close stops further pushes. Buffered items stay readable; Take returns
// ErrClosed once they are drained. It is safe to call more than once and
// does not require the Guard.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.notifyLocked()
}

// Lock blocks until the caller is the only consumer, or ctx is done.
func (q *Queue[T]) Lock(ctx context.Context) (*Guard[T], error) {
	select {
	case q.consumer <- struct{}{}:
		return &Guard[T]{q: q}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryLock acquires the consumer slot without waiting.
func (q *Queue[T]) TryLock() (*Guard[T], bool) {
	select {
	case q.consumer <- struct{}{}:
		return &Guard[T]{q: q}, true
	default:
		return nil, false
	}
}

func (q *Queue[T]) notifyLocked() {
	close(q.ready)
	q.ready = make(chan struct{})
}

func (q *Queue[T]) peek() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	return q.items[0], true
}

func (q *Queue[T]) tryTake() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

func (q *Queue[T]) popLocked() (T, bool) {
	var zero T
	if len(q.items) == 0 {
		return zero, false
	}
	item := q.items[0]
	q.items[0] = zero
	q.items = q.items[1:]
	return item, true
}

func (q *Queue[T]) take(ctx context.Context) (T, error) {
	for {
		q.mu.Lock()
		if item, ok := q.popLocked(); ok {
			q.mu.Unlock()
			return item, nil
		}
		if q.closed {
			q.mu.Unlock()
			var zero T
			return zero, ErrClosed
		}
		ready := q.ready
		q.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}
