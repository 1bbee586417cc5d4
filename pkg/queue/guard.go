package queue

import (
	"context"
	"sync"
)

// Guard is exclusive consumer access to a Queue. It must not be used after
// Release.
type Guard[T any] struct {
	q    *Queue[T]
	once sync.Once
}

// Peek returns the next item without removing it.
func (g *Guard[T]) Peek() (T, bool) {
	return g.q.peek()
}

// TryTake removes and returns the next item if one is buffered.
func (g *Guard[T]) TryTake() (T, bool) {
	return g.q.tryTake()
}

// Take removes and returns the next item, waiting for one if necessary. It
// returns ErrClosed once the queue is closed and empty, or ctx.Err() if ctx
// is done first; in both cases nothing is consumed.
func (g *Guard[T]) Take(ctx context.Context) (T, error) {
	return g.q.take(ctx)
}

// Close closes the underlying queue.
func (g *Guard[T]) Close() {
	g.q.Close()
}

// Release gives up consumer access. Extra calls are ignored.
func (g *Guard[T]) Release() {
	g.once.Do(func() {
		<-g.q.consumer
	})
}
