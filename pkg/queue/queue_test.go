package queue

import (
	"context"
	"errors"
	"testing"
	"time"
)

func lock(t *testing.T, q *Queue[int]) *Guard[int] {
	t.Helper()
	g, err := q.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	t.Cleanup(g.Release)
	return g
}

func TestQueue_FIFO(t *testing.T) {
	q := New[int](0)
	for i := 1; i <= 3; i++ {
		if err := q.Push(i); err != nil {
			t.Fatalf("Push(%d) error = %v", i, err)
		}
	}
	g := lock(t, q)

	if v, ok := g.Peek(); !ok || v != 1 {
		t.Fatalf("Peek() = %d, %v, want 1, true", v, ok)
	}
	// Peek does not consume.
	if q.Len() != 3 {
		t.Fatalf("Len() = %d after Peek, want 3", q.Len())
	}
	for want := 1; want <= 3; want++ {
		v, ok := g.TryTake()
		if !ok || v != want {
			t.Fatalf("TryTake() = %d, %v, want %d, true", v, ok, want)
		}
	}
	if _, ok := g.TryTake(); ok {
		t.Error("TryTake() on empty queue returned an item")
	}
	if _, ok := g.Peek(); ok {
		t.Error("Peek() on empty queue returned an item")
	}
}

func TestQueue_Capacity(t *testing.T) {
	q := New[int](1)
	if err := q.Push(1); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
	if err := q.Push(2); !errors.Is(err, ErrFull) {
		t.Errorf("Push() on full queue error = %v, want ErrFull", err)
	}
}

func TestQueue_Close(t *testing.T) {
	q := New[int](0)
	_ = q.Push(1)
	_ = q.Push(2)
	g := lock(t, q)

	g.Close()
	g.Close() // idempotent

	if !q.Closed() {
		t.Fatal("Closed() = false after Close")
	}
	if err := q.Push(3); !errors.Is(err, ErrClosed) {
		t.Errorf("Push() after Close error = %v, want ErrClosed", err)
	}

	// Items buffered before Close are still delivered, in order.
	if v, ok := g.TryTake(); !ok || v != 1 {
		t.Fatalf("TryTake() after Close = %d, %v, want 1, true", v, ok)
	}
	if v, err := g.Take(context.Background()); err != nil || v != 2 {
		t.Fatalf("Take() after Close = %d, %v, want 2, nil", v, err)
	}

	if _, ok := g.TryTake(); ok {
		t.Error("TryTake() on closed, drained queue returned an item")
	}
	if _, err := g.Take(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Take() on closed, drained queue error = %v, want ErrClosed", err)
	}
}

func TestQueue_TakeWaitsForPush(t *testing.T) {
	q := New[int](0)
	g := lock(t, q)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = q.Push(7)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	v, err := g.Take(ctx)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if v != 7 {
		t.Errorf("Take() = %d, want 7", v)
	}
}

func TestQueue_TakeWakesOnClose(t *testing.T) {
	q := New[int](0)
	g := lock(t, q)

	go func() {
		time.Sleep(20 * time.Millisecond)
		q.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := g.Take(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Take() error = %v, want ErrClosed", err)
	}
}

func TestQueue_TakeCancelledConsumesNothing(t *testing.T) {
	q := New[int](0)
	g := lock(t, q)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Take(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Take() error = %v, want DeadlineExceeded", err)
	}

	_ = q.Push(9)
	if v, ok := g.TryTake(); !ok || v != 9 {
		t.Errorf("TryTake() = %d, %v, want 9, true", v, ok)
	}
}

func TestQueue_LockIsExclusive(t *testing.T) {
	q := New[int](0)
	g, err := q.Lock(context.Background())
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	if _, ok := q.TryLock(); ok {
		t.Fatal("TryLock() succeeded while a guard is held")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := q.Lock(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Lock() error = %v, want DeadlineExceeded", err)
	}

	g.Release()
	g.Release() // extra release is ignored

	g2, ok := q.TryLock()
	if !ok {
		t.Fatal("TryLock() failed after Release")
	}
	g2.Release()
}
