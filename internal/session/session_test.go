package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bft-labs/pollship/pkg/packet"
	"github.com/bft-labs/pollship/pkg/payload"
)

func TestRegistry_CreateGetRemove(t *testing.T) {
	r := NewRegistry(0)

	s, err := r.Create(payload.ProtocolV4, true)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(s.ID) != 20 {
		t.Errorf("ID length = %d, want 20", len(s.ID))
	}
	if r.Len() != 1 {
		t.Errorf("Len() = %d, want 1", r.Len())
	}

	got, err := r.Get(s.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != s {
		t.Error("Get() returned a different session")
	}

	if !r.Remove(s.ID) {
		t.Error("Remove() = false for a registered session")
	}
	if _, err := r.Get(s.ID); !errors.Is(err, ErrUnknownSession) {
		t.Errorf("Get() after Remove error = %v, want ErrUnknownSession", err)
	}
	if r.Remove(s.ID) {
		t.Error("Remove() = true for an unknown session")
	}
}

func TestRegistry_UniqueIDs(t *testing.T) {
	r := NewRegistry(0)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s, err := r.Create(payload.ProtocolV3, false)
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if seen[s.ID] {
			t.Fatalf("duplicate id %q", s.ID)
		}
		seen[s.ID] = true
	}
}

func TestSession_SendAndAcquire(t *testing.T) {
	r := NewRegistry(2)
	s, _ := r.Create(payload.ProtocolV4, true)

	if err := s.Send(packet.Message("a")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := s.Send(packet.Message("b")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if err := s.Send(packet.Message("c")); err == nil {
		t.Error("Send() beyond capacity should fail")
	}

	g, err := s.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer g.Release()
	p, ok := g.TryTake()
	if !ok || p != packet.Packet(packet.Message("a")) {
		t.Errorf("TryTake() = %v, %v, want message a", p, ok)
	}
}

func TestSession_SendAfterClose(t *testing.T) {
	r := NewRegistry(0)
	s, _ := r.Create(payload.ProtocolV4, true)

	g, _ := s.Acquire(context.Background())
	g.Close()
	g.Release()

	if !s.Closed() {
		t.Fatal("Closed() = false")
	}
	if err := s.Send(packet.Noop{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() error = %v, want ErrClosed", err)
	}
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry(0)
	a, _ := r.Create(payload.ProtocolV4, true)
	b, _ := r.Create(payload.ProtocolV3, true)

	r.CloseAll()

	for _, s := range []*Session{a, b} {
		g, _ := s.Acquire(context.Background())
		p, ok := g.Peek()
		g.Release()
		if !ok || !packet.IsClose(p) {
			t.Errorf("session %s: next packet = %v, want close", s.ID, p)
		}
	}
}

func TestSession_Heartbeat(t *testing.T) {
	r := NewRegistry(0)
	s, _ := r.Create(payload.ProtocolV4, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Heartbeat(ctx, 5*time.Millisecond, nil)
		close(done)
	}()

	g, _ := s.Acquire(context.Background())
	takeCtx, takeCancel := context.WithTimeout(context.Background(), 2*time.Second)
	p, err := g.Take(takeCtx)
	takeCancel()
	g.Release()
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if _, ok := p.(packet.Ping); !ok {
		t.Errorf("heartbeat queued %T, want packet.Ping", p)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat did not stop after cancel")
	}
}

func TestSession_HeartbeatV3QueuesNoop(t *testing.T) {
	r := NewRegistry(0)
	s, _ := r.Create(payload.ProtocolV3, true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Heartbeat(ctx, 5*time.Millisecond, nil)

	g, _ := s.Acquire(context.Background())
	defer g.Release()
	takeCtx, takeCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer takeCancel()
	p, err := g.Take(takeCtx)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	if _, ok := p.(packet.Noop); !ok {
		t.Errorf("heartbeat queued %T, want packet.Noop", p)
	}
}

func TestSession_HeartbeatStopsOnClose(t *testing.T) {
	r := NewRegistry(0)
	s, _ := r.Create(payload.ProtocolV4, true)
	g, _ := s.Acquire(context.Background())
	g.Close()
	g.Release()

	done := make(chan struct{})
	go func() {
		s.Heartbeat(context.Background(), time.Millisecond, nil)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat did not stop on a closed session")
	}
}

func TestSession_IdleTracksPolls(t *testing.T) {
	r := NewRegistry(0)
	s, _ := r.Create(payload.ProtocolV4, true)

	later := s.CreatedAt.Add(time.Minute)
	if idle := s.Idle(later); idle < time.Minute {
		t.Errorf("Idle() = %v, want at least 1m since creation", idle)
	}

	end := s.BeginPoll()
	if idle := s.Idle(later); idle != 0 {
		t.Errorf("Idle() during poll = %v, want 0", idle)
	}
	end()

	if idle := s.Idle(time.Now().Add(time.Second)); idle > 2*time.Second {
		t.Errorf("Idle() after poll = %v, want about 1s", idle)
	}
}

func TestRegistry_Expired(t *testing.T) {
	r := NewRegistry(0)
	stale, _ := r.Create(payload.ProtocolV4, true)
	active, _ := r.Create(payload.ProtocolV4, true)

	end := active.BeginPoll()
	defer end()

	now := stale.CreatedAt.Add(time.Hour)
	got := r.Expired(now, time.Minute)
	if len(got) != 1 || got[0] != stale {
		t.Fatalf("Expired() = %v, want only the idle session", got)
	}
	if got := r.Expired(stale.CreatedAt, time.Minute); len(got) != 0 {
		t.Errorf("Expired() at creation = %d sessions, want 0", len(got))
	}
}

func TestSession_DrainedAfterClose(t *testing.T) {
	r := NewRegistry(0)
	s, _ := r.Create(payload.ProtocolV4, true)
	_ = s.Send(packet.Message("pending"))

	if s.Drained() {
		t.Fatal("Drained() = true for an open session")
	}

	s.Expire()
	if s.Drained() {
		t.Fatal("Drained() = true with a packet still buffered")
	}

	g, err := s.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if p, ok := g.TryTake(); !ok || p != packet.Message("pending") {
		t.Errorf("TryTake() = %v, %v, want the pending message", p, ok)
	}
	g.Release()

	if !s.Drained() {
		t.Error("Drained() = false for a closed, empty session")
	}
	if err := s.Send(packet.Noop{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send() after Expire error = %v, want ErrClosed", err)
	}
}
