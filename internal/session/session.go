// Package session holds the server-side state of long-polling sessions: the
// outbound packet queue, the negotiated protocol and the heartbeat.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bft-labs/pollship/pkg/log"
	"github.com/bft-labs/pollship/pkg/packet"
	"github.com/bft-labs/pollship/pkg/payload"
	"github.com/bft-labs/pollship/pkg/queue"
)

var (
	// ErrUnknownSession is returned for a session id that is not registered.
	ErrUnknownSession = errors.New("session: unknown session id")

	// ErrClosed is returned when sending to a closed session.
	ErrClosed = errors.New("session: closed")
)

// Session is one client connection.
type Session struct {
	ID             string
	Protocol       payload.Protocol
	SupportsBinary bool
	CreatedAt      time.Time

	queue *queue.Queue[packet.Packet]

	// lastSeen is the unix nano time a poll last started or ended.
	lastSeen atomic.Int64
	polls    atomic.Int32
}

func newSession(id string, protocol payload.Protocol, supportsBinary bool, capacity int) *Session {
	s := &Session{
		ID:             id,
		Protocol:       protocol,
		SupportsBinary: supportsBinary,
		CreatedAt:      time.Now(),
		queue:          queue.New[packet.Packet](capacity),
	}
	s.lastSeen.Store(s.CreatedAt.UnixNano())
	return s
}

// Send queues p for the next poll.
func (s *Session) Send(p packet.Packet) error {
	if err := s.queue.Push(p); err != nil {
		if errors.Is(err, queue.ErrClosed) {
			return fmt.Errorf("send to %s: %w", s.ID, ErrClosed)
		}
		return fmt.Errorf("send to %s: %w", s.ID, err)
	}
	return nil
}

// Close queues a Close packet. The queue itself closes once a poll drains
// it.
func (s *Session) Close() error {
	return s.Send(packet.Close{})
}

// Closed reports whether the packet queue has been closed.
func (s *Session) Closed() bool {
	return s.queue.Closed()
}

// Drained reports whether the session is finished: its queue is closed and
// every packet buffered before the close has been delivered.
func (s *Session) Drained() bool {
	return s.queue.Closed() && s.queue.Len() == 0
}

// Expire closes the packet queue without queueing a Close packet, for
// clients that stopped polling.
func (s *Session) Expire() {
	s.queue.Close()
}

// BeginPoll marks a poll in flight. The returned func ends it.
func (s *Session) BeginPoll() (end func()) {
	s.polls.Add(1)
	s.lastSeen.Store(time.Now().UnixNano())
	return func() {
		s.lastSeen.Store(time.Now().UnixNano())
		s.polls.Add(-1)
	}
}

// Idle returns how long the client has gone without polling. It is zero
// while a poll is in flight.
func (s *Session) Idle(now time.Time) time.Duration {
	if s.polls.Load() > 0 {
		return 0
	}
	return now.Sub(time.Unix(0, s.lastSeen.Load()))
}

// Acquire locks the packet queue for one poll. The caller must Release the
// returned guard.
func (s *Session) Acquire(ctx context.Context) (*queue.Guard[packet.Packet], error) {
	return s.queue.Lock(ctx)
}

// Heartbeat keeps a session's long-poll cycling until ctx is done or the
// session closes: every interval it queues a Ping (v4, where the server
// drives heartbeats) or a Noop (v3, where the client does).
func (s *Session) Heartbeat(ctx context.Context, interval time.Duration, logger log.Logger) {
	logger = log.OrNoop(logger)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var beat packet.Packet = packet.Ping{}
	if s.Protocol == payload.ProtocolV3 {
		beat = packet.Noop{}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Send(beat); err != nil {
				if errors.Is(err, ErrClosed) {
					return
				}
				logger.Warn("heartbeat not queued", log.String("sid", s.ID), log.Err(err))
			}
		}
	}
}
