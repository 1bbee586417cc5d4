package payload

import (
	"context"
	"errors"
	"fmt"

	"github.com/bft-labs/pollship/pkg/log"
	"github.com/bft-labs/pollship/pkg/packet"
	"github.com/bft-labs/pollship/pkg/queue"
)

// tryRecv takes the next queued packet if one is buffered and fits: used
// bytes plus its size hint must not exceed maxPayload. It never waits.
//
// A consumed Close packet closes the queue after discarding at most one
// more packet. Callers end the batch there; packets still buffered are
// delivered by later polls, and only then does the queue report closed.
func (e *Encoder) tryRecv(rx Receiver, used, maxPayload int, b64 bool) (packet.Packet, bool) {
	if next, ok := rx.Peek(); ok {
		if hint := packet.SizeHint(next, b64); used+hint > maxPayload {
			e.logger.Debug("payload full, stopping batch",
				log.Int("used", used),
				log.Int("next", hint),
				log.Int("max_payload", maxPayload),
			)
			return nil, false
		}
	}

	p, ok := rx.TryTake()
	if !ok {
		return nil, false
	}
	if packet.IsClose(p) {
		if dropped, ok := rx.TryTake(); ok {
			e.logger.Debug("discarding packet queued behind close", log.String("packet", fmt.Sprintf("%T", dropped)))
		}
		rx.Close()
		e.logger.Debug("close packet drained, queue closed")
	}
	return p, true
}

// recv waits for the next packet without any size check. It is only used
// when a batch would otherwise be empty.
func (e *Encoder) recv(ctx context.Context, rx Receiver) (packet.Packet, error) {
	e.logger.Debug("nothing to drain, waiting for next packet")
	p, err := rx.Take(ctx)
	if err != nil {
		if errors.Is(err, queue.ErrClosed) {
			return nil, ErrAborted
		}
		return nil, fmt.Errorf("wait for packet: %w", err)
	}
	if packet.IsClose(p) {
		rx.Close()
		e.logger.Debug("close packet received, queue closed")
	}
	return p, nil
}
