package payload

import (
	"context"
	"strconv"

	"github.com/bft-labs/pollship/pkg/log"
)

// Encoder turns queued packets into payloads. It holds no per-call state
// and is safe for concurrent use on different receivers.
type Encoder struct {
	logger log.Logger
}

// NewEncoder creates an encoder. A nil logger discards output.
func NewEncoder(logger log.Logger) *Encoder {
	return &Encoder{logger: log.OrNoop(logger)}
}

// Options selects the framing of one poll.
type Options struct {
	// Protocol is the session's protocol generation.
	Protocol Protocol

	// SupportsBinary is false when a v3 client asked for base64 (b64=1).
	// It has no effect on v4, which is always text.
	SupportsBinary bool

	// MaxPayload is the soft upper bound of the payload size in bytes.
	MaxPayload int
}

// Encode dispatches to the encoder matching opts.
func (e *Encoder) Encode(ctx context.Context, rx Receiver, opts Options) (Payload, error) {
	switch {
	case opts.Protocol != ProtocolV3:
		return e.EncodeV4(ctx, rx, opts.MaxPayload)
	case opts.SupportsBinary:
		return e.EncodeV3Binary(ctx, rx, opts.MaxPayload)
	default:
		return e.EncodeV3String(ctx, rx, opts.MaxPayload)
	}
}

// digits is the number of decimal digits of n, at least one.
func digits(n int) int {
	if n <= 0 {
		return 1
	}
	return len(strconv.Itoa(n))
}
