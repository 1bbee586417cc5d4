package payload

import (
	"context"
	"errors"
	"fmt"

	"github.com/bft-labs/pollship/pkg/packet"
)

// ErrAborted is returned when the queue closes before a poll could deliver
// a single packet.
var ErrAborted = errors.New("payload: aborted")

// Wire constants.
const (
	// SeparatorV4 separates packets of a v4 payload.
	SeparatorV4 = '\x1e'

	// StringSeparatorV3 ends the length prefix of a v3 string frame.
	StringSeparatorV3 = ':'

	// BinarySeparatorV3 ends the length digits of a v3 binary frame.
	BinarySeparatorV3 = 0xff
)

// Content types of encoded payloads.
const (
	ContentTypeText   = "text/plain; charset=UTF-8"
	ContentTypeBinary = "application/octet-stream"
)

// Payload is one encoded response body.
type Payload struct {
	// Data is the encoded body.
	Data []byte

	// ContainsBinary is true when Data uses the v3 binary framing.
	ContainsBinary bool
}

// ContentType returns the response content type matching the framing.
func (p Payload) ContentType() string {
	if p.ContainsBinary {
		return ContentTypeBinary
	}
	return ContentTypeText
}

// Receiver is exclusive consumer access to a session's packet queue.
// *queue.Guard[packet.Packet] satisfies it.
type Receiver interface {
	Peek() (packet.Packet, bool)
	TryTake() (packet.Packet, bool)
	Take(ctx context.Context) (packet.Packet, error)
	Close()
}

// Protocol is the engine.io protocol generation negotiated by a session.
type Protocol int

const (
	ProtocolV3 Protocol = 3
	ProtocolV4 Protocol = 4
)

// String returns the EIO query value of the protocol.
func (p Protocol) String() string {
	switch p {
	case ProtocolV3:
		return "3"
	case ProtocolV4:
		return "4"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// ParseProtocol parses an EIO query value. An empty value selects v4.
func ParseProtocol(s string) (Protocol, error) {
	switch s {
	case "", "4":
		return ProtocolV4, nil
	case "3":
		return ProtocolV3, nil
	default:
		return 0, fmt.Errorf("unsupported protocol version %q", s)
	}
}
