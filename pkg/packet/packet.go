package packet

import "errors"

// ErrUnsupported is returned when a packet has no text representation.
var ErrUnsupported = errors.New("packet: unsupported packet")

// Packet is one protocol message queued for delivery.
type Packet interface {
	isPacket()
}

// Open starts a session and carries the handshake.
type Open struct {
	Handshake Handshake
}

// Close asks the peer to terminate the session.
type Close struct{}

// Ping is a heartbeat probe.
type Ping struct{}

// Pong answers a Ping.
type Pong struct{}

// PingProbe is the ping sent while upgrading to another transport.
type PingProbe struct{}

// PongProbe answers a PingProbe.
type PongProbe struct{}

// Upgrade completes a transport upgrade.
type Upgrade struct{}

// Noop forces a pending poll cycle to complete.
type Noop struct{}

// Message carries UTF-8 text.
type Message string

// Binary carries raw bytes (protocol v4).
type Binary []byte

// BinaryV3 carries raw bytes under the legacy protocol. Its text form
// includes the message type code after the binary marker.
type BinaryV3 []byte

func (Open) isPacket()      {}
func (Close) isPacket()     {}
func (Ping) isPacket()      {}
func (Pong) isPacket()      {}
func (PingProbe) isPacket() {}
func (PongProbe) isPacket() {}
func (Upgrade) isPacket()   {}
func (Noop) isPacket()      {}
func (Message) isPacket()   {}
func (Binary) isPacket()    {}
func (BinaryV3) isPacket()  {}

// IsBinary reports whether p is one of the binary variants.
func IsBinary(p Packet) bool {
	switch p.(type) {
	case Binary, BinaryV3:
		return true
	default:
		return false
	}
}

// IsClose reports whether p is a Close packet.
func IsClose(p Packet) bool {
	_, ok := p.(Close)
	return ok
}
