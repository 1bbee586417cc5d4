package packet

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Type codes of the text form.
const (
	CodeOpen    = '0'
	CodeClose   = '1'
	CodePing    = '2'
	CodePong    = '3'
	CodeMessage = '4'
	CodeUpgrade = '5'
	CodeNoop    = '6'

	// BinaryMarker prefixes the base64 text form of binary packets.
	BinaryMarker = 'b'

	probe = "probe"
)

// Encode returns the text form of p.
func Encode(p Packet) (string, error) {
	switch p := p.(type) {
	case Open:
		body, err := MarshalHandshake(p.Handshake)
		if err != nil {
			return "", fmt.Errorf("encode open packet: %w", err)
		}
		return string(CodeOpen) + string(body), nil
	case Close:
		return string(CodeClose), nil
	case Ping:
		return string(CodePing), nil
	case Pong:
		return string(CodePong), nil
	case PingProbe:
		return string(CodePing) + probe, nil
	case PongProbe:
		return string(CodePong) + probe, nil
	case Upgrade:
		return string(CodeUpgrade), nil
	case Noop:
		return string(CodeNoop), nil
	case Message:
		return string(CodeMessage) + string(p), nil
	case Binary:
		var b strings.Builder
		b.Grow(base64Len(len(p)) + 1)
		b.WriteByte(BinaryMarker)
		b.WriteString(base64.StdEncoding.EncodeToString(p))
		return b.String(), nil
	case BinaryV3:
		var b strings.Builder
		b.Grow(base64Len(len(p)) + 2)
		b.WriteByte(BinaryMarker)
		b.WriteByte(CodeMessage)
		b.WriteString(base64.StdEncoding.EncodeToString(p))
		return b.String(), nil
	default:
		return "", fmt.Errorf("%w: %T", ErrUnsupported, p)
	}
}

// SizeHint returns an upper bound of the encoded size of p in bytes. When
// b64 is true binary packets are estimated in their base64 text form,
// otherwise as raw bytes plus the type byte.
func SizeHint(p Packet, b64 bool) int {
	switch p := p.(type) {
	case Open:
		body, err := MarshalHandshake(p.Handshake)
		if err != nil {
			return 0
		}
		return 1 + len(body)
	case Close, Ping, Pong, Upgrade, Noop:
		return 1
	case PingProbe, PongProbe:
		return 1 + len(probe)
	case Message:
		return 1 + len(p)
	case Binary:
		if b64 {
			return 1 + base64Len(len(p))
		}
		return 1 + len(p)
	case BinaryV3:
		if b64 {
			return 2 + base64Len(len(p))
		}
		return 1 + len(p)
	default:
		return 0
	}
}

// base64Len is the padded standard base64 length of n bytes.
func base64Len(n int) int {
	return (n + 2) / 3 * 4
}
