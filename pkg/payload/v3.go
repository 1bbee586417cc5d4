package payload

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/bft-labs/pollship/pkg/log"
	"github.com/bft-labs/pollship/pkg/packet"
)

// Frame tags of the v3 binary framing.
const (
	frameTagString = 0x00
	frameTagBinary = 0x01

	// binaryMessageType precedes the raw bytes of a binary frame.
	binaryMessageType = 0x04
)

// v3FramePunctuation covers the colon (or 0xFF separator) and the tag byte.
const v3FramePunctuation = 2

// EncodeV3String encodes queued packets into a v3 string payload. Binary
// packets are written in their base64 text form.
func (e *Encoder) EncodeV3String(ctx context.Context, rx Receiver, maxPayload int) (Payload, error) {
	var data bytes.Buffer

	// The prefix of a frame is estimated with the width of maxPayload.
	overhead := v3FramePunctuation + digits(maxPayload)
	count := 0
	for {
		p, ok := e.tryRecv(rx, data.Len()+overhead, maxPayload, true)
		if !ok {
			break
		}
		if err := writeStringFrame(&data, p); err != nil {
			return Payload{}, fmt.Errorf("encode v3 string payload: %w", err)
		}
		count++
		if packet.IsClose(p) {
			break
		}
	}

	if count == 0 {
		p, err := e.recv(ctx, rx)
		if err != nil {
			return Payload{}, err
		}
		if err := writeStringFrame(&data, p); err != nil {
			return Payload{}, fmt.Errorf("encode v3 string payload: %w", err)
		}
		count++
	}

	e.logger.Debug("encoded v3 string payload", log.Int("packets", count), log.Int("bytes", data.Len()))
	return Payload{Data: data.Bytes()}, nil
}

// EncodeV3Binary encodes queued packets into a v3 payload. If any drained
// packet is binary the whole payload uses the binary framing, otherwise the
// string framing.
func (e *Encoder) EncodeV3Binary(ctx context.Context, rx Receiver, maxPayload int) (Payload, error) {
	var (
		batch     []packet.Packet
		estimated int
		hasBinary bool
	)

	overhead := v3FramePunctuation + digits(maxPayload)
	for {
		p, ok := e.tryRecv(rx, estimated, maxPayload, false)
		if !ok {
			break
		}
		if packet.IsBinary(p) {
			hasBinary = true
		}
		estimated += packet.SizeHint(p, false) + overhead
		batch = append(batch, p)
		if packet.IsClose(p) {
			break
		}
	}

	if len(batch) == 0 {
		p, err := e.recv(ctx, rx)
		if err != nil {
			return Payload{}, err
		}
		batch = append(batch, p)
		hasBinary = packet.IsBinary(p)
	}

	write := writeStringFrame
	if hasBinary {
		write = writeBinaryFrame
	}

	var data bytes.Buffer
	for _, p := range batch {
		if err := write(&data, p); err != nil {
			return Payload{}, fmt.Errorf("encode v3 binary payload: %w", err)
		}
	}

	e.logger.Debug("encoded v3 payload",
		log.Int("packets", len(batch)),
		log.Int("bytes", data.Len()),
		log.Bool("binary", hasBinary),
	)
	return Payload{Data: data.Bytes(), ContainsBinary: hasBinary}, nil
}

// writeStringFrame writes <char count>:<text>.
func writeStringFrame(buf *bytes.Buffer, p packet.Packet) error {
	text, err := packet.Encode(p)
	if err != nil {
		return err
	}
	buf.WriteString(strconv.Itoa(utf8.RuneCountInString(text)))
	buf.WriteByte(StringSeparatorV3)
	buf.WriteString(text)
	return nil
}

// writeBinaryFrame writes a tagged frame. Binary packets carry their raw
// bytes behind the message type byte, counted in the length; every other
// packet carries its UTF-8 text form.
func writeBinaryFrame(buf *bytes.Buffer, p packet.Packet) error {
	switch p := p.(type) {
	case packet.Binary:
		writeRawFrame(buf, p)
	case packet.BinaryV3:
		writeRawFrame(buf, p)
	default:
		text, err := packet.Encode(p)
		if err != nil {
			return err
		}
		buf.WriteByte(frameTagString)
		writeLengthDigits(buf, len(text))
		buf.WriteByte(BinarySeparatorV3)
		buf.WriteString(text)
	}
	return nil
}

func writeRawFrame(buf *bytes.Buffer, data []byte) {
	buf.WriteByte(frameTagBinary)
	writeLengthDigits(buf, len(data)+1)
	buf.WriteByte(BinarySeparatorV3)
	buf.WriteByte(binaryMessageType)
	buf.Write(data)
}

// writeLengthDigits writes n in decimal, one byte per digit holding the
// digit value (not its ASCII code).
func writeLengthDigits(buf *bytes.Buffer, n int) {
	for _, c := range strconv.Itoa(n) {
		buf.WriteByte(byte(c - '0'))
	}
}
