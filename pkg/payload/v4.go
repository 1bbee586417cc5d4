package payload

import (
	"context"
	"fmt"
	"strings"

	"github.com/bft-labs/pollship/pkg/log"
	"github.com/bft-labs/pollship/pkg/packet"
)

// EncodeV4 encodes queued packets into a v4 text payload, separated by
// SeparatorV4.
func (e *Encoder) EncodeV4(ctx context.Context, rx Receiver, maxPayload int) (Payload, error) {
	var data strings.Builder

	const separatorLen = 1
	count := 0
	for {
		p, ok := e.tryRecv(rx, data.Len()+separatorLen, maxPayload, true)
		if !ok {
			break
		}
		text, err := packet.Encode(p)
		if err != nil {
			return Payload{}, fmt.Errorf("encode v4 payload: %w", err)
		}
		if count > 0 {
			data.WriteByte(SeparatorV4)
		}
		data.WriteString(text)
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
		text, err := packet.Encode(p)
		if err != nil {
			return Payload{}, fmt.Errorf("encode v4 payload: %w", err)
		}
		data.WriteString(text)
		count++
	}

	e.logger.Debug("encoded v4 payload", log.Int("packets", count), log.Int("bytes", data.Len()))
	return Payload{Data: []byte(data.String())}, nil
}
