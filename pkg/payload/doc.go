// Package payload encodes queued packets into HTTP long-polling response
// bodies.
//
// A poll drains as many queued packets as fit under the negotiated maximum
// payload size without waiting. Only when nothing could be drained does the
// encoder wait for the next packet, which is then sent alone whatever its
// size, so a poll never answers with an empty body and an oversized packet
// can never wedge the session.
//
// # Formats
//
// Protocol v4 joins text packets with the record separator 0x1E; binary
// packets travel as base64 text.
//
// Protocol v3 has two framings. The string framing prefixes each packet
// with its character count and a colon:
//
//	7:4hello€10:b4AQIDBA==
//
// The binary framing is used for a whole payload as soon as one of its
// packets is binary:
//
//	<0x00|0x01> <length digits as raw values> 0xFF [0x04] <bytes>
//
// # Usage
//
//	g, err := q.Lock(ctx)
//	if err != nil {
//	    return err
//	}
//	defer g.Release()
//
//	enc := payload.NewEncoder(logger)
//	p, err := enc.EncodeV4(ctx, g, 100000)
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package payload
