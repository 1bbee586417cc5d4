// Package packet defines the engine.io packet set queued by a session for
// delivery to its peer.
//
// Packet is a closed sum type: the variants are the concrete types in this
// package and nothing outside it can add more. Consumers switch on the
// concrete type; the helpers Encode, SizeHint, IsBinary and IsClose cover
// every variant.
//
// # Text form
//
//	open      0{"sid":...}
//	close     1
//	ping      2       (2probe during upgrade)
//	pong      3       (3probe during upgrade)
//	message   4<text>
//	upgrade   5
//	noop      6
//	binary    b<base64>     (protocol v4)
//	binary v3 b4<base64>    (protocol v3)
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package packet
