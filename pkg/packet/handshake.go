package packet

import json "github.com/goccy/go-json"

// Handshake is the JSON body of an Open packet.
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int64    `json:"pingInterval"`
	PingTimeout  int64    `json:"pingTimeout"`
	MaxPayload   int64    `json:"maxPayload"`
}

// MarshalHandshake returns the JSON encoding of h. A nil upgrade list is
// written as an empty array.
func MarshalHandshake(h Handshake) ([]byte, error) {
	if h.Upgrades == nil {
		h.Upgrades = []string{}
	}
	return json.Marshal(h)
}
