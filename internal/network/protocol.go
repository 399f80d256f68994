package network

import "encoding/json"

// Message is the envelope for all traffic in both directions. Type routes
// the message; Payload stays raw JSON so each layer decodes only what it
// understands.
type Message struct {
	Type    string          `json:"type"`    // e.g. "shoot", "state", "timer"
	Payload json.RawMessage `json:"payload"` // command- or event-specific body
}

// MaxMessageSize caps a single inbound frame. A client announcing anything
// bigger is misbehaving and gets its connection closed.
const MaxMessageSize = 64 * 1024
