package proto

import "encoding/json"

// Inbound is the envelope for events coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeHello = "hello"
	InboundTypeJoin  = "join room"
	InboundTypeLeave = "leave room"
	InboundTypeChat  = "chat message"

	OutboundTypeChat  = "chat message"
	OutboundTypeError = "error"
)

// HelloData opens the handshake; the token is the identity credential.
type HelloData struct {
	Token string `json:"token"`
}

// RoomData names the room for join/leave events.
type RoomData struct {
	Room string `json:"roomId"`
}

// ChatData is an inbound chat message. Only the body and optional room are
// honored; identity-looking fields are parsed and discarded so a client
// cannot impersonate anyone.
type ChatData struct {
	Message string `json:"message"`
	Room    string `json:"roomId,omitempty"`

	// Ignored on input. The server stamps sender identity itself.
	SenderID   string `json:"senderId,omitempty"`
	SenderName string `json:"senderName,omitempty"`
}

// Outbound is the envelope for events sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ChatEvent is a delivered chat message.
type ChatEvent struct {
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
	Room       string `json:"roomId,omitempty"`
}

// Error describes a handshake rejection or a per-client error notice.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
