package models

import "encoding/json"

// Server-to-client event types.
const (
	EventMessage        = "message"
	EventPresence       = "presence"
	EventStatusChanged  = "status_changed"
	EventHistoryCleared = "history_cleared"
	EventMessageDeleted = "message_deleted"
)

// Client-to-server frame types.
const (
	FrameJoin = "join"
	FrameSend = "send"
)

// ChatEvent is the envelope broadcast to every connection in the audience.
type ChatEvent struct {
	Type      string           `json:"type"`
	Message   *ChatMessage     `json:"message,omitempty"`
	Presence  []Identity       `json:"presence,omitempty"`
	Status    *ModerationState `json:"status,omitempty"`
	MessageID string           `json:"message_id,omitempty"`
}

// ClientFrame is an inbound frame on the realtime channel.
type ClientFrame struct {
	Type     string          `json:"type"`
	Identity *Identity       `json:"identity,omitempty"`
	Message  json.RawMessage `json:"message,omitempty"`
}
