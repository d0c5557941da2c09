package proto

import "encoding/json"

// Inbound is the envelope for events coming from the client, tagged by kind.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeAuthenticate = "authenticate"
	InboundTypeCursorUpdate = "cursor_update"
	InboundTypeFileChange   = "file_change"
	InboundTypeChatMessage  = "chat_message"
	InboundTypeTypingStart  = "typing_start"
	InboundTypeTypingStop   = "typing_stop"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// AuthenticateData attaches an identity and a target project room.
type AuthenticateData struct {
	UserID    string `json:"userId"`
	ProjectID string `json:"projectId"`
	Token     string `json:"token,omitempty"`
}

// CursorData is the client's cursor position.
type CursorData struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// FileChangeData is a verbatim content edit.
type FileChangeData struct {
	FileID  string          `json:"fileId"`
	Content string          `json:"content"`
	Changes json.RawMessage `json:"changes,omitempty"`
}

// ChatData is a chat message from the client.
type ChatData struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// Outbound is the envelope for events sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Outbound event tags.
const (
	EventMemberJoined = "member_joined"
	EventMemberLeft   = "member_left"
	EventCursorUpdate = "cursor_update"
	EventFileChange   = "file_change"
	EventChatMessage  = "chat_message"
	EventTypingStart  = "typing_start"
	EventTypingStop   = "typing_stop"
)

// Position is a cursor location inside a file.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// MemberEvent announces a join or leave to the rest of the room.
type MemberEvent struct {
	UserID       string `json:"userId"`
	ConnectionID string `json:"connectionId"`
	Timestamp    int64  `json:"timestamp"`
}

// CursorEvent relays a member's cursor position.
type CursorEvent struct {
	UserID    string   `json:"userId"`
	Position  Position `json:"position"`
	Timestamp int64    `json:"timestamp"`
}

// FileChangeEvent relays a member's content edit verbatim.
type FileChangeEvent struct {
	FileID    string          `json:"fileId"`
	Content   string          `json:"content"`
	Changes   json.RawMessage `json:"changes,omitempty"`
	UserID    string          `json:"userId"`
	Timestamp int64           `json:"timestamp"`
}

// ChatMessageEvent delivers a server-stamped chat message.
type ChatMessageEvent struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	RoomID    string `json:"roomId"`
	Content   string `json:"content"`
	Kind      string `json:"kind"`
	Timestamp int64  `json:"timestamp"`
}

// TypingEvent relays a typing indicator.
type TypingEvent struct {
	UserID    string `json:"userId"`
	Timestamp int64  `json:"timestamp"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
