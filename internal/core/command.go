package core

import (
	"encoding/json"

	"github.com/deepblue-labs/collab-server/internal/presence"
)

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandAuthenticate attaches an identity and joins the client to a room.
	CommandAuthenticate CommandKind = iota
	// CommandCursorUpdate reports the client's cursor position.
	CommandCursorUpdate
	// CommandFileChange relays a content edit to the room.
	CommandFileChange
	// CommandChatMessage sends a chat message to the room, sender included.
	CommandChatMessage
	// CommandTypingStart signals the client started typing.
	CommandTypingStart
	// CommandTypingStop signals the client stopped typing.
	CommandTypingStop
)

// AuthData carries the identity claim of an authenticate command.
type AuthData struct {
	UserID string
	RoomID string
	Token  string
}

// FileChange is a verbatim edit payload. Changes are relayed untouched;
// conflict resolution is last-writer-wins by arrival order.
type FileChange struct {
	FileID  string
	Content string
	Changes json.RawMessage
}

// ChatData is an inbound chat message before the server stamps it.
type ChatData struct {
	Content string
	Kind    string
}

// Command represents an action requested by a client.
type Command struct {
	Kind   CommandKind
	Auth   *AuthData
	Cursor *presence.Cursor
	File   *FileChange
	Chat   *ChatData
}
