package core

import (
	"time"

	"github.com/deepblue-labs/collab-server/internal/presence"
)

// EventKind is a notification the coordinator emits to clients.
type EventKind int

const (
	// EventMemberJoined notifies existing room members about a new member.
	EventMemberJoined EventKind = iota
	// EventMemberLeft notifies remaining room members about a departure.
	EventMemberLeft
	// EventCursorUpdate relays another member's cursor position.
	EventCursorUpdate
	// EventFileChange relays another member's content edit.
	EventFileChange
	// EventChatMessage delivers a chat message, including to its sender.
	EventChatMessage
	// EventTypingStart relays a typing indicator.
	EventTypingStart
	// EventTypingStop relays the end of a typing indicator.
	EventTypingStop
	// EventError reports a domain error to the offending connection only.
	EventError
)

// ChatMessage is a server-stamped chat payload.
type ChatMessage struct {
	ID      string
	Content string
	Kind    string
}

// Event is sent to clients to describe what happened in a room. Every event
// carries the originating user, connection, and a server-assigned timestamp.
type Event struct {
	Kind      EventKind
	Room      string
	User      string
	ConnID    string
	Timestamp time.Time
	Cursor    *presence.Cursor
	File      *FileChange
	Chat      *ChatMessage
	Error     *CoreError
}

// droppable reports whether the event may be shed when a recipient's queue is
// full. Cursor and typing signals are superseded by the next update and error
// replies only concern the offender; chat, edits, and membership changes must
// not be lost.
func (e *Event) droppable() bool {
	switch e.Kind {
	case EventCursorUpdate, EventTypingStart, EventTypingStop, EventError:
		return true
	default:
		return false
	}
}
