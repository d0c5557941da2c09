// Package presence is the ephemeral state store for liveness and cursor
// records. Records carry a TTL on write; expiry is the authoritative liveness
// signal, active deletion is best-effort cleanup.
package presence

import (
	"context"
	"errors"
	"time"
)

// Default lifetimes for the two record kinds.
const (
	DefaultSessionTTL = time.Hour
	DefaultCursorTTL  = 60 * time.Second
)

// ErrNotFound is returned by Get for keys that are absent or expired.
var ErrNotFound = errors.New("presence: not found")

// Store is the minimal TTL key-value contract the coordinator needs. Backends
// may be remote; callers must treat failures as degraded presence fidelity,
// never as fatal.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Session is the liveness record for a user within a room.
type Session struct {
	UserID   string `json:"userId"`
	RoomID   string `json:"roomId"`
	LastSeen int64  `json:"lastSeen"`
}

// Cursor is a position within a file.
type Cursor struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// CursorState is the stored cursor record for a user within a room.
type CursorState struct {
	UserID   string `json:"userId"`
	Position Cursor `json:"position"`
	LastSeen int64  `json:"lastSeen"`
}

// SessionKey returns the store key for a user's session marker in a room.
func SessionKey(roomID, userID string) string {
	return "presence:session:" + roomID + ":" + userID
}

// CursorKey returns the store key for a user's cursor record in a room.
func CursorKey(roomID, userID string) string {
	return "presence:cursor:" + roomID + ":" + userID
}
