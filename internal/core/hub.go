package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepblue-labs/collab-server/internal/auth"
	"github.com/deepblue-labs/collab-server/internal/presence"
)

// ChatArchive is a server-stamped chat message handed to the history sink.
type ChatArchive struct {
	ID      string
	Room    string
	User    string
	Content string
	Kind    string
	At      time.Time
}

// ChatSink receives every accepted chat message, out of the broadcast path.
// Implementations must not block.
type ChatSink interface {
	Archive(msg ChatArchive)
}

// Options tune hub behavior. Zero values fall back to defaults.
type Options struct {
	SessionTTL   time.Duration
	CursorTTL    time.Duration
	ReapInterval time.Duration
	EventBuffer  int
	Sink         ChatSink
}

func (o Options) withDefaults() Options {
	if o.SessionTTL <= 0 {
		o.SessionTTL = presence.DefaultSessionTTL
	}
	if o.CursorTTL <= 0 {
		o.CursorTTL = presence.DefaultCursorTTL
	}
	if o.ReapInterval <= 0 {
		o.ReapInterval = 30 * time.Second
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 64
	}
	return o
}

// Hub is the session coordinator: it owns the connection registry and room
// index, maps inbound commands to presence writes and room fan-out, and reaps
// connections whose liveness record has expired.
type Hub struct {
	log      *zerolog.Logger
	store    presence.Store
	resolver auth.Resolver
	opts     Options

	registry *Registry
	rooms    *roomIndex

	seqMu   sync.Mutex
	chatSeq map[string]uint64

	discarded atomic.Uint64
	shed      atomic.Uint64
}

// NewHub constructs a coordinator. store and resolver must be non-nil;
// a nil logger disables logging.
func NewHub(store presence.Store, resolver auth.Resolver, logger *zerolog.Logger, opts Options) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Hub{
		log:      logger,
		store:    store,
		resolver: resolver,
		opts:     opts.withDefaults(),
		registry: NewRegistry(),
		rooms:    newRoomIndex(),
		chatSeq:  make(map[string]uint64),
	}
}

// NewClient constructs a client sized for this hub's outbound queues.
func (h *Hub) NewClient(id string) *Client {
	return NewClient(id, h.opts.EventBuffer)
}

// RegisterClient records a new unauthenticated connection and starts its
// command pump. Events from one connection are processed in send order.
func (h *Hub) RegisterClient(c *Client) {
	h.registry.Add(c)
	go h.pump(c)
	h.log.Debug().Str("conn_id", c.ID).Msg("connection registered")
}

// UnregisterClient runs the disconnect cleanup path. Safe to call multiple
// times and concurrently with the reaper; cleanup happens exactly once.
func (h *Hub) UnregisterClient(c *Client) {
	h.drop(context.Background(), c, "disconnect")
}

// Run drives the heartbeat reaper until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.opts.ReapInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.reap(ctx)
		}
	}
}

// pump processes one connection's commands sequentially (FIFO per sender).
func (h *Hub) pump(c *Client) {
	for {
		select {
		case <-c.done:
			return
		case cmd := <-c.Commands:
			h.dispatch(context.Background(), c, cmd)
		}
	}
}

func (h *Hub) dispatch(ctx context.Context, c *Client, cmd *Command) {
	if cmd == nil {
		return
	}
	if cmd.Kind == CommandAuthenticate {
		h.handleAuthenticate(ctx, c, cmd.Auth)
		return
	}

	userID, roomID, ok := c.Identity()
	if !ok {
		// Silent discard: the sender gets no reply for pre-auth events.
		h.discarded.Add(1)
		h.log.Debug().Str("conn_id", c.ID).Int("kind", int(cmd.Kind)).Msg("discarding event from unauthenticated connection")
		return
	}

	// Any event counts as liveness: the reaper only evicts connections that
	// went silent, so activity keeps the session record alive.
	h.writeSession(ctx, roomID, userID, time.Now())

	switch cmd.Kind {
	case CommandCursorUpdate:
		h.handleCursor(ctx, c, userID, roomID, cmd.Cursor)
	case CommandFileChange:
		h.handleFile(c, userID, roomID, cmd.File)
	case CommandChatMessage:
		h.handleChat(c, userID, roomID, cmd.Chat)
	case CommandTypingStart:
		h.fanOut(roomID, c.ID, &Event{Kind: EventTypingStart, Room: roomID, User: userID, ConnID: c.ID, Timestamp: time.Now()})
	case CommandTypingStop:
		h.fanOut(roomID, c.ID, &Event{Kind: EventTypingStop, Room: roomID, User: userID, ConnID: c.ID, Timestamp: time.Now()})
	default:
		h.discarded.Add(1)
		h.log.Debug().Str("conn_id", c.ID).Int("kind", int(cmd.Kind)).Msg("discarding unknown command")
	}
}

func (h *Hub) handleAuthenticate(ctx context.Context, c *Client, data *AuthData) {
	if _, _, ok := c.Identity(); ok {
		h.deliver(c, &Event{Kind: EventError, Error: coreError(ErrCodeAlreadyAuthenticated, "connection already authenticated")})
		return
	}
	if data == nil || data.RoomID == "" {
		h.deliver(c, &Event{Kind: EventError, Error: coreError(ErrCodeAuthFailed, "room id is required")})
		return
	}

	identity, err := h.resolver.Resolve(ctx, data.UserID, data.Token)
	if err != nil {
		h.log.Debug().Err(err).Str("conn_id", c.ID).Msg("authentication failed")
		h.deliver(c, &Event{Kind: EventError, Error: coreError(ErrCodeAuthFailed, "authentication failed")})
		return
	}

	now := time.Now()
	c.setIdentity(identity.UserID, data.RoomID)
	h.rooms.join(data.RoomID, c.ID)

	// Presence write happens outside the membership lock and is best-effort.
	h.writeSession(ctx, data.RoomID, identity.UserID, now)

	h.fanOut(data.RoomID, c.ID, &Event{
		Kind:      EventMemberJoined,
		Room:      data.RoomID,
		User:      identity.UserID,
		ConnID:    c.ID,
		Timestamp: now,
	})
	h.log.Info().Str("conn_id", c.ID).Str("user", identity.UserID).Str("room", data.RoomID).Msg("member joined")
}

func (h *Hub) handleCursor(ctx context.Context, c *Client, userID, roomID string, cursor *presence.Cursor) {
	if cursor == nil {
		h.discarded.Add(1)
		return
	}
	now := time.Now()

	state := presence.CursorState{UserID: userID, Position: *cursor, LastSeen: now.UnixMilli()}
	if payload, err := json.Marshal(state); err == nil {
		if err := h.store.Set(ctx, presence.CursorKey(roomID, userID), payload, h.opts.CursorTTL); err != nil {
			h.log.Warn().Err(err).Str("user", userID).Msg("cursor presence write failed")
		}
	}

	h.fanOut(roomID, c.ID, &Event{
		Kind:      EventCursorUpdate,
		Room:      roomID,
		User:      userID,
		ConnID:    c.ID,
		Timestamp: now,
		Cursor:    cursor,
	})
}

func (h *Hub) handleFile(c *Client, userID, roomID string, file *FileChange) {
	if file == nil {
		h.discarded.Add(1)
		return
	}
	// Stateless relay: edits are broadcast verbatim, last writer wins.
	h.fanOut(roomID, c.ID, &Event{
		Kind:      EventFileChange,
		Room:      roomID,
		User:      userID,
		ConnID:    c.ID,
		Timestamp: time.Now(),
		File:      file,
	})
}

func (h *Hub) handleChat(c *Client, userID, roomID string, chat *ChatData) {
	if chat == nil {
		h.discarded.Add(1)
		return
	}
	kind := chat.Kind
	if kind == "" {
		kind = "user"
	}
	now := time.Now()
	msg := &ChatMessage{ID: h.nextChatID(roomID), Content: chat.Content, Kind: kind}

	// Chat echoes back to the sender: it is the only event where the sender
	// needs the server-assigned id and timestamp.
	h.fanOut(roomID, "", &Event{
		Kind:      EventChatMessage,
		Room:      roomID,
		User:      userID,
		ConnID:    c.ID,
		Timestamp: now,
		Chat:      msg,
	})

	if h.opts.Sink != nil {
		h.opts.Sink.Archive(ChatArchive{
			ID:      msg.ID,
			Room:    roomID,
			User:    userID,
			Content: msg.Content,
			Kind:    msg.Kind,
			At:      now,
		})
	}
}

// nextChatID assigns ids that are unique and monotonic within a room. The
// counter outlives the room on purpose: resetting when a room empties would
// reissue old ids if the room is later re-created.
func (h *Hub) nextChatID(roomID string) string {
	h.seqMu.Lock()
	h.chatSeq[roomID]++
	seq := h.chatSeq[roomID]
	h.seqMu.Unlock()
	return fmt.Sprintf("msg_%s_%d", roomID, seq)
}

// fanOut delivers ev to every current room member except exclude. Pass an
// empty exclude to include the sender.
func (h *Hub) fanOut(roomID, exclude string, ev *Event) {
	for _, id := range h.rooms.members(roomID) {
		if id == exclude {
			continue
		}
		recipient, ok := h.registry.Get(id)
		if !ok {
			continue
		}
		h.deliver(recipient, ev)
	}
}

// deliver enqueues ev without ever blocking the sender. When the queue is
// full, superseded signals shed from the oldest end so a stalled recipient
// holds the freshest state, not the first updates it failed to read. A full
// queue on a must-not-drop event means the recipient is wedged and gets
// disconnected instead.
func (h *Hub) deliver(c *Client, ev *Event) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	for {
		select {
		case c.Events <- ev:
			return
		default:
		}
		if !ev.droppable() {
			h.log.Warn().Str("conn_id", c.ID).Msg("recipient queue full on critical event, dropping connection")
			go h.drop(context.Background(), c, "slow consumer")
			return
		}
		select {
		case old := <-c.Events:
			if !old.droppable() {
				// A critical event sat unread through a full buffer of
				// traffic: the recipient is not coming back for it.
				h.log.Warn().Str("conn_id", c.ID).Msg("recipient stalled on critical event, dropping connection")
				go h.drop(context.Background(), c, "slow consumer")
				return
			}
			h.shed.Add(1)
			h.log.Debug().Str("conn_id", c.ID).Msg("shed stale event for slow recipient")
		default:
			// Consumer drained in the meantime; retry the enqueue.
		}
	}
}

// drop is the single cleanup path shared by explicit disconnect, slow-consumer
// eviction, and the reaper. Whichever fires first wins; the rest are no-ops.
func (h *Hub) drop(ctx context.Context, c *Client, reason string) {
	if !c.markGone() {
		return
	}
	h.registry.Remove(c.ID)

	userID, roomID, ok := c.Identity()
	if !ok {
		h.log.Debug().Str("conn_id", c.ID).Msg("unauthenticated connection detached")
		return
	}
	h.rooms.leave(roomID, c.ID)

	now := time.Now()
	if err := h.store.Delete(ctx, presence.SessionKey(roomID, userID)); err != nil {
		h.log.Debug().Err(err).Str("user", userID).Msg("session presence delete failed")
	}
	if err := h.store.Delete(ctx, presence.CursorKey(roomID, userID)); err != nil {
		h.log.Debug().Err(err).Str("user", userID).Msg("cursor presence delete failed")
	}

	h.fanOut(roomID, c.ID, &Event{
		Kind:      EventMemberLeft,
		Room:      roomID,
		User:      userID,
		ConnID:    c.ID,
		Timestamp: now,
	})
	h.log.Info().Str("conn_id", c.ID).Str("user", userID).Str("room", roomID).Str("reason", reason).Msg("member left")
}

// reap evicts authenticated connections whose session record has expired
// without an explicit disconnect. Store outages never evict anyone.
func (h *Hub) reap(ctx context.Context) {
	for _, c := range h.registry.Snapshot() {
		userID, roomID, ok := c.Identity()
		if !ok {
			continue
		}
		_, err := h.store.Get(ctx, presence.SessionKey(roomID, userID))
		switch {
		case err == nil:
		case errors.Is(err, presence.ErrNotFound):
			h.drop(ctx, c, "session expired")
		default:
			h.log.Debug().Err(err).Msg("presence store unavailable, skipping reap cycle for connection")
		}
	}
}

func (h *Hub) writeSession(ctx context.Context, roomID, userID string, now time.Time) {
	record := presence.Session{UserID: userID, RoomID: roomID, LastSeen: now.UnixMilli()}
	payload, err := json.Marshal(record)
	if err != nil {
		return
	}
	if err := h.store.Set(ctx, presence.SessionKey(roomID, userID), payload, h.opts.SessionTTL); err != nil {
		h.log.Warn().Err(err).Str("user", userID).Msg("session presence write failed")
	}
}

// RoomMember is one entry of a room occupancy snapshot.
type RoomMember struct {
	UserID       string
	ConnectionID string
	LastSeen     int64
	Cursor       *presence.Cursor
}

// Occupancy reports who is currently in a room, merging the membership index
// with whatever presence records are still live. Store failures degrade to
// membership-only data.
func (h *Hub) Occupancy(ctx context.Context, roomID string) []RoomMember {
	var out []RoomMember
	for _, connID := range h.rooms.members(roomID) {
		c, ok := h.registry.Get(connID)
		if !ok {
			continue
		}
		userID, _, ok := c.Identity()
		if !ok {
			continue
		}
		member := RoomMember{UserID: userID, ConnectionID: connID}

		if payload, err := h.store.Get(ctx, presence.SessionKey(roomID, userID)); err == nil {
			var session presence.Session
			if json.Unmarshal(payload, &session) == nil {
				member.LastSeen = session.LastSeen
			}
		}
		if payload, err := h.store.Get(ctx, presence.CursorKey(roomID, userID)); err == nil {
			var cursor presence.CursorState
			if json.Unmarshal(payload, &cursor) == nil {
				member.Cursor = &cursor.Position
			}
		}
		out = append(out, member)
	}
	return out
}

// Stats summarizes coordinator state for the stats endpoint.
type Stats struct {
	Rooms       int
	Connections int
	Discarded   uint64
	Shed        uint64
}

// CurrentStats returns a point-in-time snapshot.
func (h *Hub) CurrentStats() Stats {
	return Stats{
		Rooms:       h.rooms.size(),
		Connections: h.registry.Len(),
		Discarded:   h.discarded.Load(),
		Shed:        h.shed.Load(),
	}
}
