package core

import (
	"sync"
	"sync/atomic"
)

// Client is one live connection as seen by the coordinator. It is created on
// transport attach and unauthenticated until an authenticate command arrives.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan *Event

	// sendMu serializes producers on the Events queue so overflow handling
	// sees a stable queue. The consumer side never takes it.
	sendMu sync.Mutex

	done     chan struct{}
	doneOnce sync.Once
	gone     atomic.Bool

	mu     sync.Mutex
	userID string
	roomID string
}

// NewClient constructs a client with bounded command and event queues.
func NewClient(id string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, buffer),
		Events:   make(chan *Event, buffer),
		done:     make(chan struct{}),
	}
}

// Done is closed once the client is unregistered. The transport write loop
// watches it so a coordinator-initiated drop tears the connection down.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Identity returns the authenticated user and room, with ok false before
// authentication.
func (c *Client) Identity() (userID, roomID string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID, c.roomID, c.roomID != ""
}

func (c *Client) setIdentity(userID, roomID string) {
	c.mu.Lock()
	c.userID = userID
	c.roomID = roomID
	c.mu.Unlock()
}

// markGone flips the client into its terminal state. Returns true for the
// caller that won the race; cleanup must run exactly once.
func (c *Client) markGone() bool {
	if !c.gone.CompareAndSwap(false, true) {
		return false
	}
	c.doneOnce.Do(func() { close(c.done) })
	return true
}
