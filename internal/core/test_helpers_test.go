package core

import (
	"testing"
	"time"

	"github.com/deepblue-labs/collab-server/internal/auth"
	"github.com/deepblue-labs/collab-server/internal/presence"
)

func newTestHub(t *testing.T, opts Options) (*Hub, *presence.MemoryStore) {
	t.Helper()
	store := presence.NewMemoryStore()
	return NewHub(store, trustedResolver(), nil, opts), store
}

func trustedResolver() auth.Resolver {
	return auth.TrustedResolver{}
}

func authClient(t *testing.T, hub *Hub, connID, userID, roomID string) *Client {
	t.Helper()
	c := hub.NewClient(connID)
	hub.RegisterClient(c)
	c.Commands <- &Command{Kind: CommandAuthenticate, Auth: &AuthData{UserID: userID, RoomID: roomID}}
	waitIdentity(t, c)
	return c
}

func waitIdentity(t *testing.T, c *Client) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, ok := c.Identity(); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("client %s never authenticated", c.ID)
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, within time.Duration) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(within):
	}
}
