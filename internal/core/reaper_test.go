package core

import (
	"context"
	"testing"
	"time"

	"github.com/deepblue-labs/collab-server/internal/presence"
)

func TestReaperEvictsExpiredSessions(t *testing.T) {
	hub, store := newTestHub(t, Options{
		SessionTTL:   60 * time.Millisecond,
		ReapInterval: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c1 := authClient(t, hub, "c1", "u1", "proj-1")
	c2 := authClient(t, hub, "c2", "u2", "proj-1")
	mustEvent(t, c1.Events, EventMemberJoined)

	// Keep u2's liveness record fresh; u1 goes silent and its record expires.
	if err := store.Set(ctx, "presence:session:proj-1:u2", []byte(`{"userId":"u2","roomId":"proj-1"}`), time.Hour); err != nil {
		t.Fatalf("refresh session: %v", err)
	}

	left := mustEvent(t, c2.Events, EventMemberLeft)
	if left.User != "u1" || left.ConnID != "c1" {
		t.Fatalf("unexpected leave event: %+v", left)
	}

	// An explicit disconnect racing the reaper must not produce a second
	// member-left notification.
	hub.UnregisterClient(c1)
	drainLeft := 0
	deadline := time.After(150 * time.Millisecond)
drain:
	for {
		select {
		case ev := <-c2.Events:
			if ev.Kind == EventMemberLeft && ev.ConnID == "c1" {
				drainLeft++
			}
		case <-deadline:
			break drain
		}
	}
	if drainLeft != 0 {
		t.Fatalf("expected no duplicate member-left for c1, got %d", drainLeft)
	}
}

func TestActivityKeepsSessionAlive(t *testing.T) {
	hub, store := newTestHub(t, Options{
		SessionTTL:   60 * time.Millisecond,
		ReapInterval: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c1 := authClient(t, hub, "c1", "u1", "proj-1")
	c2 := authClient(t, hub, "c2", "u2", "proj-1")
	mustEvent(t, c1.Events, EventMemberJoined)

	// u2 idles but is kept alive out of band; u1 keeps sending cursor
	// updates, which must refresh its liveness record past the ttl.
	if err := store.Set(ctx, "presence:session:proj-1:u2", []byte(`{"userId":"u2","roomId":"proj-1"}`), time.Hour); err != nil {
		t.Fatalf("refresh session: %v", err)
	}

	deadline := time.Now().Add(250 * time.Millisecond)
	for time.Now().Before(deadline) {
		c1.Commands <- &Command{Kind: CommandCursorUpdate, Cursor: &presence.Cursor{Line: 1}}
		select {
		case ev := <-c2.Events:
			if ev.Kind == EventMemberLeft {
				t.Fatalf("active connection was reaped: %+v", ev)
			}
		default:
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Once u1 goes silent its record expires and the reaper takes over.
	left := mustEvent(t, c2.Events, EventMemberLeft)
	if left.User != "u1" || left.ConnID != "c1" {
		t.Fatalf("unexpected leave event: %+v", left)
	}
}

func TestReaperSkipsLiveSessions(t *testing.T) {
	hub, _ := newTestHub(t, Options{
		SessionTTL:   time.Hour,
		ReapInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c1 := authClient(t, hub, "c1", "u1", "proj-1")
	c2 := authClient(t, hub, "c2", "u2", "proj-1")
	mustEvent(t, c1.Events, EventMemberJoined)

	mustNoEvent(t, c2.Events, 100*time.Millisecond)
	if stats := hub.CurrentStats(); stats.Connections != 2 {
		t.Fatalf("live connections were reaped: %+v", stats)
	}
}

func TestReaperToleratesStoreOutage(t *testing.T) {
	hub := NewHub(failingStore{}, trustedResolver(), nil, Options{ReapInterval: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	c1 := authClient(t, hub, "c1", "u1", "proj-1")
	c2 := authClient(t, hub, "c2", "u2", "proj-1")
	mustEvent(t, c1.Events, EventMemberJoined)

	// Store errors are not expiry: nobody gets evicted.
	mustNoEvent(t, c2.Events, 100*time.Millisecond)
	if stats := hub.CurrentStats(); stats.Connections != 2 {
		t.Fatalf("connections evicted during store outage: %+v", stats)
	}
}
