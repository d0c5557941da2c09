package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/deepblue-labs/collab-server/internal/core"
)

func TestRecorderArchivesChatMessages(t *testing.T) {
	recorder, err := New(filepath.Join(t.TempDir(), "history.db"), nil)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	defer recorder.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go recorder.Run(ctx)

	recorder.Archive(core.ChatArchive{
		ID: "msg_proj-1_1", Room: "proj-1", User: "u1", Content: "hi", Kind: "user", At: time.Now(),
	})
	recorder.Archive(core.ChatArchive{
		ID: "msg_proj-1_2", Room: "proj-1", User: "u2", Content: "hello", Kind: "user", At: time.Now(),
	})
	recorder.Archive(core.ChatArchive{
		ID: "msg_other_1", Room: "other", User: "u3", Content: "elsewhere", Kind: "user", At: time.Now(),
	})

	waitForCount(t, recorder, "proj-1", 2)

	msgs, err := recorder.Messages(context.Background(), "proj-1", 10)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].ID != "msg_proj-1_1" || msgs[1].ID != "msg_proj-1_2" {
		t.Fatalf("unexpected order: %s, %s", msgs[0].ID, msgs[1].ID)
	}
	if msgs[0].Content != "hi" || msgs[0].User != "u1" {
		t.Fatalf("unexpected record: %+v", msgs[0])
	}
}

func TestRecorderDeduplicatesByID(t *testing.T) {
	recorder, err := New(filepath.Join(t.TempDir(), "history.db"), nil)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	defer recorder.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go recorder.Run(ctx)

	msg := core.ChatArchive{ID: "msg_proj-1_1", Room: "proj-1", User: "u1", Content: "once", Kind: "user", At: time.Now()}
	recorder.Archive(msg)
	recorder.Archive(msg) // redelivery must not duplicate

	waitForCount(t, recorder, "proj-1", 1)
	time.Sleep(50 * time.Millisecond)

	msgs, err := recorder.Messages(context.Background(), "proj-1", 10)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message after dedup, got %d", len(msgs))
	}
}

func waitForCount(t *testing.T, r *Recorder, roomID string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		msgs, err := r.Messages(context.Background(), roomID, want+10)
		if err == nil && len(msgs) >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d archived messages for %s", want, roomID)
}
