package presence

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreSetGetDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.Set(ctx, "k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v" {
		t.Fatalf("unexpected value: %q", got)
	}

	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is a no-op.
	if err := store.Delete(ctx, "k"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestMemoryStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Unix(1000, 0)
	store.now = func() time.Time { return now }

	if err := store.Set(ctx, "cursor", []byte("{}"), 60*time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	now = now.Add(59 * time.Second)
	if _, err := store.Get(ctx, "cursor"); err != nil {
		t.Fatalf("record expired early: %v", err)
	}

	now = now.Add(2 * time.Second)
	if _, err := store.Get(ctx, "cursor"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after ttl, got %v", err)
	}
}

func TestMemoryStoreSetRefreshesTTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	now := time.Unix(2000, 0)
	store.now = func() time.Time { return now }

	_ = store.Set(ctx, "session", []byte("a"), 10*time.Second)
	now = now.Add(8 * time.Second)
	_ = store.Set(ctx, "session", []byte("b"), 10*time.Second)
	now = now.Add(8 * time.Second)

	got, err := store.Get(ctx, "session")
	if err != nil {
		t.Fatalf("get after refresh: %v", err)
	}
	if string(got) != "b" {
		t.Fatalf("unexpected value: %q", got)
	}
}

func TestPresenceKeys(t *testing.T) {
	if SessionKey("proj-1", "u1") != "presence:session:proj-1:u1" {
		t.Fatalf("unexpected session key: %s", SessionKey("proj-1", "u1"))
	}
	if CursorKey("proj-1", "u1") != "presence:cursor:proj-1:u1" {
		t.Fatalf("unexpected cursor key: %s", CursorKey("proj-1", "u1"))
	}
}
