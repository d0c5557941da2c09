package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTrustedResolver(t *testing.T) {
	ctx := context.Background()

	id, err := TrustedResolver{}.Resolve(ctx, "u1", "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.UserID != "u1" {
		t.Fatalf("unexpected user id: %s", id.UserID)
	}

	if _, err := (TrustedResolver{}).Resolve(ctx, "", ""); !errors.Is(err, ErrMissingIdentity) {
		t.Fatalf("expected ErrMissingIdentity, got %v", err)
	}
}

func TestTokenResolverRoundTrip(t *testing.T) {
	ctx := context.Background()
	secret := []byte("test-secret")
	resolver := NewTokenResolver(secret, "collab", "clients")

	token, err := GenerateToken(secret, "collab", "clients", "u42", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	id, err := resolver.Resolve(ctx, "", token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if id.UserID != "u42" {
		t.Fatalf("unexpected user id: %s", id.UserID)
	}

	// A declared user id that disagrees with the signed one is rejected.
	if _, err := resolver.Resolve(ctx, "someone-else", token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on mismatch, got %v", err)
	}
}

func TestTokenResolverRejectsBadToken(t *testing.T) {
	ctx := context.Background()
	resolver := NewTokenResolver([]byte("right-secret"), "", "")

	if _, err := resolver.Resolve(ctx, "u1", ""); !errors.Is(err, ErrMissingIdentity) {
		t.Fatalf("expected ErrMissingIdentity, got %v", err)
	}

	forged, err := GenerateToken([]byte("wrong-secret"), "", "", "u1", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := resolver.Resolve(ctx, "u1", forged); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	expired, err := GenerateToken([]byte("right-secret"), "", "", "u1", -time.Minute)
	if err != nil {
		t.Fatalf("generate expired: %v", err)
	}
	if _, err := resolver.Resolve(ctx, "u1", expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
