// Package auth resolves the credential carried by an authenticate event into
// a user identity. The coordinator trusts whatever identity comes back; it
// performs no credential verification of its own.
package auth

import "context"

// Identity is a resolved user identity.
type Identity struct {
	UserID string
}

// Resolver turns a declared user id plus an optional credential into an
// Identity, or fails with an error that is reported to the offending
// connection only.
type Resolver interface {
	Resolve(ctx context.Context, userID, token string) (Identity, error)
}

// TrustedResolver accepts the declared user id as-is. Used when no signing
// secret is configured, matching deployments where an upstream proxy already
// authenticated the connection.
type TrustedResolver struct{}

// Resolve returns the declared user id, rejecting empty ids.
func (TrustedResolver) Resolve(_ context.Context, userID, _ string) (Identity, error) {
	if userID == "" {
		return Identity{}, ErrMissingIdentity
	}
	return Identity{UserID: userID}, nil
}
