package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingIdentity is returned when neither a token nor a user id is supplied.
	ErrMissingIdentity = errors.New("missing identity")
	// ErrInvalidToken is returned for tokens that fail verification.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims carries the signed user identity.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenResolver validates HMAC-signed tokens and takes the user id from the
// token claims. The declared user id, if any, must match the signed one.
type TokenResolver struct {
	secret   []byte
	issuer   string
	audience string
}

// NewTokenResolver builds a resolver for HS256 tokens signed with secret.
func NewTokenResolver(secret []byte, issuer, audience string) *TokenResolver {
	return &TokenResolver{secret: secret, issuer: issuer, audience: audience}
}

// Resolve validates the token and returns the identity it carries.
func (r *TokenResolver) Resolve(_ context.Context, userID, tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, ErrMissingIdentity
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return Identity{}, ErrInvalidToken
	}
	if r.issuer != "" && claims.Issuer != r.issuer {
		return Identity{}, fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if r.audience != "" && !hasAudience(claims.Audience, r.audience) {
		return Identity{}, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if userID != "" && userID != claims.UserID {
		return Identity{}, fmt.Errorf("%w: user id mismatch", ErrInvalidToken)
	}

	return Identity{UserID: claims.UserID}, nil
}

func hasAudience(audience jwt.ClaimStrings, want string) bool {
	for _, aud := range audience {
		if aud == want {
			return true
		}
	}
	return false
}

// GenerateToken mints a token for userID, mainly for tests and tooling.
func GenerateToken(secret []byte, issuer, audience, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}
