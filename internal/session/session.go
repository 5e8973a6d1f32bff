// Package session issues, resolves and revokes opaque bearer tokens.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"bookflow-backend/internal/models"
)

// DefaultTTL is how long a session stays valid after creation.
const DefaultTTL = 24 * time.Hour

// tokenBytes gives 256 bits of entropy per token.
const tokenBytes = 32

// Store manages the token-to-session mapping.
//
// A session has exactly two states, valid and gone. Resolve of an expired
// token deletes it as a side effect (lazy expiry) and reports it as absent;
// there is no way back.
type Store interface {
	// Create issues a fresh session for the user.
	Create(ctx context.Context, userID string) (*models.Session, error)
	// Resolve looks a session up by token. Expired or unknown tokens
	// return apperr.ErrUnauthorized.
	Resolve(ctx context.Context, token string) (*models.Session, error)
	// Revoke removes the session. Revoking an absent token is not an error.
	Revoke(ctx context.Context, token string) error
}

// generateToken returns a hex-encoded 256-bit random token.
// Entropy source failure is not recoverable here.
func generateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
