package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

const (
	// SessionCookieName carries the opaque session token
	SessionCookieName = "dashboard.session"

	// TokenLength is the length of generated session tokens in bytes
	TokenLength = 32
)

// GenerateSessionToken returns a random token for the session cookie and
// its SHA256 hash for storage. Only the hash is persisted.
func GenerateSessionToken() (string, string, error) {
	tokenBytes := make([]byte, TokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", "", fmt.Errorf("generate random token: %w", err)
	}

	token := hex.EncodeToString(tokenBytes)
	return token, HashToken(token), nil
}

// HashToken hashes a session token for storage/lookup
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
