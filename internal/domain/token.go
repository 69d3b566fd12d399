package domain

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// TokenRecord is a single active credential. Records are minted by an external
// issuer; this service only reads and time-compares them.
type TokenRecord struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the record's expiry is strictly before now.
func (t *TokenRecord) Expired(now time.Time) bool {
	return t.ExpiresAt.Before(now)
}

// NewOpaqueToken generates a cryptographically random credential string.
func NewOpaqueToken() string {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return hex.EncodeToString(raw)
}
