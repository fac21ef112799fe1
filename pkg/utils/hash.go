package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const apiKeyBytes = 32

// HashAPIKey returns the value stored for an api key. Tenants are looked
// up by this hash, so it must be deterministic (no salt).
func HashAPIKey(arg string) string {
	sum := sha256.Sum256([]byte(arg))
	return hex.EncodeToString(sum[:])
}

// GenerateAPIKey returns a random hex encoded api key.
func GenerateAPIKey() string {
	b := make([]byte, apiKeyBytes)
	_, _ = rand.Read(b) // never fails, see crypto/rand.Read
	return hex.EncodeToString(b)
}
