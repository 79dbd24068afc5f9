// ABOUTME: API key generation, hashing, and verification for MCP clients
// ABOUTME: Uses scrypt-derived digests with constant-time comparison

package apikeys

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

// KeyPrefix is prepended to every raw key so users can recognize leanlog keys.
const KeyPrefix = "llk_"

// scrypt cost parameters, tuned for tens-of-milliseconds verification.
const (
	scryptN          = 16384 // CPU/memory cost
	scryptR          = 8     // block size
	scryptP          = 1     // parallelization
	derivedKeyLength = 64
	saltLength       = 16
)

// hashScheme identifies the serialization format of stored hashes.
const hashScheme = "scrypt"

// GenerateRawKey produces a new high-entropy API key with the llk_ prefix.
// The raw key is shown to the user exactly once; only its hash is stored.
func GenerateRawKey() string {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		// crypto/rand.Read never fails on supported platforms
		panic(fmt.Sprintf("apikeys: reading random bytes: %v", err))
	}
	return KeyPrefix + base64.RawURLEncoding.EncodeToString(raw)
}

// HashKey derives a scrypt digest of the raw key with a fresh random salt
// and serializes it as "scrypt$<salt-hex>$<hash-hex>".
func HashKey(rawKey string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	derived, err := derive(rawKey, salt)
	if err != nil {
		return "", err
	}

	return hashScheme + "$" + hex.EncodeToString(salt) + "$" + hex.EncodeToString(derived), nil
}

// VerifyKey reports whether rawKey matches the stored digest.
// Malformed stored values return false rather than an error, so a corrupt
// row can never authenticate and never aborts the key scan.
// Comparison is constant-time to avoid leaking hash prefixes.
func VerifyKey(rawKey, stored string) bool {
	parts := strings.Split(stored, "$")
	if len(parts) != 3 || parts[0] != hashScheme {
		return false
	}

	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	expect, err := hex.DecodeString(parts[2])
	if err != nil || len(expect) != derivedKeyLength {
		return false
	}

	derived, err := derive(rawKey, salt)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(derived, expect) == 1
}

// derive runs scrypt with the package cost parameters.
func derive(input string, salt []byte) ([]byte, error) {
	out, err := scrypt.Key([]byte(input), salt, scryptN, scryptR, scryptP, derivedKeyLength)
	if err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return out, nil
}
