// ABOUTME: Tests for API key generation, hashing, and verification.
// ABOUTME: Covers round-trips, malformed stored values, and format invariants.

package apikeys

import (
	"strings"
	"testing"
)

func TestGenerateRawKey(t *testing.T) {
	t.Run("has recognizable prefix", func(t *testing.T) {
		key := GenerateRawKey()
		if !strings.HasPrefix(key, KeyPrefix) {
			t.Errorf("expected prefix %q, got %q", KeyPrefix, key)
		}
	})

	t.Run("is long enough for 256 bits of entropy", func(t *testing.T) {
		key := GenerateRawKey()
		// 32 bytes base64url-encoded is 43 chars plus the prefix
		if len(key) < len(KeyPrefix)+43 {
			t.Errorf("key too short: %d chars", len(key))
		}
	})

	t.Run("keys are unique", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			key := GenerateRawKey()
			if seen[key] {
				t.Fatalf("duplicate key generated: %s", key)
			}
			seen[key] = true
		}
	})
}

func TestHashKey(t *testing.T) {
	t.Run("serializes as scrypt$salt$hash", func(t *testing.T) {
		stored, err := HashKey("llk_test-key")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		parts := strings.Split(stored, "$")
		if len(parts) != 3 {
			t.Fatalf("expected 3 parts, got %d: %s", len(parts), stored)
		}
		if parts[0] != "scrypt" {
			t.Errorf("expected scheme scrypt, got %q", parts[0])
		}
		if len(parts[1]) != saltLength*2 {
			t.Errorf("expected %d hex chars of salt, got %d", saltLength*2, len(parts[1]))
		}
		if len(parts[2]) != derivedKeyLength*2 {
			t.Errorf("expected %d hex chars of hash, got %d", derivedKeyLength*2, len(parts[2]))
		}
	})

	t.Run("same key hashes differently each time", func(t *testing.T) {
		a, err := HashKey("llk_same-key")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := HashKey("llk_same-key")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a == b {
			t.Error("expected distinct salts to produce distinct stored values")
		}
	})
}

func TestVerifyKey(t *testing.T) {
	t.Run("round-trips a generated key", func(t *testing.T) {
		raw := GenerateRawKey()
		stored, err := HashKey(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !VerifyKey(raw, stored) {
			t.Error("expected verification to succeed for matching key")
		}
	})

	t.Run("rejects a different key", func(t *testing.T) {
		stored, err := HashKey(GenerateRawKey())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if VerifyKey(GenerateRawKey(), stored) {
			t.Error("expected verification to fail for non-matching key")
		}
	})

	t.Run("returns false for malformed stored values", func(t *testing.T) {
		cases := []struct {
			name   string
			stored string
		}{
			{"empty", ""},
			{"wrong scheme", "bcrypt$aabb$ccdd"},
			{"missing parts", "scrypt$aabb"},
			{"too many parts", "scrypt$aa$bb$cc"},
			{"invalid salt hex", "scrypt$zzzz$" + strings.Repeat("ab", derivedKeyLength)},
			{"invalid hash hex", "scrypt$aabb$not-hex"},
			{"truncated hash", "scrypt$aabb$aabb"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if VerifyKey("llk_whatever", tc.stored) {
					t.Errorf("expected false for stored value %q", tc.stored)
				}
			})
		}
	})
}
