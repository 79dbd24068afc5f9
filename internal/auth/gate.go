// ABOUTME: API key authentication gate for the MCP endpoint
// ABOUTME: Verifies bearer keys against stored scrypt hashes and records usage

package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/leanlog/internal/apikeys"
	"github.com/2389/leanlog/internal/store"
)

// ErrUnauthenticated is returned for any failed authentication. The reason
// (missing header, malformed key, revoked key, no match) is logged but never
// surfaced to the caller.
var ErrUnauthenticated = errors.New("authentication required")

// KeyStore is the slice of the store the gate needs.
type KeyStore interface {
	ListActiveAPIKeys(ctx context.Context) ([]*store.APIKey, error)
	TouchAPIKey(ctx context.Context, id string, usedAt time.Time) error
}

// Authenticator validates API keys presented as bearer credentials.
type Authenticator struct {
	keys   KeyStore
	logger *slog.Logger
}

// NewAuthenticator creates an Authenticator backed by the given key store.
func NewAuthenticator(keys KeyStore) *Authenticator {
	return &Authenticator{
		keys:   keys,
		logger: slog.Default().With("component", "auth"),
	}
}

// Authenticate verifies the Authorization header and returns the identity the
// key belongs to. Every failure mode collapses to ErrUnauthenticated.
//
// On success the key's last_used_at is updated in a background goroutine so
// request latency never waits on the bookkeeping write.
func (a *Authenticator) Authenticate(ctx context.Context, authHeader string) (*AuthContext, error) {
	rawKey, errMsg := extractBearerKey(authHeader)
	if errMsg != "" {
		a.logger.Debug("rejected request", "reason", errMsg)
		return nil, ErrUnauthenticated
	}

	active, err := a.keys.ListActiveAPIKeys(ctx)
	if err != nil {
		a.logger.Error("failed to load active api keys", "error", err)
		return nil, ErrUnauthenticated
	}

	for _, key := range active {
		if !apikeys.VerifyKey(rawKey, key.HashedKey) {
			continue
		}

		a.touchAsync(key.ID)
		return &AuthContext{UserID: key.UserID, KeyID: key.ID}, nil
	}

	a.logger.Debug("rejected request", "reason", "no matching key")
	return nil, ErrUnauthenticated
}

// touchAsync records key usage without blocking the request path.
func (a *Authenticator) touchAsync(keyID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.keys.TouchAPIKey(ctx, keyID, time.Now().UTC()); err != nil {
			a.logger.Warn("failed to update key last_used_at", "key_id", keyID, "error", err)
		}
	}()
}

// extractBearerKey extracts a bearer credential from the Authorization header.
// The scheme comparison is case-insensitive per RFC 7235.
// Returns the key and an error message (empty if successful).
func extractBearerKey(authHeader string) (string, string) {
	if authHeader == "" {
		return "", "missing authorization header"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "invalid authorization header format"
	}

	key := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "empty key"
	}
	return key, ""
}
