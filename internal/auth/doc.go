// Package auth provides API key authentication for leanlog-gateway.
//
// # Authentication Model
//
// Every MCP request carries a bearer API key:
//
//	Authorization: Bearer llk_<random>
//
// Keys are issued out of band (leanlog-admin keys create) and stored only as
// scrypt hashes. The Authenticator verifies the presented key against every
// active hash with a constant-time comparison; a match yields the owning
// user's identity.
//
// # Request Identity
//
// A successful check attaches an AuthContext to the request context:
//
//	authCtx, ok := auth.FromContext(ctx)
//	// authCtx.UserID scopes every store operation
//	// authCtx.KeyID identifies the key for auditing
//
// Handlers that run strictly after the authentication gate can use
// MustFromContext, which panics when the identity is missing.
//
// # Failure Semantics
//
// All failures collapse to ErrUnauthenticated. The specific reason (missing
// header, wrong scheme, unknown key, revoked key, store error) is logged at
// debug level but never returned to the client, so callers cannot probe for
// valid key material.
//
// # Usage Tracking
//
// Each successful authentication updates the key's last_used_at timestamp in
// a background goroutine. Tracking failures are logged and never block or
// fail the request.
package auth
