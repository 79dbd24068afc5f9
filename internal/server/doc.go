// Package server orchestrates the leanlog-gateway components.
//
// # Overview
//
// The server package wires together the data store, the authentication gate,
// and the MCP endpoint, and owns the HTTP listener lifecycle.
//
// # Listeners
//
// Depending on configuration the server listens on:
//
//   - A plain TCP address (server.http_addr)
//   - A Tailscale tsnet node on port 80
//   - A Tailscale tsnet node with TLS on port 443 (cert_file + key_file)
//   - A public Tailscale Funnel on port 443 (funnel: true)
//
// # Endpoints
//
//   - POST /api/mcp/messages - MCP JSON-RPC endpoint
//   - GET /health - Liveness check
//   - GET /health/ready - Readiness check (probes the database)
//
// # Lifecycle
//
//	srv, err := server.New(cfg, logger)
//	err = srv.Run(ctx)
//
// Run blocks until the context is canceled or the listener fails, then
// shuts down gracefully within mcp.shutdown_grace.
package server
