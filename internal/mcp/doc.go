// Package mcp implements the Model Context Protocol server for external tool access.
//
// # Overview
//
// MCP (Model Context Protocol) is a standard for AI tool integration. This
// package exposes leanlog's nutrition and weight tracking operations as MCP
// tools so external AI clients (Claude Desktop, other LLMs, custom
// applications) can log food and weight on a user's behalf.
//
// # Protocol
//
// The server speaks JSON-RPC 2.0 over HTTP:
//
//   - POST /api/mcp/messages - initialize, tools/list, tools/call
//
// Notifications (requests without an id) are acknowledged with HTTP 202 and
// an empty body. All other protocol and tool errors are returned as JSON-RPC
// error objects with HTTP 200, except authentication failures which use
// HTTP 401 with code -32001.
//
// # Authentication
//
// Every request requires a bearer API key:
//
//	Authorization: Bearer llk_<key>
//
// The key resolves to a user ID, and every tool call is scoped to that
// user's data.
//
// # Tool Catalog
//
// Thirteen tools cover weight tracking (weight_get_latest, weight_create,
// weight_list_recent, weight_delete), meal templates (meals_list), history
// (history_day_summaries), and meal entries (entries_get_or_create_day_log,
// entries_add, entries_list_by_day, entries_update, entries_delete,
// entries_bulkAdd, entries_bulkDelete). Each tool publishes a JSON Schema
// for its arguments via tools/list.
//
// Legacy flat method names (entries.update, entries.delete, entries.bulkAdd,
// entries.bulkDelete) are accepted at the JSON-RPC level and dispatched to
// the matching tool.
//
// # Usage
//
//	srv := mcp.NewServer(mcp.Config{
//	    Store:         st,
//	    Authenticator: gate,
//	    Logger:        logger,
//	})
//	srv.RegisterRoutes(mux)
package mcp
