// ABOUTME: MCP-compatible HTTP endpoint for external agents like Claude Code.
// ABOUTME: Dispatches JSON-RPC 2.0 tool calls onto the ownership-checked store.

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/leanlog/internal/auth"
	"github.com/2389/leanlog/internal/store"
)

// protocolVersion is the MCP protocol revision advertised in initialize responses.
const protocolVersion = "2025-03-26"

// serverVersion is reported in the initialize serverInfo block.
const serverVersion = "1.0.0"

// MaxRequestBodySize is the maximum allowed size for request bodies (1MB).
const MaxRequestBodySize = 1 << 20

// JSON-RPC 2.0 types

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes, plus the server's unauthenticated extension.
const (
	JSONRPCParseError      = -32700
	JSONRPCInvalidRequest  = -32600
	JSONRPCMethodNotFound  = -32601
	JSONRPCInvalidParams   = -32602
	JSONRPCInternalError   = -32603
	JSONRPCUnauthenticated = -32001
)

// MCP-specific types

// MCPToolInfo represents an MCP tool definition.
type MCPToolInfo struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// MCPListToolsResult is the result for tools/list.
type MCPListToolsResult struct {
	Tools []MCPToolInfo `json:"tools"`
}

// MCPCallToolParams are the params for tools/call.
type MCPCallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// MCPCallToolResult is the result for tools/call.
type MCPCallToolResult struct {
	Content []MCPContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

// MCPContent represents content in a tool result.
type MCPContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// DataStore is the slice of the store the tool handlers need.
type DataStore interface {
	store.NutritionStore
	store.WeightStore
}

// Config holds configuration for the MCP server.
type Config struct {
	Store         DataStore
	Authenticator *auth.Authenticator
	Logger        *slog.Logger
	ServerName    string // reported in initialize; defaults to "leanlog-gateway"
}

// Server implements the MCP endpoint for external agents. Every request is
// authenticated with an API key before any method dispatch happens.
type Server struct {
	store       DataStore
	gate        *auth.Authenticator
	logger      *slog.Logger
	serverName  string
	tools       []toolDef
	toolsByName map[string]*toolDef
}

// NewServer creates a new MCP server with the given configuration.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Authenticator == nil {
		return nil, errors.New("authenticator is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default().With("component", "mcp")
	}

	name := cfg.ServerName
	if name == "" {
		name = "leanlog-gateway"
	}

	s := &Server{
		store:      cfg.Store,
		gate:       cfg.Authenticator,
		logger:     logger,
		serverName: name,
	}
	s.tools = s.buildToolCatalog()
	s.toolsByName = make(map[string]*toolDef, len(s.tools))
	for i := range s.tools {
		s.toolsByName[s.tools[i].Name] = &s.tools[i]
	}
	return s, nil
}

// RegisterRoutes registers the MCP endpoint on the given ServeMux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/mcp/messages", s.handleMessages)
}

// legacyMethods maps older flat-namespaced method names onto catalog tools.
// The flat convention predates the tools/call envelope; it survives only as
// this translation table so there is a single handler path.
var legacyMethods = map[string]string{
	"entries.update":     "entries_update",
	"entries.delete":     "entries_delete",
	"entries.bulkAdd":    "entries_bulkAdd",
	"entries.bulkDelete": "entries_bulkDelete",
}

// handleMessages processes JSON-RPC messages sent via HTTP POST.
//
// Authentication happens before any parsing of the method: a bad or missing
// key gets HTTP 401 with a -32001 error body. Everything after that point
// follows the JSON-RPC convention of HTTP 200 with an embedded error object.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	authCtx, err := s.gate.Authenticate(r.Context(), r.Header.Get("Authorization"))
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		s.writeResponse(w, JSONRPCResponse{
			JSONRPC: "2.0",
			Error:   &JSONRPCError{Code: JSONRPCUnauthenticated, Message: "authentication required"},
		})
		return
	}
	ctx := auth.WithAuth(r.Context(), authCtx)

	body, err := io.ReadAll(io.LimitReader(r.Body, MaxRequestBodySize+1))
	if err != nil {
		s.sendJSONRPCError(w, nil, JSONRPCParseError, "failed to read request body", nil)
		return
	}
	if int64(len(body)) > MaxRequestBodySize {
		s.sendJSONRPCError(w, nil, JSONRPCInvalidRequest, "request body too large", nil)
		return
	}

	var req JSONRPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.sendJSONRPCError(w, nil, JSONRPCParseError, "invalid JSON", nil)
		return
	}

	if req.JSONRPC != "2.0" {
		s.sendJSONRPCError(w, req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version", nil)
		return
	}

	isNotification := len(req.ID) == 0 || string(req.ID) == "null"

	s.logger.Debug("MCP request",
		"method", req.Method,
		"user_id", authCtx.UserID,
		"is_notification", isNotification,
	)

	// Notifications get accepted and dropped: HTTP 202 with no body.
	if isNotification {
		if !strings.HasPrefix(req.Method, "notifications/") {
			s.logger.Warn("received notification for non-notification method", "method", req.Method)
		}
		w.WriteHeader(http.StatusAccepted)
		return
	}

	switch req.Method {
	case "initialize":
		s.handleInitialize(w, req)
	case "tools/list":
		s.handleToolsList(w, req)
	case "tools/call":
		s.handleToolsCall(ctx, w, req)
	default:
		if toolName, ok := legacyMethods[req.Method]; ok {
			s.dispatchTool(ctx, w, req.ID, toolName, req.Params)
			return
		}
		s.sendJSONRPCError(w, req.ID, JSONRPCMethodNotFound, "method not found", nil)
	}
}

// handleInitialize handles the MCP initialize handshake.
func (s *Server) handleInitialize(w http.ResponseWriter, req JSONRPCRequest) {
	result := map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    s.serverName,
			"version": serverVersion,
		},
	}
	s.sendJSONRPCResult(w, req.ID, result)
}

// handleToolsList returns the static tool catalog.
func (s *Server) handleToolsList(w http.ResponseWriter, req JSONRPCRequest) {
	result := MCPListToolsResult{
		Tools: make([]MCPToolInfo, len(s.tools)),
	}
	for i, tool := range s.tools {
		result.Tools[i] = MCPToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}
	}

	s.logger.Debug("tools/list", "count", len(s.tools))
	s.sendJSONRPCResult(w, req.ID, result)
}

// handleToolsCall handles tools/call requests.
func (s *Server) handleToolsCall(ctx context.Context, w http.ResponseWriter, req JSONRPCRequest) {
	var params MCPCallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			s.sendJSONRPCError(w, req.ID, JSONRPCInvalidParams, "invalid params", nil)
			return
		}
	}

	if params.Name == "" {
		s.sendJSONRPCError(w, req.ID, JSONRPCInvalidParams, "tool name is required", nil)
		return
	}

	s.dispatchTool(ctx, w, req.ID, params.Name, params.Arguments)
}

// dispatchTool resolves a tool by name, runs its handler, and wraps the result
// in an MCP content envelope. Both the tools/call path and the legacy flat
// methods funnel through here.
func (s *Server) dispatchTool(ctx context.Context, w http.ResponseWriter, id json.RawMessage, toolName string, args json.RawMessage) {
	tool, ok := s.toolsByName[toolName]
	if !ok {
		s.sendJSONRPCError(w, id, JSONRPCMethodNotFound, "tool not found", nil)
		return
	}

	if len(args) == 0 || string(args) == "null" {
		args = json.RawMessage("{}")
	}

	userID := auth.MustFromContext(ctx).UserID

	result, err := tool.Handler(ctx, userID, args)
	if err != nil {
		s.sendToolError(w, id, toolName, err)
		return
	}

	text, err := json.Marshal(result)
	if err != nil {
		s.logger.Error("failed to marshal tool result", "tool_name", toolName, "error", err)
		s.sendJSONRPCError(w, id, JSONRPCInternalError, "failed to serialize result", nil)
		return
	}

	s.logger.Debug("tool call complete", "tool_name", toolName, "user_id", userID)
	s.sendJSONRPCResult(w, id, MCPCallToolResult{
		Content: []MCPContent{{Type: "text", Text: string(text)}},
	})
}

// sendToolError maps store errors onto JSON-RPC error codes. Validation
// failures are the caller's fault; everything else (including the opaque
// not-authorized collapse) reports as an internal error with a terse message.
func (s *Server) sendToolError(w http.ResponseWriter, id json.RawMessage, toolName string, err error) {
	s.logger.Warn("tool call failed", "tool_name", toolName, "error", err)

	switch {
	case errors.Is(err, store.ErrInvalidArgument), errors.Is(err, store.ErrInvalidDate):
		s.sendJSONRPCError(w, id, JSONRPCInvalidParams, err.Error(), nil)
	case errors.Is(err, store.ErrNotAuthorized):
		s.sendJSONRPCError(w, id, JSONRPCInternalError, "not authorized", nil)
	case errors.Is(err, context.DeadlineExceeded):
		s.sendJSONRPCError(w, id, JSONRPCInternalError, "request timed out", nil)
	case errors.Is(err, context.Canceled):
		s.sendJSONRPCError(w, id, JSONRPCInternalError, "request cancelled", nil)
	default:
		s.sendJSONRPCError(w, id, JSONRPCInternalError, "tool execution failed", nil)
	}
}

// sendJSONRPCResult sends a successful JSON-RPC response.
func (s *Server) sendJSONRPCResult(w http.ResponseWriter, id json.RawMessage, result any) {
	s.writeResponse(w, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

// sendJSONRPCError sends a JSON-RPC error response.
func (s *Server) sendJSONRPCError(w http.ResponseWriter, id json.RawMessage, code int, message string, data any) {
	s.writeResponse(w, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

func (s *Server) writeResponse(w http.ResponseWriter, resp JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Warn("failed to encode JSON-RPC response", "error", err)
	}
}
