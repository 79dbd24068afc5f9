// Package config handles configuration loading for leanlog-gateway.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable expansion.
// The package provides validation and sensible defaults.
//
// # Configuration File
//
// Default locations (in order):
//
//  1. Path from LEANLOG_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/leanlog/gateway.yaml
//  3. ~/.config/leanlog/gateway.yaml
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	tailscale:
//	  auth_key: "${TS_AUTHKEY}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "localhost:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/leanlog/leanlog.db"
//
// Tailscale:
//
//	tailscale:
//	  enabled: false
//	  hostname: "leanlog"
//	  auth_key: "${TS_AUTHKEY}"
//	  ephemeral: false
//	  funnel: false
//	  cert_file: ""
//	  key_file: ""
//
// MCP endpoint tuning:
//
//	mcp:
//	  shutdown_grace: "10s"
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - http_addr is set unless Tailscale serving is enabled
//   - Tailscale hostname is set when Tailscale is enabled
//   - database.path is set
//   - Duration format validity
//
// # Usage
//
//	cfg, err := config.Load("/etc/leanlog/gateway.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
