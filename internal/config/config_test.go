// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML loading, env var expansion, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "0.0.0.0:8080"

database:
  path: "./test.db"

mcp:
  shutdown_grace: "30s"

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("http_addr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Database.Path != "./test.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.MCP.ShutdownGrace != 30*time.Second {
		t.Errorf("shutdown_grace = %v", cfg.MCP.ShutdownGrace)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("LEANLOG_TEST_DB", "/data/leanlog.db")
	t.Setenv("LEANLOG_TEST_TSKEY", "tskey-auth-test")

	path := writeConfig(t, `
database:
  path: "${LEANLOG_TEST_DB}"

tailscale:
  enabled: true
  hostname: "leanlog"
  auth_key: "${LEANLOG_TEST_TSKEY}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Database.Path != "/data/leanlog.db" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
	if cfg.Tailscale.AuthKey != "tskey-auth-test" {
		t.Errorf("tailscale.auth_key = %q", cfg.Tailscale.AuthKey)
	}
}

func TestLoad_UnsetEnvVarBecomesEmpty(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "localhost:8080"
database:
  path: "x${LEANLOG_TEST_DOES_NOT_EXIST}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "x" {
		t.Errorf("database.path = %q", cfg.Database.Path)
	}
}

func TestLoad_DefaultShutdownGrace(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "localhost:8080"
database:
  path: "./test.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MCP.ShutdownGrace != 10*time.Second {
		t.Errorf("default shutdown_grace = %v", cfg.MCP.ShutdownGrace)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing http addr without tailscale",
			content: `
database:
  path: "./test.db"
`,
			wantErr: "server.http_addr",
		},
		{
			name: "tailscale without hostname",
			content: `
database:
  path: "./test.db"
tailscale:
  enabled: true
`,
			wantErr: "tailscale.hostname",
		},
		{
			name: "missing database path",
			content: `
server:
  http_addr: "localhost:8080"
`,
			wantErr: "database.path",
		},
		{
			name: "tailscale covers the listener",
			content: `
database:
  path: "./test.db"
tailscale:
  enabled: true
  hostname: "leanlog"
`,
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Load: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  http_addr: "localhost:8080"
database:
  path: "./test.db"
mcp:
  shutdown_grace: "soon"
`)

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid duration")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
