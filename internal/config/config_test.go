// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, defaults, env var expansion, and validation

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidYAML(t *testing.T) {
	path := writeConfig(t, "contacts.yaml", `
environment: "production"

server:
  http_addr: "0.0.0.0:8080"

database:
  driver: "sqlite3"
  path: "./test.db"
  reset_on_start: false

auth:
  jwt_secret: "0123456789abcdef0123"
  token_ttl: "2h"
  issuer: "contacts"

cors:
  allowed_origins:
    - "https://app.example.com"

ratelimit:
  auth_rps: 5
  auth_burst: 20

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != "0.0.0.0:8080" {
		t.Errorf("HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Database.Driver != "sqlite3" || cfg.Database.Path != "./test.db" {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Database.ResetOnStart {
		t.Error("ResetOnStart should be false when set explicitly")
	}
	if cfg.Auth.TokenTTL != 2*time.Hour {
		t.Errorf("TokenTTL = %v, want 2h", cfg.Auth.TokenTTL)
	}
	if cfg.Auth.Issuer != "contacts" {
		t.Errorf("Issuer = %q", cfg.Auth.Issuer)
	}
	if cfg.Auth.CookieName != "token" {
		t.Errorf("CookieName = %q, want default token", cfg.Auth.CookieName)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "https://app.example.com" {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.RateLimit.AuthRPS != 5 || cfg.RateLimit.AuthBurst != 20 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if !cfg.CookieSecure() {
		t.Error("CookieSecure() should be true in production")
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "contacts.yaml", `
database:
  path: "./test.db"
auth:
  jwt_secret: "0123456789abcdef"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Environment != EnvDevelopment {
		t.Errorf("Environment = %q, want development", cfg.Environment)
	}
	if cfg.Server.HTTPAddr != ":5000" {
		t.Errorf("HTTPAddr = %q, want :5000", cfg.Server.HTTPAddr)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if !cfg.Database.ResetOnStart {
		t.Error("ResetOnStart should default to true")
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 1 || cfg.CORS.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
	if cfg.RateLimit.AuthRPS != 1 || cfg.RateLimit.AuthBurst != 10 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q", cfg.Logging.Level)
	}
	if cfg.CookieSecure() {
		t.Error("CookieSecure() should be false in development")
	}
}

func TestLoad_TOML(t *testing.T) {
	path := writeConfig(t, "contacts.toml", `
environment = "development"

[server]
http_addr = ":9000"

[database]
path = "./toml.db"
reset_on_start = false

[auth]
jwt_secret = "toml-secret-0123456789"
token_ttl = "30m"

[cors]
allowed_origins = ["http://a.test", "http://b.test"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTPAddr != ":9000" {
		t.Errorf("HTTPAddr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Database.Path != "./toml.db" || cfg.Database.ResetOnStart {
		t.Errorf("Database = %+v", cfg.Database)
	}
	if cfg.Auth.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v, want 30m", cfg.Auth.TokenTTL)
	}
	if len(cfg.CORS.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_CONTACTS_SECRET", "from-the-environment-123")
	t.Setenv("TEST_CONTACTS_DB", "/tmp/env.db")

	path := writeConfig(t, "contacts.yaml", `
database:
  path: "${TEST_CONTACTS_DB}"
auth:
  jwt_secret: "${TEST_CONTACTS_SECRET}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.JWTSecret != "from-the-environment-123" {
		t.Errorf("JWTSecret = %q", cfg.Auth.JWTSecret)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing database path",
			content: "auth:\n  jwt_secret: \"0123456789abcdef\"\n",
			wantErr: "database.path is required",
		},
		{
			name:    "short secret",
			content: "database:\n  path: x.db\nauth:\n  jwt_secret: short\n",
			wantErr: "auth.jwt_secret must be at least",
		},
		{
			name:    "bad driver",
			content: "database:\n  path: x.db\n  driver: postgres\nauth:\n  jwt_secret: \"0123456789abcdef\"\n",
			wantErr: "database.driver",
		},
		{
			name:    "bad environment",
			content: "environment: staging\ndatabase:\n  path: x.db\nauth:\n  jwt_secret: \"0123456789abcdef\"\n",
			wantErr: "environment must be",
		},
		{
			name:    "bad duration",
			content: "database:\n  path: x.db\nauth:\n  jwt_secret: \"0123456789abcdef\"\n  token_ttl: soon\n",
			wantErr: "parsing token_ttl",
		},
		{
			name:    "tailscale without hostname",
			content: "tailscale:\n  enabled: true\ndatabase:\n  path: x.db\nauth:\n  jwt_secret: \"0123456789abcdef\"\n",
			wantErr: "tailscale.hostname is required",
		},
		{
			name:    "invalid yaml",
			content: "server: [unclosed",
			wantErr: "parsing config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "contacts.yaml", tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() should have failed")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() should fail for a missing file")
	}
}

func TestValidate_TailscaleWithoutHTTPAddr(t *testing.T) {
	cfg := Default()
	cfg.Server.HTTPAddr = ""
	cfg.Tailscale.Enabled = true
	cfg.Tailscale.Hostname = "contacts"
	cfg.Database.Path = "x.db"
	cfg.Auth.JWTSecret = "0123456789abcdef"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	cfg.Tailscale.Enabled = false
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should require http_addr without tailscale")
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/coven/from-env.yaml")

	if got := ResolvePath("/explicit.yaml"); got != "/explicit.yaml" {
		t.Errorf("ResolvePath(flag) = %q", got)
	}
	if got := ResolvePath(""); got != "/etc/coven/from-env.yaml" {
		t.Errorf("ResolvePath(env) = %q", got)
	}

	t.Setenv(EnvConfigPath, "")
	if got := ResolvePath(""); !strings.HasSuffix(got, filepath.Join("coven", "contacts.yaml")) && got != "contacts.yaml" {
		t.Errorf("ResolvePath(default) = %q", got)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("EXPAND_ME", "value")

	if got := expandEnvVars("a ${EXPAND_ME} b ${DEFINITELY_UNSET_VAR_XYZ}"); got != "a value b " {
		t.Errorf("expandEnvVars() = %q", got)
	}
}
