// Package config handles configuration loading for coven-contacts.
//
// # Overview
//
// Configuration is loaded from a YAML or TOML file with environment variable
// expansion. Defaults are applied first, so a file only has to name what it
// changes. The result is one explicitly passed *Config value.
//
// # Configuration File
//
// Locations (in order):
//
//  1. The --config flag
//  2. Path from COVEN_CONTACTS_CONFIG environment variable
//  3. ~/.config/coven/contacts.yaml
//
// Files ending in .toml are parsed as TOML; everything else as YAML.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${COVEN_JWT_SECRET}"
//
// The CLI loads a .env file from the working directory before reading the
// config, without overriding variables that are already set.
//
// # Configuration Sections
//
//	environment: "development"      # development, production (Secure cookies)
//
//	server:
//	  http_addr: ":5000"
//
//	database:
//	  driver: "sqlite"              # sqlite (pure Go) or sqlite3 (cgo)
//	  path: "/var/lib/coven/contacts.db"
//	  reset_on_start: true          # drops all data on every serve
//
//	auth:
//	  jwt_secret: "${COVEN_JWT_SECRET}"
//	  token_ttl: "24h"
//	  cookie_name: "token"
//	  issuer: ""
//
//	cors:
//	  allowed_origins: ["http://localhost:3000"]
//
//	ratelimit:
//	  auth_rps: 1
//	  auth_burst: 10
//
//	tailscale:
//	  enabled: false
//	  hostname: "contacts"
//	  auth_key: "${TS_AUTHKEY}"
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Validation
//
// Load() validates:
//
//   - JWT secret minimum length (16 bytes)
//   - Database path presence and driver name
//   - Environment name
//   - Duration format validity
//   - An HTTP address or a Tailscale hostname
package config
