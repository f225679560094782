// ABOUTME: SQLite implementation of the Store interface using sqlx
// ABOUTME: Opens the database, owns the schema, and provides transaction helpers

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverSQLite  = "sqlite"  // modernc.org/sqlite, pure Go
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3, cgo
)

func init() {
	// sqlx only knows the mattn driver name out of the box.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Options configures Open.
type Options struct {
	Driver string // DriverSQLite (default) or DriverSQLite3
	Path   string // file path or ":memory:"
	Logger *slog.Logger
}

// SQLiteStore implements Store on top of a SQLite database.
type SQLiteStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// Open connects to the SQLite database described by opts.
// Foreign keys, WAL and a busy timeout are set on every pooled connection through the DSN.
// Open does not touch the schema; call Initialize or EnsureSchema afterwards.
func Open(ctx context.Context, opts Options) (*SQLiteStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "store")

	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	if opts.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	memory := opts.Path == ":memory:"
	if !memory {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	dsn, err := buildDSN(driver, opts.Path)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if memory {
		// Every new connection to :memory: would see its own empty database.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(4)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(time.Hour)
	}

	var fkEnabled int
	if err := db.GetContext(ctx, &fkEnabled, "PRAGMA foreign_keys"); err != nil {
		db.Close()
		return nil, storageError("open", fmt.Errorf("reading foreign_keys pragma: %w", err))
	}
	if fkEnabled != 1 {
		db.Close()
		return nil, storageError("open", fmt.Errorf("foreign key enforcement is off"))
	}

	logger.Info("SQLite store opened", "driver", driver, "path", opts.Path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// buildDSN turns a path into a driver-specific DSN carrying the connection pragmas.
func buildDSN(driver, path string) (string, error) {
	q := url.Values{}
	switch driver {
	case DriverSQLite:
		q.Add("_pragma", "foreign_keys(1)")
		q.Add("_pragma", "busy_timeout(5000)")
		if path != ":memory:" {
			q.Add("_pragma", "journal_mode(WAL)")
		}
		q.Set("_txlock", "immediate")
	case DriverSQLite3:
		q.Set("_foreign_keys", "on")
		q.Set("_busy_timeout", "5000")
		if path != ":memory:" {
			q.Set("_journal_mode", "WAL")
		}
		q.Set("_txlock", "immediate")
	default:
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
	return "file:" + path + "?" + q.Encode(), nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for diagnostics and tests.
func (s *SQLiteStore) DB() *sqlx.DB {
	return s.db
}

var dropStatements = []string{
	`DROP TABLE IF EXISTS contact_tags`,
	`DROP TABLE IF EXISTS contacts`,
	`DROP TABLE IF EXISTS tags`,
	`DROP TABLE IF EXISTS users`,
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		email           TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password        TEXT NOT NULL,
		full_name       TEXT NOT NULL,
		country_code    TEXT NOT NULL,
		whatsapp_number TEXT NOT NULL,
		created_at      TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,

		UNIQUE(country_code, whatsapp_number)
	)`,

	`CREATE TABLE IF NOT EXISTS tags (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    INTEGER NOT NULL,
		name       TEXT NOT NULL,
		color      TEXT NOT NULL DEFAULT '` + DefaultTagColor + `',
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,

		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		UNIQUE(user_id, name)
	)`,

	`CREATE TABLE IF NOT EXISTS contacts (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id         INTEGER NOT NULL,
		name            TEXT NOT NULL,
		email           TEXT,
		phone           TEXT,
		country_code    TEXT,
		whatsapp_number TEXT,
		company         TEXT,
		avatar_url      TEXT,
		notes           TEXT,
		created_at      TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at      TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,

		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS contact_tags (
		contact_id INTEGER NOT NULL,
		tag_id     INTEGER NOT NULL,
		created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,

		PRIMARY KEY (contact_id, tag_id),
		FOREIGN KEY (contact_id) REFERENCES contacts(id) ON DELETE CASCADE,
		FOREIGN KEY (tag_id) REFERENCES tags(id) ON DELETE CASCADE
	)`,

	`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
	`CREATE INDEX IF NOT EXISTS idx_users_phone ON users(country_code, whatsapp_number)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_user ON contacts(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_phone ON contacts(country_code, whatsapp_number)`,
	`CREATE INDEX IF NOT EXISTS idx_tags_user ON tags(user_id)`,
}

// Initialize drops every table and recreates the schema from scratch.
// All existing users, tags and contacts are destroyed. The drop and the
// creation run in one transaction, so a failure leaves the previous state.
func (s *SQLiteStore) Initialize(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, stmt := range dropStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%s: %w", stmt, err)
			}
		}
		return createSchema(ctx, tx)
	})
	if err != nil {
		return storageError("initialize schema", err)
	}

	s.logger.Warn("database schema re-created, all contact data was dropped")
	return nil
}

// EnsureSchema creates any missing tables and indexes without touching existing data.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		return createSchema(ctx, tx)
	})
	if err != nil {
		return storageError("ensure schema", err)
	}

	s.logger.Info("database schema ensured")
	return nil
}

func createSchema(ctx context.Context, tx *sqlx.Tx) error {
	for _, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling back
// on error or panic.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "error", rbErr, "cause", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// formatTime formats a time.Time for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a stored timestamp. Rows written by the column default use
// SQLite's CURRENT_TIMESTAMP layout instead of RFC3339.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// nullString converts an optional string to its column value.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// stringPtr converts a nullable column back to an optional string.
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

// likePattern builds a contains-pattern for LIKE, escaping the wildcard characters.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(term) + "%"
}
