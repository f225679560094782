// Package store provides persistent storage for users, tags and contacts using SQLite.
//
// # Architecture
//
// The store is split into three interfaces, one per entity:
//
//   - UserStore: account creation and lookup by id, email or WhatsApp number
//   - TagStore: per-user tag CRUD
//   - ContactStore: contact CRUD, tag association, search and pagination
//
// SQLiteStore implements all of them on a single sqlx handle. Queries with a
// variable shape (search filters, sparse updates, IN lists) are built with
// squirrel; fixed statements are written inline.
//
// # Ownership
//
// Every tag and contact operation takes the owning user's id and scopes its
// statements by it. An entity owned by someone else is reported exactly like a
// missing one.
//
// # SQLite Configuration
//
// Connection pragmas travel in the DSN so that every pooled connection gets them:
//
//	foreign_keys(1)  busy_timeout(5000)  journal_mode(WAL)  _txlock=immediate
//
// Both modernc.org/sqlite (driver "sqlite", default) and mattn/go-sqlite3
// (driver "sqlite3") are supported. ":memory:" databases are limited to one
// connection.
//
// # Schema
//
// Initialize drops and recreates every table; it is destructive and intended
// for fresh starts and tests. EnsureSchema only creates what is missing.
//
// # Error Handling
//
// Failures are *Error values carrying one of the kind sentinels:
//
//   - ErrConflict: duplicate email, WhatsApp number or tag name
//   - ErrNotFound: missing or foreign entity
//   - ErrValidation: missing name, unknown tag ids
//   - ErrStorage: anything the database itself rejected
//
// Match kinds with errors.Is and use Message for the caller-facing text.
package store
