// ABOUTME: Error taxonomy shared by the store and its callers
// ABOUTME: Kind sentinels (conflict, not found, validation, storage) plus a typed Error

package store

import (
	"errors"
	"fmt"
	"strings"
)

// Kind sentinels. Match them with errors.Is.
var (
	// ErrConflict is returned when a uniqueness constraint would be violated.
	ErrConflict = errors.New("conflict")

	// ErrNotFound is returned when an entity does not exist or is not owned by the caller.
	// The two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when input is missing a required field or is malformed.
	ErrValidation = errors.New("validation failed")

	// ErrStorage is returned when the underlying database fails.
	ErrStorage = errors.New("storage failure")
)

// Error is a store failure with a user-facing message.
// Message is safe to show to API callers; Err carries internal detail.
type Error struct {
	Kind    error  // one of the Err* sentinels above
	Op      string // operation that failed, e.g. "create tag"
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the kind sentinel of this error.
func (e *Error) Is(target error) bool { return e.Kind == target }

func conflictError(op, msg string) error {
	return &Error{Kind: ErrConflict, Op: op, Message: msg}
}

func notFoundError(op, msg string) error {
	return &Error{Kind: ErrNotFound, Op: op, Message: msg}
}

func validationError(op, msg string) error {
	return &Error{Kind: ErrValidation, Op: op, Message: msg}
}

func storageError(op string, err error) error {
	return &Error{Kind: ErrStorage, Op: op, Message: "database error", Err: err}
}

// Message returns the user-facing message carried by err, or fallback when err
// is not a store error.
func Message(err error, fallback string) string {
	var se *Error
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}

// isUniqueConstraintError reports whether err is a SQLite UNIQUE or PRIMARY KEY violation.
// Both modernc.org/sqlite and mattn/go-sqlite3 surface the engine text.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// isForeignKeyError reports whether err is a SQLite FOREIGN KEY violation.
func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
