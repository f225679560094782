// ABOUTME: User account persistence for SQLiteStore
// ABOUTME: Email is unique case-insensitively, (country_code, whatsapp_number) is unique

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const userColumns = `id, email, password, full_name, country_code, whatsapp_number, created_at, updated_at`

type userRow struct {
	ID             int64  `db:"id"`
	Email          string `db:"email"`
	Password       string `db:"password"`
	FullName       string `db:"full_name"`
	CountryCode    string `db:"country_code"`
	WhatsappNumber string `db:"whatsapp_number"`
	CreatedAt      string `db:"created_at"`
	UpdatedAt      string `db:"updated_at"`
}

func (r *userRow) toUser() (*User, error) {
	createdAt, err := parseTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:             r.ID,
		Email:          r.Email,
		PasswordHash:   r.Password,
		FullName:       r.FullName,
		CountryCode:    r.CountryCode,
		WhatsappNumber: r.WhatsappNumber,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// CreateUser inserts a new user account.
// Returns ErrConflict if the email (any case) or the WhatsApp number is already registered.
func (s *SQLiteStore) CreateUser(ctx context.Context, email, passwordHash, fullName, countryCode, whatsappNumber string) (*User, error) {
	now := formatTime(time.Now())

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO users (email, password, full_name, country_code, whatsapp_number, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		email, passwordHash, fullName, countryCode, whatsappNumber, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, userConflict(err)
		}
		return nil, storageError("create user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, storageError("create user", fmt.Errorf("reading inserted id: %w", err))
	}

	s.logger.Info("created user", "id", id)
	return s.GetUser(ctx, id)
}

// userConflict maps a users UNIQUE violation to the key that collided.
func userConflict(err error) error {
	if strings.Contains(err.Error(), "users.email") {
		return conflictError("create user", "email already registered")
	}
	return conflictError("create user", "WhatsApp number already registered")
}

// GetUser retrieves a user by ID.
// Returns ErrNotFound if the user doesn't exist.
func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*User, error) {
	return s.getUser(ctx, "get user", `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// FindUserByEmail retrieves a user by email, ignoring case.
// Returns ErrNotFound if no user has that email.
func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	return s.getUser(ctx, "find user by email",
		`SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
}

// FindUserByPhone retrieves a user by exact country code and WhatsApp number.
// Returns ErrNotFound if no user has that number.
func (s *SQLiteStore) FindUserByPhone(ctx context.Context, countryCode, whatsappNumber string) (*User, error) {
	return s.getUser(ctx, "find user by phone",
		`SELECT `+userColumns+` FROM users WHERE country_code = ? AND whatsapp_number = ?`,
		countryCode, whatsappNumber)
}

func (s *SQLiteStore) getUser(ctx context.Context, op, query string, args ...any) (*User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFoundError(op, "user not found")
	}
	if err != nil {
		return nil, storageError(op, err)
	}

	user, err := row.toUser()
	if err != nil {
		return nil, storageError(op, err)
	}
	return user, nil
}
