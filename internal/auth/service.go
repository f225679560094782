// ABOUTME: Account signup, login, token authentication and logout
// ABOUTME: Validates requests with validator/v10 and enforces email and WhatsApp uniqueness

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/2389/coven-contacts/internal/store"
)

// ErrInvalidCredentials is returned by Login for an unknown email or a wrong password.
var ErrInvalidCredentials = errors.New("invalid email or password")

// validate is a shared validator instance for request validation.
var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}()

// Revoker records token ids that must no longer authenticate.
type Revoker interface {
	Revoke(tokenID string, until time.Time)
	IsRevoked(tokenID string) bool
}

// Config holds the auth settings injected at startup.
type Config struct {
	Secret   []byte
	TokenTTL time.Duration
	Issuer   string
}

// SignupRequest is the account registration payload.
type SignupRequest struct {
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	FullName       string `json:"fullName" validate:"required"`
	CountryCode    string `json:"countryCode" validate:"required"`
	WhatsappNumber string `json:"whatsappNumber" validate:"required"`
}

// LoginRequest carries user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Session is the result of a successful login.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      *store.User
}

// Service authenticates users against the user store.
type Service struct {
	users   store.UserStore
	tokens  *JWTVerifier
	revoked Revoker
	logger  *slog.Logger
}

// NewService creates an auth service. revoked may be nil, in which case logout
// only clears the client cookie.
func NewService(cfg Config, users store.UserStore, revoked Revoker, logger *slog.Logger) (*Service, error) {
	tokens, err := NewJWTVerifier(cfg.Secret, cfg.TokenTTL, cfg.Issuer)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		logger:  logger.With("component", "auth"),
	}, nil
}

// TokenTTL returns the lifetime of issued session tokens.
func (s *Service) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// Signup registers a new account.
// Returns a store.ErrValidation error for malformed input and store.ErrConflict
// when the email or WhatsApp number is taken.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*store.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.CountryCode = strings.TrimSpace(req.CountryCode)
	req.WhatsappNumber = strings.TrimSpace(req.WhatsappNumber)

	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	_, err := s.users.FindUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, &store.Error{Kind: store.ErrConflict, Op: "signup", Message: "User already exists"}
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("checking email: %w", err)
	}

	_, err = s.users.FindUserByPhone(ctx, req.CountryCode, req.WhatsappNumber)
	switch {
	case err == nil:
		return nil, &store.Error{Kind: store.ErrConflict, Op: "signup", Message: "WhatsApp number already registered"}
	case !errors.Is(err, store.ErrNotFound):
		return nil, fmt.Errorf("checking whatsapp number: %w", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	// The store still enforces uniqueness if a concurrent signup won the race.
	user, err := s.users.CreateUser(ctx, req.Email, hash, req.FullName, req.CountryCode, req.WhatsappNumber)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return user, nil
}

// Login checks credentials and issues a session token.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	if err := validate.Struct(req); err != nil {
		return nil, &store.Error{Kind: store.ErrValidation, Op: "login", Message: "Missing required fields"}
	}

	user, err := s.users.FindUserByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Do a dummy bcrypt comparison to maintain constant timing
			_ = CheckPassword(dummyHash, req.Password)
			s.logger.Debug("login failed", "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	if !CheckPassword(user.PasswordHash, req.Password) {
		s.logger.Debug("login failed", "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	token, claims, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("login successful", "user_id", user.ID)
	return &Session{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
		User:      user,
	}, nil
}

// Authenticate verifies a session token and returns the caller's identity.
func (s *Service) Authenticate(token string) (*Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if s.revoked != nil && s.revoked.IsRevoked(claims.ID) {
		return nil, ErrRevokedToken
	}
	return &Identity{
		UserID:    claims.UserID,
		Email:     claims.Email,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Logout revokes the identity's token until it would have expired anyway.
func (s *Service) Logout(id *Identity) {
	if id == nil || s.revoked == nil {
		return
	}
	s.revoked.Revoke(id.TokenID, id.ExpiresAt)
	s.logger.Info("logout", "user_id", id.UserID)
}

// formatValidationError converts the first validator failure into a store
// validation error with the message shown to API callers.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return &store.Error{Kind: store.ErrValidation, Op: "signup", Message: "Invalid request", Err: err}
	}

	e := validationErrs[0]
	var msg string
	switch e.Tag() {
	case "required":
		msg = "Missing required fields"
	case "email":
		msg = "Invalid email format"
	case "min":
		if e.Field() == "password" {
			msg = fmt.Sprintf("Password must be at least %d characters", MinPasswordLength)
		} else {
			msg = fmt.Sprintf("%s must be at least %s characters", e.Field(), e.Param())
		}
	default:
		msg = fmt.Sprintf("%s is invalid", e.Field())
	}
	return &store.Error{Kind: store.ErrValidation, Op: "signup", Message: msg}
}
