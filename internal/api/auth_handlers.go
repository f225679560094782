// ABOUTME: HTTP handlers for signup, login, logout and the current user
// ABOUTME: Login sets the HttpOnly session cookie; logout revokes it

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/2389/coven-contacts/internal/auth"
	"github.com/2389/coven-contacts/internal/store"
)

type userSummary struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type authResponse struct {
	User    userSummary `json:"user"`
	Message string      `json:"message"`
}

type meResponse struct {
	ID             int64  `json:"id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	CountryCode    string `json:"country_code"`
	WhatsappNumber string `json:"whatsapp_number"`
}

func summarize(u *store.User) userSummary {
	return userSummary{ID: u.ID, Email: u.Email, Name: u.FullName}
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req auth.SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "No data provided")
		return
	}

	user, err := s.auth.Signup(r.Context(), req)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}

	s.sendJSON(w, http.StatusCreated, authResponse{User: summarize(user), Message: "Registration successful"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "No data provided")
		return
	}

	session, err := s.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.sendJSONError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		s.sendStoreError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(s.auth.TokenTTL() / time.Second),
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	s.sendJSON(w, http.StatusOK, authResponse{User: summarize(session.User), Message: "Login successful"})
}

// handleLogout clears the session cookie. A valid presented token is also
// revoked; logout without a session still succeeds.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.ExtractToken(r, s.opts.CookieName); token != "" {
		if id, err := s.auth.Authenticate(token); err == nil {
			s.auth.Logout(id)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.opts.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	s.sendJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id := auth.MustFromContext(r.Context())

	user, err := s.store.GetUser(r.Context(), id.UserID)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}

	s.sendJSON(w, http.StatusOK, meResponse{
		ID:             user.ID,
		Email:          user.Email,
		Name:           user.FullName,
		CountryCode:    user.CountryCode,
		WhatsappNumber: user.WhatsappNumber,
	})
}

func (s *Server) handlePasswordStrength(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "No data provided")
		return
	}
	s.sendJSON(w, http.StatusOK, auth.PasswordStrength(req.Password))
}
