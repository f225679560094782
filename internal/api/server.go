// ABOUTME: HTTP server wiring for the contacts API
// ABOUTME: Builds the chi router, middleware stack and route table

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/2389/coven-contacts/internal/auth"
	"github.com/2389/coven-contacts/internal/ratelimit"
	"github.com/2389/coven-contacts/internal/store"
)

// AuthService is the account and session behavior the handlers need.
type AuthService interface {
	Signup(ctx context.Context, req auth.SignupRequest) (*store.User, error)
	Login(ctx context.Context, req auth.LoginRequest) (*auth.Session, error)
	Authenticate(token string) (*auth.Identity, error)
	Logout(id *auth.Identity)
	TokenTTL() time.Duration
}

// Options configures the HTTP surface.
type Options struct {
	CookieName     string
	CookieSecure   bool // set the Secure attribute on the session cookie
	AllowedOrigins []string
	AuthRPS        float64 // login/signup requests per second per client; 0 disables limiting
	AuthBurst      int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    store.Store
	auth     AuthService
	opts     Options
	limiter  *ratelimit.KeyedRateLimiter
	markdown goldmark.Markdown
	router   *chi.Mux
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, authSvc AuthService, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CookieName == "" {
		opts.CookieName = "token"
	}

	s := &Server{
		store: st,
		auth:  authSvc,
		opts:  opts,
		// Raw HTML in notes is omitted, not rendered.
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		router:   chi.NewRouter(),
		logger:   logger.With("component", "api"),
	}
	if opts.AuthRPS > 0 {
		s.limiter = ratelimit.New(opts.AuthRPS, opts.AuthBurst, 0)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Stop()
	}
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if s.limiter != nil {
					r.Use(s.limiter.Middleware)
				}
				r.Post("/signup", s.handleSignup)
				r.Post("/login", s.handleLogin)
			})
			r.Post("/logout", s.handleLogout)
			r.Post("/password-strength", s.handlePasswordStrength)
			r.With(s.requireAuth).Get("/me", s.handleMe)
		})

		r.Route("/tags", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListTags)
			r.Post("/", s.handleCreateTag)
			r.Put("/{id}", s.handleUpdateTag)
			r.Delete("/{id}", s.handleDeleteTag)
		})

		r.Route("/contacts", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleListContacts)
			r.Post("/", s.handleCreateContact)
			r.Get("/{id}", s.handleGetContact)
			r.Put("/{id}", s.handleUpdateContact)
			r.Delete("/{id}", s.handleDeleteContact)
		})
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.sendJSONError(w, http.StatusNotFound, "Not found")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.sendJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// requireAuth rejects unauthenticated requests and attaches the caller's identity.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return auth.HTTPAuthMiddleware(s.auth, s.opts.CookieName)(next)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
