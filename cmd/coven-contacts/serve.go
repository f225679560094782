// ABOUTME: The serve and reset-db commands
// ABOUTME: Wires config, store, auth and the API router, then serves until signalled

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/fatih/color"

	"github.com/2389/coven-contacts/internal/api"
	"github.com/2389/coven-contacts/internal/auth"
	"github.com/2389/coven-contacts/internal/config"
	"github.com/2389/coven-contacts/internal/revoke"
	"github.com/2389/coven-contacts/internal/store"
)

const (
	shutdownTimeout = 10 * time.Second

	// Revoked token ids are held until their tokens expire.
	revokeListSize  = 10000
	revokeListSweep = time.Minute
)

func runServe(ctx context.Context, configFlag string) error {
	configPath := config.ResolvePath(configFlag)

	// Print banner
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)
	printStartup(cfg, configPath)

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	revoked := revoke.New(revokeListSize, revokeListSweep)
	defer revoked.Close()

	authSvc, err := auth.NewService(auth.Config{
		Secret:   []byte(cfg.Auth.JWTSecret),
		TokenTTL: cfg.Auth.TokenTTL,
		Issuer:   cfg.Auth.Issuer,
	}, st, revoked, logger)
	if err != nil {
		return fmt.Errorf("creating auth service: %w", err)
	}

	srv := api.NewServer(st, authSvc, api.Options{
		CookieName:     cfg.Auth.CookieName,
		CookieSecure:   cfg.CookieSecure(),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AuthRPS:        cfg.RateLimit.AuthRPS,
		AuthBurst:      cfg.RateLimit.AuthBurst,
	}, logger)
	defer srv.Close()

	ln, closeListener, err := listen(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeListener()

	httpServer := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", ln.Addr().String())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func runResetDB(ctx context.Context, configFlag string) error {
	cfg, err := config.Load(config.ResolvePath(configFlag))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := setupLogger(cfg.Logging)

	st, err := store.Open(ctx, store.Options{Driver: cfg.Database.Driver, Path: cfg.Database.Path, Logger: logger})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()

	if err := st.Initialize(ctx); err != nil {
		return fmt.Errorf("resetting database: %w", err)
	}

	color.New(color.FgGreen).Print("    ✓ ")
	fmt.Printf("Database reset: %s\n", cfg.Database.Path)
	return nil
}

// openStore opens the database and prepares its schema. With reset_on_start
// every table is dropped and re-created.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store.SQLiteStore, error) {
	st, err := store.Open(ctx, store.Options{Driver: cfg.Database.Driver, Path: cfg.Database.Path, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if cfg.Database.ResetOnStart {
		logger.Warn("reset_on_start is enabled, dropping all data", "path", cfg.Database.Path)
		err = st.Initialize(ctx)
	} else {
		err = st.EnsureSchema(ctx)
	}
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return st, nil
}

// listen returns the HTTP listener: a tailnet listener when tailscale is
// enabled, otherwise a plain TCP listener on server.http_addr.
func listen(ctx context.Context, cfg *config.Config, logger *slog.Logger) (net.Listener, func(), error) {
	if cfg.Tailscale.Enabled {
		return listenTailscale(ctx, cfg.Tailscale, logger)
	}

	ln, err := net.Listen("tcp", cfg.Server.HTTPAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("listening on %s: %w", cfg.Server.HTTPAddr, err)
	}
	return ln, func() { _ = ln.Close() }, nil
}

func printStartup(cfg *config.Config, configPath string) {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s (%s)", cfg.Database.Path, cfg.Database.Driver)
	if cfg.Database.ResetOnStart {
		yellow.Print(" [reset on start]")
	}
	fmt.Println()

	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	} else {
		green.Print("    ▶ ")
		fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	}

	green.Print("    ▶ ")
	fmt.Printf("Mode:      %s\n", cfg.Environment)
	fmt.Println()
}
