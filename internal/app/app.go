package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/komiyunity/relay-server/internal/auth"
	"github.com/komiyunity/relay-server/internal/config"
	"github.com/komiyunity/relay-server/internal/relay"
	"github.com/komiyunity/relay-server/internal/store"
	"github.com/komiyunity/relay-server/internal/store/sqlite"
	transporthttp "github.com/komiyunity/relay-server/internal/transport/http"
)

// App wires together the relay core, directory store, and transport. It is
// the single process-wide context object; nothing in the tree reaches for
// package-level state.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	lifecycle       *relay.Lifecycle
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("directory store initialized")

	verifier := auth.NewTokenVerifier([]byte(cfg.JWTSecret), cfg.JWTAudience, cfg.JWTIssuer)

	registry := relay.NewRegistry(cfg.RegistryShards)
	rooms := relay.NewRooms()
	lifecycle := relay.NewLifecycle(registry, rooms, logger)
	router := relay.NewRouter(registry, rooms, lifecycle, relay.RouterConfig{
		MaxBodyBytes:    cfg.MaxBodyBytes,
		LegacyBroadcast: cfg.LegacyBroadcast,
		IncludeSender:   cfg.IncludeSender,
	}, logger)

	server := transporthttp.NewServer(cfg, verifier, st, registry, router, lifecycle, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		lifecycle:       lifecycle,
		store:           st,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		// Stop accepting handshakes first; in-flight fan-outs finish on
		// their own, then every remaining transport is torn down.
		a.log.Info().Msg("shutting down http server")
		err := a.server.Shutdown(shutdownCtx)
		a.lifecycle.CloseAll()
		a.cleanup()
		if err != nil {
			return err
		}
		return <-serverErr
	}
}

func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
