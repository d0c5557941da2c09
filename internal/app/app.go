package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/deepblue-labs/collab-server/internal/auth"
	"github.com/deepblue-labs/collab-server/internal/config"
	"github.com/deepblue-labs/collab-server/internal/core"
	"github.com/deepblue-labs/collab-server/internal/history"
	"github.com/deepblue-labs/collab-server/internal/presence"
	transporthttp "github.com/deepblue-labs/collab-server/internal/transport/http"
)

// App wires together the coordinator, its collaborators, and the transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           presence.Store
	recorder        *history.Recorder
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg config.Config, logger *zerolog.Logger) (*App, error) {
	store, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	resolver := buildResolver(cfg, logger)

	var recorder *history.Recorder
	var sink core.ChatSink
	if cfg.HistoryPath != "" {
		recorder, err = history.New(cfg.HistoryPath, logger)
		if err != nil {
			return nil, fmt.Errorf("init history: %w", err)
		}
		sink = recorder
		logger.Info().Str("path", cfg.HistoryPath).Msg("chat history enabled")
	}

	hub := core.NewHub(store, resolver, logger, core.Options{
		SessionTTL:   cfg.SessionTTL,
		CursorTTL:    cfg.CursorTTL,
		ReapInterval: cfg.ReapInterval,
		EventBuffer:  cfg.EventBuffer,
		Sink:         sink,
	})

	server := transporthttp.NewServer(hub, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           store,
		recorder:        recorder,
		log:             logger,
	}, nil
}

func buildStore(ctx context.Context, cfg config.Config, logger *zerolog.Logger) (presence.Store, error) {
	if cfg.RedisAddr == "" {
		logger.Info().Msg("using in-process presence store")
		return presence.NewMemoryStore(), nil
	}
	store, err := presence.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("init presence store: %w", err)
	}
	logger.Info().Str("addr", cfg.RedisAddr).Msg("using redis presence store")
	return store, nil
}

func buildResolver(cfg config.Config, logger *zerolog.Logger) auth.Resolver {
	if cfg.AuthSecret == "" {
		logger.Warn().Msg("no auth secret configured, trusting declared identities")
		return auth.TrustedResolver{}
	}
	return auth.NewTokenResolver([]byte(cfg.AuthSecret), "", "")
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)
	if a.recorder != nil {
		go a.recorder.Run(ctx)
	}

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

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup releases the presence store and history resources.
func (a *App) cleanup() {
	if closer, ok := a.store.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close presence store")
		}
	}
	if a.recorder != nil {
		if err := a.recorder.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close history recorder")
		}
	}
}
