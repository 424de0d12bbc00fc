// Package app wires together the store, auth, blob, chat and transport
// layers.
package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gatechat/gatechat-server/internal/auth"
	"github.com/gatechat/gatechat-server/internal/blob"
	"github.com/gatechat/gatechat-server/internal/chat"
	"github.com/gatechat/gatechat-server/internal/config"
	"github.com/gatechat/gatechat-server/internal/payment"
	"github.com/gatechat/gatechat-server/internal/store"
	"github.com/gatechat/gatechat-server/internal/store/sqlite"
	transporthttp "github.com/gatechat/gatechat-server/internal/transport/http"
)

// App owns the long-lived resources of the server process.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	relay           *blob.JetStreamRelay
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(ctx context.Context, cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")

	relay, err := blob.NewJetStreamRelay(ctx, cfg.Blob.NATSURL, cfg.Blob.Bucket, cfg.Blob.PublicBaseURL)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init blob relay: %w", err)
	}
	logger.Info().Str("bucket", cfg.Blob.Bucket).Msg("blob relay connected")

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	}
	authService := auth.NewService(st, jwtConfig)
	payments := payment.NewVerifier(cfg.PaymentSecret)
	session := chat.NewSession(authService, st, relay, logger, cfg.HistoryLimit)

	server := transporthttp.NewServer(session, authService, st, relay, payments, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		relay:           relay,
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

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the database and the blob relay connection.
func (a *App) cleanup() {
	if a.relay != nil {
		a.relay.Close()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
