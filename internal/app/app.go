package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-relay/internal/cluster"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/core"
	"github.com/vovakirdan/wirechat-relay/internal/metrics"
	transporthttp "github.com/vovakirdan/wirechat-relay/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	dispatcher      *core.Dispatcher
	relay           *cluster.Relay
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg config.Config, logger *zerolog.Logger) (*App, error) {
	opts := []core.Option{core.WithObserver(metrics.NewObserver())}

	var relay *cluster.Relay
	if cfg.Relay.RedisURL != "" {
		r, err := cluster.New(ctx, cfg.Relay.RedisURL, cfg.Relay.Channel, logger)
		if err != nil {
			return nil, fmt.Errorf("init relay: %w", err)
		}
		relay = r
		opts = append(opts, core.WithPublisher(relay, cfg.Relay.QueueSize))
		logger.Info().Str("channel", cfg.Relay.Channel).Msg("cross-instance relay enabled")
	}

	dispatcher := core.NewDispatcher(core.NewRegistry(), logger, opts...)
	server := transporthttp.NewServer(dispatcher, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		dispatcher:      dispatcher,
		relay:           relay,
		log:             logger,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.dispatcher.Run(ctx)

	if a.relay != nil {
		go func() {
			if err := a.relay.Subscribe(ctx, a.dispatcher.DeliverRemote); err != nil {
				a.log.Error().Err(err).Msg("relay subscription stopped")
			}
		}()
	}

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
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

		// Hijacked WebSocket connections are not tracked by http.Server.
		a.dispatcher.Shutdown(transporthttp.ShutdownReason)

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the relay connection.
func (a *App) cleanup() {
	if a.relay != nil {
		if err := a.relay.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close relay")
		} else {
			a.log.Info().Msg("relay closed")
		}
	}
}
