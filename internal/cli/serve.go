package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/parleyhq/parley/internal/config"
	httpAdapter "github.com/parleyhq/parley/pkg/adapters/http"
)

// ShutdownTimeout bounds how long in-flight requests get once the server is asked to stop.
const ShutdownTimeout = 5 * time.Second

// NewHTTPHandler builds the REST handler for app.
func NewHTTPHandler(app *App) (http.Handler, error) {
	opts := []httpAdapter.Option{httpAdapter.WithLogger(app.Logger)}
	if app.Search != nil {
		opts = append(opts, httpAdapter.WithSearchProxy(app.Search))
	}
	if app.Chat != nil {
		opts = append(opts, httpAdapter.WithChatProxy(app.Chat))
	}
	if app.Metrics != nil {
		opts = append(opts, httpAdapter.WithMetrics(app.Metrics))
	}
	return httpAdapter.NewHandler(app.Engine, opts...)
}

// Serve runs the HTTP server on ln until ctx is cancelled, then shuts it down gracefully.
// With watch enabled, scenario changes are logged and cached graphs dropped.
func Serve(ctx context.Context, app *App, cfg config.ServerConfig, watch bool, ln net.Listener) error {
	handler, err := NewHTTPHandler(app)
	if err != nil {
		return err
	}

	if watch {
		changes, err := app.Engine.Watch(ctx)
		if err != nil {
			app.Logger.Warn("Scenario watch unavailable", "err", err)
		} else {
			go func() {
				for id := range changes {
					app.Logger.Info("Scenario reloaded", "id", id)
				}
			}()
		}
	}

	srv := &http.Server{
		Handler:     handler,
		ReadTimeout: cfg.ReadTimeout,
		// Zero keeps event streams open.
		WriteTimeout: cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	serverErrors := make(chan error, 1)
	go func() {
		app.Logger.Info("Starting parley server", "addr", ln.Addr().String())
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	app.Logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
		return srv.Close()
	}
	app.Logger.Info("Server stopped gracefully")
	return nil
}
