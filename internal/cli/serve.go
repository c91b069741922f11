package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aretw0/lifecycle"

	httpAdapter "github.com/aretw0/ticketflow/pkg/adapters/http"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// Handler builds the HTTP API for the app.
func (a *App) Handler() http.Handler {
	opts := []httpAdapter.Option{
		httpAdapter.WithStreams(a.Streams),
		httpAdapter.WithCORS(a.Config.HTTP.CORS),
		httpAdapter.WithLogger(a.Logger),
	}
	if a.Metrics != nil {
		opts = append(opts, httpAdapter.WithMetricsHandler(a.Metrics.Handler()))
	}
	return httpAdapter.NewHandler(a.Manager, a.Engine, opts...)
}

// Serve runs the HTTP API on addr until ctx is cancelled, then shuts down
// gracefully.
func (a *App) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	lifecycle.Go(ctx, func(ctx context.Context) error {
		a.Logger.Info("Starting ticketflow server", "addr", srv.Addr, "store", a.Config.Store.Backend)
		serverErrors <- srv.ListenAndServe()
		return nil
	})

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		a.Logger.Info("Start shutdown...")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			return srv.Close()
		}
		a.Logger.Info("ticketflow server stopped gracefully")
		return nil
	}
}
