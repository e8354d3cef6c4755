package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"lexiq-backend/internal/shared/server"
	"lexiq-backend/internal/shared/telemetry"
)

const defaultShutdownTimeout = 30 * time.Second

// Serve listens on the configured port until ctx is cancelled, then drains
// in-flight analyses for up to shutdownTimeout.
func Serve(ctx context.Context, app *App, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", server.Addr(app.Config.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return serveListener(ctx, app, ln, shutdownTimeout)
}

func serveListener(ctx context.Context, app *App, ln net.Listener, shutdownTimeout time.Duration) error {
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	srv := &http.Server{
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
		// Analyses wait on two model calls.
		WriteTimeout: 2*app.Config.LLMTimeout + 30*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("server.start", map[string]any{
			"addr":     ln.Addr().String(),
			"env":      app.Config.Env,
			"provider": app.Config.LLMProvider,
			"model":    app.Config.LLMModel,
		})
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	telemetry.Info("server.shutdown", map[string]any{"timeout_ms": shutdownTimeout.Milliseconds()})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
