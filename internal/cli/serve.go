package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// ShutdownTimeout bounds how long in-flight turns may finish after ctx ends.
var ShutdownTimeout = 35 * time.Second

// Serve runs handler on addr until ctx is cancelled, then shuts down gracefully.
// If ln is nil a listener is opened on addr.
func Serve(ctx context.Context, ln net.Listener, addr string, handler http.Handler, logger *slog.Logger) error {
	if ln == nil {
		var err error
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", addr, err)
		}
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("leadflow server listening", "addr", ln.Addr().String())
		serverErrors <- srv.Serve(ln)
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("shutting down", "timeout", ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown did not complete", "error", err)
			if cerr := srv.Close(); cerr != nil {
				logger.Error("error killing server", "error", cerr)
			}
			return err
		}
		logger.Info("leadflow server stopped gracefully")
		return nil
	}
}
