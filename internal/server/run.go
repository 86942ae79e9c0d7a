package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 15 * time.Second

// Run starts the HTTP server and blocks until SIGINT/SIGTERM or a serve
// error. On shutdown it stops accepting requests, then runs the
// registered hooks in order, joining their errors.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Listen before forking the serve goroutine so bind errors surface
	// synchronously.
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	for _, hook := range s.shutdownHooks {
		if err := hook(shutdownCtx); err != nil {
			errs = append(errs, err)
			s.log.Error("shutdown hook failed", slog.Any("error", err))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	s.log.Info("shutdown completed")
	return nil
}
