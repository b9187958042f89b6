package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/csipacific/dashboard/internal/platform/httpx"
)

// shutdownTimeout bounds graceful drain on context cancellation.
const shutdownTimeout = 10 * time.Second

// Server hosts the dashboard HTTP surface.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
}

// NewServer wraps the handler routes with the shared middleware chain.
func NewServer(addr string, handler *Handler, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	routes := httpx.Chain(handler.Routes(),
		httpx.RecoverPanic(),
		httpx.RequestID(),
		httpx.RequestLogger(logger),
	)
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           routes,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// ListenAndServe blocks until the context is canceled or the listener fails,
// then drains in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		s.logger.Printf("listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return <-serveErr
}
