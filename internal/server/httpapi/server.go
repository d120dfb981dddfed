package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// Server serves the HTTP API plus an optional metrics handler on /metrics.
type Server struct {
	address string
	logger  logging.Logger
	handler http.Handler
}

type nopRequestMetrics struct{}

func (nopRequestMetrics) ObserveRequest(string, string, string) {}

// NewServer routes h and, when metricsHandler is set, GET /metrics. A nil m
// disables request counting.
func NewServer(addr string, l logging.Logger, h *Handler, metricsHandler http.Handler, m requestMetrics) *Server {
	if m == nil {
		m = nopRequestMetrics{}
	}

	mux := http.NewServeMux()
	h.Register(mux)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	return &Server{
		address: addr,
		logger:  l.With("module", "http_server"),
		handler: instrument(mux, m, h),
	}
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is cancelled, then shuts down.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
