// Package httpapi is the REST surface of the service: route
// registration, the authentication gate, and the HTTP server lifecycle.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/dealkeeper/internal/logging"
	"github.com/dmitrijs2005/dealkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/dealkeeper/internal/server/repositories/sessions"
)

type Server struct {
	address string
	handler *Handler
	gate    func(http.Handler) http.Handler
	logger  logging.Logger
}

func NewServer(address string, h *Handler, secret []byte, ledger sessions.Repository, l logging.Logger) *Server {
	return &Server{
		address: address,
		handler: h,
		gate:    Authenticate(secret, ledger),
		logger:  l.With("module", "http_server"),
	}
}

// statusWriter captures the response status for the request counter.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(sw.status)).Inc()
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	s.handler.RegisterRoutes(mux, s.gate)

	srv := &http.Server{
		Addr:    s.address,
		Handler: countRequests(mux),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
