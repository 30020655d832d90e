// Package httpx serves the admin endpoints of the binary.
package httpx

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/clinia/bulksink/loggerx"
	"github.com/felixge/httpsnoop"
	"go.opentelemetry.io/otel/attribute"
)

const (
	MetricsPath = "/metrics"
	HealthPath  = "/health"

	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// HealthFunc reports nil while the process is healthy.
type HealthFunc func() error

type Server struct {
	srv *http.Server
	l   *loggerx.Logger
}

// NewServer serves metrics on MetricsPath when it is not nil and health on HealthPath.
func NewServer(addr string, metrics http.Handler, health HealthFunc, l *loggerx.Logger) *Server {
	mux := http.NewServeMux()
	if metrics != nil {
		mux.Handle(MetricsPath, metrics)
	}
	mux.Handle(HealthPath, healthHandler(health))

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           logRequests(mux, l),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		l: l,
	}
}

func healthHandler(health HealthFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := health(); err != nil {
			_ = SetUnhealthyHeader(w.Header())
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		_ = SetHealthyHeader(w.Header())
		w.WriteHeader(http.StatusOK)
	})
}

func logRequests(next http.Handler, l *loggerx.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		l.Debug(r.Context(), "served admin request",
			attribute.String("path", r.URL.Path),
			attribute.Int("status", m.Code),
			attribute.Int64("bytes", m.Written),
			attribute.Int64("duration_ms", m.Duration.Milliseconds()),
		)
	})
}

// Run serves until ctx is done, then shuts the server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		errc <- s.srv.Serve(ln)
	}()
	s.l.Info(ctx, "admin server listening", attribute.String("address", ln.Addr().String()))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
