package infra

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// HTTPServer hosts the card workflow API with the service's timeout policy
// and a context-driven lifecycle.
type HTTPServer struct {
	srv *http.Server
}

// NewHTTPServer builds the server around the given handler. The write timeout
// applies to the SSE stream as well; clients are expected to reconnect when
// it trips.
func NewHTTPServer(cfg *Config, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadTimeout:       cfg.HTTPReadTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      cfg.HTTPWriteTimeout,
			IdleTimeout:       cfg.HTTPIdleTimeout,
		},
	}
}

// Addr returns the configured listen address.
func (s *HTTPServer) Addr() string {
	if s == nil || s.srv == nil {
		return ""
	}
	return s.srv.Addr
}

// Run listens until ctx is cancelled or the listener fails, then drains
// in-flight requests for at most grace before returning.
func (s *HTTPServer) Run(ctx context.Context, grace time.Duration) error {
	if s == nil || s.srv == nil {
		return nil
	}

	listenErr := make(chan error, 1)
	go func() {
		listenErr <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
