package httpserver

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
)

// ShutdownTimeout bounds how long in-flight requests get to finish when the
// process is asked to stop.
var ShutdownTimeout = 10 * time.Second

// Server runs the HTTP API with timeouts suitable for a public listener.
type Server struct {
	inner *http.Server
}

// New builds a server bound to the given port.
func New(port int, handler http.Handler) *Server {
	return &Server{
		inner: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       idleTimeout,
		},
	}
}

// Addr returns the listen address the server was configured with.
func (s *Server) Addr() string {
	return s.inner.Addr
}

// Start serves until the listener fails or Shutdown is called. It returns
// http.ErrServerClosed after a clean shutdown, matching net/http.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown stops accepting new connections and drains in-flight requests
// until the context expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
