package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotex/internal/shared"
)

// Listener owns the local HTTP server that receives the provider redirect.
type Listener struct {
	addr    string
	handler http.Handler
	logger  *log.Logger

	server *http.Server
	ln     net.Listener
	errs   chan error
}

// NewListener creates a listener for addr ("host:port"). Nothing is bound until [Listener.Start].
func NewListener(addr string, handler http.Handler, logger *log.Logger) *Listener {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Listener{
		addr:    addr,
		handler: handler,
		logger:  shared.WithLogger(logger, "component", "listener"),
		errs:    make(chan error, 1),
	}
}

// Start binds the address and serves on a background goroutine.
//
// Bind errors are returned synchronously. Serve errors other than a clean shutdown are sent on [Listener.Err].
func (l *Listener) Start() error {
	if l.server != nil {
		return fmt.Errorf("listener already started on %s", l.Addr())
	}

	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", l.addr, err)
	}

	l.ln = ln
	l.server = &http.Server{
		Handler:           l.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		l.logger.Info("listening for authorization callback", "addr", ln.Addr().String())
		if err := l.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.errs <- err
		}
		close(l.errs)
	}()
	return nil
}

// Addr returns the bound address, or the configured one before [Listener.Start].
func (l *Listener) Addr() string {
	if l.ln != nil {
		return l.ln.Addr().String()
	}
	return l.addr
}

// Err returns a channel receiving at most one serve error. It is closed when serving stops.
func (l *Listener) Err() <-chan error {
	return l.errs
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx ends.
func (l *Listener) Shutdown(ctx context.Context) error {
	if l.server == nil {
		return nil
	}
	l.logger.Debug("shutting down listener")
	return l.server.Shutdown(ctx)
}
