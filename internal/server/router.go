package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

// BasicRouter is a simple HTTP router implementing the [Router] interface.
//
// Uses [mux.Router] internally so a method can be bound to one path while another method takes every path.
type BasicRouter struct {
	mux *mux.Router
}

// NewBasicRouter creates a new [BasicRouter] instance.
func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: mux.NewRouter()}
}

// Use adds [Middleware] to the [Router] instance's middleware stack, applied in the order it's added.
//
// Middleware only runs for requests that matched a route.
func (r *BasicRouter) Use(middleware ...Middleware) {
	for _, m := range middleware {
		r.mux.Use(mux.MiddlewareFunc(m))
	}
}

// Handle registers a [http.Handler] for the specified HTTP method and exact path.
func (r *BasicRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Methods(method).Path(path).Handler(handler)
}

// HandlePrefix registers a [http.Handler] for the specified HTTP method and every path under prefix.
func (r *BasicRouter) HandlePrefix(method, prefix string, handler http.Handler) {
	r.mux.Methods(method).PathPrefix(prefix).Handler(handler)
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs method, path, status, and duration of each request.
//
// The query string is left out since it carries the authorization code.
func LoggingMiddleware(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
		})
	}
}
