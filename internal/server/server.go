package server

import (
	"net/http"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Router defines the interface for HTTP routing and middleware management.
//
// Routes are matched on method and path. Registration order decides precedence, so specific routes
// must be registered before prefix routes that would also match them.
type Router interface {
	// Use adds middleware to the router's middleware stack
	Use(middleware ...Middleware)

	// Handle registers a handler for an exact method and path
	Handle(method, path string, handler http.Handler)

	// HandlePrefix registers a handler for every path under prefix
	HandlePrefix(method, prefix string, handler http.Handler)

	// ServeHTTP implements http.Handler for the entire router
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

var _ Router = (*BasicRouter)(nil)

// NewCallbackRouter builds the router served on the redirect address.
//
// GET on the callback path reaches callback; HEAD, POST, and any other GET are acknowledged
// without side effects.
func NewCallbackRouter(callbackPath string, callback http.Handler, middleware ...Middleware) *BasicRouter {
	r := NewBasicRouter()
	r.Use(middleware...)
	r.Handle(http.MethodGet, callbackPath, callback)
	r.HandlePrefix(http.MethodHead, "/", HeadHandler())
	r.HandlePrefix(http.MethodPost, "/", PostHandler())
	r.HandlePrefix(http.MethodGet, "/", AckHandler())
	return r
}
