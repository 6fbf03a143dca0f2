package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed    = fmt.Errorf("authorization failed")
	ErrTokenExchange = fmt.Errorf("token exchange failed")

	// API and service errors
	ErrAPIRequest        = fmt.Errorf("API request failed")
	ErrMalformedResponse = fmt.Errorf("malformed response")
	ErrPlaylistNotFound  = fmt.Errorf("playlist not found")
	ErrRunNotFound       = fmt.Errorf("export run not found")

	// Pipeline errors
	ErrPoolClosed = fmt.Errorf("worker pool closed")

	// Database errors
	ErrNoMigrations = fmt.Errorf("no migrations applied")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
)
