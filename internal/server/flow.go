package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotex/internal/shared"
)

const shutdownTimeout = 5 * time.Second

// AuthProvider builds the authorize URL and exchanges the returned code.
type AuthProvider interface {
	TokenExchanger
	AuthURL(state string) string
}

// AuthFlowOpts configures an [AuthFlow]. Provider, Config, and Trigger are required.
type AuthFlowOpts struct {
	Provider AuthProvider
	Config   *shared.Config
	Trigger  TriggerFunc

	// OpenBrowser defaults to [shared.OpenBrowser].
	OpenBrowser func(url string) error
	NoBrowser   bool
	Output      io.Writer
	Logger      *log.Logger
}

// AuthFlow runs the authorization code flow: bind the redirect listener, send the user to the
// authorize URL, and serve callbacks until the context ends.
type AuthFlow struct {
	provider    AuthProvider
	state       string
	openBrowser func(string) error
	noBrowser   bool
	output      io.Writer
	logger      *log.Logger

	callback *CallbackHandler
	listener *Listener
}

// NewAuthFlow creates an [AuthFlow] listening on the host and port of the configured redirect URI.
func NewAuthFlow(opts AuthFlowOpts) (*AuthFlow, error) {
	if opts.Provider == nil || opts.Config == nil || opts.Trigger == nil {
		return nil, fmt.Errorf("%w: auth flow requires a provider, config, and trigger", shared.ErrInvalidInput)
	}

	creds := opts.Config.Credentials.Spotify
	addr, err := creds.CallbackAddr()
	if err != nil {
		return nil, err
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, err
	}

	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	callback := NewCallbackHandler(CallbackOpts{
		Exchanger: opts.Provider,
		Trigger:   opts.Trigger,
		State:     state,
		Logger:    opts.Logger,
	})
	router := NewCallbackRouter(creds.CallbackPath(), callback, LoggingMiddleware(opts.Logger))

	return &AuthFlow{
		provider:    opts.Provider,
		state:       state,
		openBrowser: opts.OpenBrowser,
		noBrowser:   opts.NoBrowser,
		output:      opts.Output,
		logger:      opts.Logger,
		callback:    callback,
		listener:    NewListener(addr, router, opts.Logger),
	}, nil
}

// AuthURL returns the authorize URL carrying this flow's state token.
func (f *AuthFlow) AuthURL() string {
	return f.provider.AuthURL(f.state)
}

// State returns the callback state.
func (f *AuthFlow) State() CallbackState {
	return f.callback.State()
}

// Addr returns the listener address.
func (f *AuthFlow) Addr() string {
	return f.listener.Addr()
}

// Run binds the listener, opens the authorize URL, and serves until ctx is done or serving fails.
//
// The listener is bound before the browser opens, so a bind failure is returned with no browser action.
// The listener is shut down before Run returns.
func (f *AuthFlow) Run(ctx context.Context) error {
	if err := f.listener.Start(); err != nil {
		return err
	}

	authURL := f.AuthURL()
	switch {
	case f.noBrowser:
		fmt.Fprintf(f.output, "Open this URL in your browser to authorize:\n%s\n", authURL)
	default:
		if err := f.openBrowser(authURL); err != nil {
			f.logger.Warn("could not open browser", "error", err)
			fmt.Fprintf(f.output, "Open this URL in your browser to authorize:\n%s\n", authURL)
		}
	}

	var serveErr error
	select {
	case <-ctx.Done():
	case err, ok := <-f.listener.Err():
		if ok {
			serveErr = fmt.Errorf("callback listener failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := f.listener.Shutdown(shutdownCtx); err != nil {
		f.logger.Warn("listener shutdown incomplete", "error", err)
	}
	return serveErr
}
