package server

import (
	"context"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotex/internal/models"
	"github.com/desertthunder/spotex/internal/shared"
)

// CallbackState is the position of the authorization callback in its lifecycle.
type CallbackState int

const (
	Listening CallbackState = iota
	CodeReceived
	TokenExchanged
	PipelineTriggered
)

func (s CallbackState) String() string {
	switch s {
	case Listening:
		return "listening"
	case CodeReceived:
		return "code_received"
	case TokenExchanged:
		return "token_exchanged"
	case PipelineTriggered:
		return "pipeline_triggered"
	default:
		return "unknown"
	}
}

// TokenExchanger trades an authorization code for an access token.
type TokenExchanger interface {
	Exchange(ctx context.Context, code string) (models.AccessToken, error)
}

// TriggerFunc starts the export for a freshly obtained token. It must not block.
type TriggerFunc func(token models.AccessToken)

// CallbackOpts configures a [CallbackHandler]. Exchanger and Trigger are required.
type CallbackOpts struct {
	Exchanger TokenExchanger
	Trigger   TriggerFunc
	// State is the expected value of the state query parameter. Empty disables the check.
	State  string
	Logger *log.Logger
}

// CallbackHandler handles the provider redirect for the authorization code flow.
//
// It exchanges the first valid code and triggers the export exactly once. A failed exchange returns
// the handler to [Listening] so the user can retry from the browser.
type CallbackHandler struct {
	exchanger TokenExchanger
	trigger   TriggerFunc
	expected  string
	logger    *log.Logger

	mu    sync.Mutex
	state CallbackState
}

// NewCallbackHandler creates a handler in the [Listening] state.
func NewCallbackHandler(opts CallbackOpts) *CallbackHandler {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &CallbackHandler{
		exchanger: opts.Exchanger,
		trigger:   opts.Trigger,
		expected:  opts.State,
		logger:    shared.WithLogger(opts.Logger, "component", "callback"),
		state:     Listening,
	}
}

// State returns the current state.
func (h *CallbackHandler) State() CallbackState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// ServeHTTP handles GET <callback path>?code=...&state=...
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	code, ok := h.accept(w, r)
	if !ok {
		return
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		h.setState(Listening)
		h.logger.Error("token exchange failed, no export started", "error", err)
		writeHTML(w, http.StatusBadGateway, failurePage)
		return
	}

	h.setState(TokenExchanged)
	h.logger.Info("access token obtained")

	h.trigger(token)
	h.setState(PipelineTriggered)

	writeHTML(w, http.StatusOK, successPage)
}

// accept moves [Listening] to [CodeReceived] when the request carries a usable code.
//
// Every other request is answered here and false is returned.
func (h *CallbackHandler) accept(w http.ResponseWriter, r *http.Request) (string, bool) {
	query := r.URL.Query()

	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case PipelineTriggered:
		writeHTML(w, http.StatusOK, successPage)
		return "", false
	case CodeReceived, TokenExchanged:
		h.logger.Debug("callback ignored, exchange in progress")
		writeHTML(w, http.StatusOK, ackBody)
		return "", false
	}

	if errParam := query.Get("error"); errParam != "" {
		h.logger.Warn("authorization denied", "error", errParam, "description", query.Get("error_description"))
		writeHTML(w, http.StatusOK, ackBody)
		return "", false
	}

	code := query.Get("code")
	if code == "" {
		h.logger.Warn("callback without authorization code")
		writeHTML(w, http.StatusOK, ackBody)
		return "", false
	}

	if h.expected != "" && query.Get("state") != h.expected {
		h.logger.Warn("callback state mismatch, ignoring code", "error", shared.ErrAuthFailed)
		writeHTML(w, http.StatusOK, ackBody)
		return "", false
	}

	h.logger.Debug("callback state", "from", h.state, "to", CodeReceived)
	h.state = CodeReceived
	return code, true
}

func (h *CallbackHandler) setState(s CallbackState) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logger.Debug("callback state", "from", h.state, "to", s)
	h.state = s
}
