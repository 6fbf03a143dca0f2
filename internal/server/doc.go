// Package server provides the local HTTP endpoint that receives the OAuth2 authorization code redirect.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] is backed by
// gorilla/mux so routes are keyed on both method and path: GET on the callback path reaches the
// callback handler while HEAD, POST, and any other GET are acknowledged by [HeadHandler],
// [PostHandler], and [AckHandler]. [NewCallbackRouter] wires that table.
//
// [LoggingMiddleware] logs each request without its query string.
//
// # Callback State Machine
//
// [CallbackHandler] moves through [Listening], [CodeReceived], [TokenExchanged], and
// [PipelineTriggered]. Only a GET carrying a code and the expected state leaves [Listening].
// A failed exchange answers 502 and returns to [Listening]; [PipelineTriggered] is terminal.
//
// # Authorization Flow
//
// [AuthFlow] binds the [Listener] on the redirect URI's host and port before opening the browser,
// then serves until its context ends and shuts the listener down.
package server
