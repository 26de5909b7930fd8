package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/spoteemix/internal/shared"
)

// Exchanger trades an authorization code for a token and keeps it.
type Exchanger interface {
	Exchange(ctx context.Context, code string) error
}

// callbackError pairs a flow error with the status shown to the browser.
type callbackError struct {
	status int
	msg    string
	err    error
}

func (e *callbackError) Error() string { return e.err.Error() }
func (e *callbackError) Unwrap() error { return e.err }

const grantedPage = `<!DOCTYPE html>
<html>
<head><title>spoteemix</title>
<style>
body { font-family: sans-serif; display: flex; align-items: center; justify-content: center; height: 100vh; margin: 0; }
h1 { color: #1DB954; }
</style>
</head>
<body><div><h1>✓ Spotify access granted</h1><p>Return to the terminal, the conversion continues there.</p></div></body>
</html>
`

// OAuthHandler serves the redirect target of the authorization code flow.
// The first request on its path settles the flow; later ones are refused.
type OAuthHandler struct {
	exchanger Exchanger
	state     string
	path      string

	mu      sync.Mutex
	handled bool
	once    sync.Once
	done    chan error
}

// NewOAuthHandler creates a handler for path that accepts callbacks carrying state.
func NewOAuthHandler(ex Exchanger, state, path string) *OAuthHandler {
	if path == "" {
		path = "/"
	}
	return &OAuthHandler{exchanger: ex, state: state, path: path, done: make(chan error, 1)}
}

func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

func (h *OAuthHandler) claim() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.handled {
		return false
	}
	h.handled = true
	return true
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != h.path {
		http.NotFound(w, r)
		return
	}
	if !h.claim() {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	err := h.callback(r)
	h.Send(err)

	var cbErr *callbackError
	if errors.As(err, &cbErr) {
		http.Error(w, cbErr.msg, cbErr.status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, grantedPage)
}

func (h *OAuthHandler) callback(r *http.Request) error {
	q := r.URL.Query()
	if q.Get("state") != h.state {
		return &callbackError{
			status: http.StatusBadRequest,
			msg:    "Invalid state parameter",
			err:    fmt.Errorf("%w: invalid state parameter", shared.ErrAuthFailed),
		}
	}

	code := q.Get("code")
	if code == "" {
		return &callbackError{
			status: http.StatusBadRequest,
			msg:    "Authorization failed",
			err:    fmt.Errorf("%w: %s", shared.ErrAuthFailed, q.Get("error")),
		}
	}

	if err := h.exchanger.Exchange(r.Context(), code); err != nil {
		return &callbackError{
			status: http.StatusInternalServerError,
			msg:    "Token exchange failed",
			err:    fmt.Errorf("token exchange failed: %w", err),
		}
	}
	return nil
}

// Send settles the flow with err. Only the first call has an effect.
func (h *OAuthHandler) Send(err error) {
	h.once.Do(func() {
		h.done <- err
		close(h.done)
	})
}

// Result yields the outcome of the flow once, nil on success.
func (h *OAuthHandler) Result() <-chan error {
	return h.done
}
