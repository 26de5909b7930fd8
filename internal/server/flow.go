package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spoteemix/internal/shared"
)

const DefaultAuthTimeout = 5 * time.Minute

// CallbackServer listens on the redirect URI's host for a single OAuth callback.
type CallbackServer struct {
	srv     *http.Server
	ln      net.Listener
	handler *OAuthHandler
	logger  *log.Logger
}

// StartCallbackServer binds the host of redirectURI and serves its path with an [OAuthHandler].
func StartCallbackServer(redirectURI, state string, ex Exchanger, logger *log.Logger) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid redirect URI %q", shared.ErrInvalidConfig, redirectURI)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	ln, err := net.Listen("tcp", u.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", u.Host, err)
	}

	handler := NewOAuthHandler(ex, state, u.Path)
	router := NewBasicRouter()
	router.Use(LoggingMiddleware(logger))
	router.Handler(handler)

	c := &CallbackServer{
		srv:     &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second},
		ln:      ln,
		handler: handler,
		logger:  logger,
	}
	go func() {
		if err := c.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("callback server stopped", "error", err)
		}
	}()
	return c, nil
}

// Addr is the address the server is listening on.
func (c *CallbackServer) Addr() string {
	return c.ln.Addr().String()
}

// Wait blocks until the callback has been handled or ctx is done.
func (c *CallbackServer) Wait(ctx context.Context) error {
	select {
	case err := <-c.handler.Result():
		return err
	case <-ctx.Done():
		return fmt.Errorf("%w: waiting for authorization: %v", shared.ErrTimeout, ctx.Err())
	}
}

// Close shuts the server down.
func (c *CallbackServer) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.srv.Shutdown(ctx)
}

// AuthorizeOpts configures [Authorize].
type AuthorizeOpts struct {
	RedirectURI string
	AuthCodeURL func(state string) string
	Exchanger   Exchanger
	Open        func(url string) error // defaults to [shared.OpenBrowser]
	Prompt      io.Writer              // receives the URL when the browser cannot be opened
	Timeout     time.Duration
	Logger      *log.Logger
}

// Authorize runs the authorization code flow through the user's browser and a local callback server.
func Authorize(ctx context.Context, opts AuthorizeOpts) error {
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	if opts.Prompt == nil {
		opts.Prompt = io.Discard
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultAuthTimeout
	}

	state := shared.GenerateID()
	cb, err := StartCallbackServer(opts.RedirectURI, state, opts.Exchanger, opts.Logger)
	if err != nil {
		return err
	}
	defer cb.Close()

	authURL := opts.AuthCodeURL(state)
	if err := opts.Open(authURL); err != nil {
		fmt.Fprintf(opts.Prompt, "Open this URL to authorize spoteemix:\n\n  %s\n\n", authURL)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	return cb.Wait(ctx)
}
