// Package server provides HTTP routing, middleware, and OAuth handling for the CLI's authorization flow.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback.
//
// The handler checks the state parameter, hands the code to an [Exchanger] and
// publishes the outcome on [OAuthHandler.Result]. Only the first callback is processed.
//
// # Authorization Flow
//
// Commands that modify Spotify playlists call [Authorize], which starts a [CallbackServer] on the
// redirect URI's host, opens the authorization page in the browser and waits for the callback.
// The server shuts down as soon as the token has been exchanged. Tokens are kept in memory only.
package server
