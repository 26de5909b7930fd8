// Package services implements the HTTP adapters for the two catalogs spoteemix moves music between.
//
// # Deemix
//
// [DeemixService] queries a self-hosted Deemix instance's search API and exposes each result
// as a [DeezerTrack], which satisfies [match.Candidate]. Requests are rate limited with
// [rate.Limiter] and bounded by a client timeout.
//
// [DeemixQueue] holds one cookie-backed session against the same instance, checks that a
// Deezer account is logged in (logging in with an ARL when one is configured), and adds
// matched tracks to the download queue.
//
// # Spotify
//
// [SpotifyService] reads playlists with app credentials (client credentials grant) and
// performs user-scoped operations (create playlist, add items, reorder) once a user token
// has been obtained through the authorization code flow.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : 401/403 or no user token
//   - [shared.ErrMalformedResponse] : response body could not be decoded
//   - [shared.ErrPlaylistNotFound] : playlist id not found
//   - [shared.ErrAPIRequest] : any other non-2xx response
//
// Transport failures, 429 and 5xx responses are returned as [ErrCatalogUnavailable].
package services
