// Package tasks orchestrates the end-to-end operations of spoteemix with real-time progress reporting.
//
// # Core Operations
//
//  1. [Engine.Convert] : Spotify playlist → Deemix download queue
//     - Reads the playlist and fetches full track details
//     - Resolves every track against Deemix with the three-step [match.Ladder]
//     - Adds matches to the Deemix queue one at a time, in playlist order
//
//  2. [Engine.FilesToSpotify] : local .mp3 files → new private Spotify playlist
//     - Reads title and artist from tags or file names
//     - Looks each file up on Spotify with a single expanded search
//     - Creates the playlist only when something matched
//
//  3. [Engine.Shuffle] : random range moves on a Spotify playlist
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
