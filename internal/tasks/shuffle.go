package tasks

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/desertthunder/spoteemix/internal/models"
	"github.com/desertthunder/spoteemix/internal/services"
	"github.com/desertthunder/spoteemix/internal/shared"
)

const maxMoveLength = 4

// Move is one reorder: Length items starting at Start are moved before InsertBefore.
type Move struct {
	Start        int
	Length       int
	InsertBefore int
}

// ShuffleOpts configures [Engine.Shuffle].
type ShuffleOpts struct {
	PlaylistLink string
	Iterations   int
}

// ShuffleResult contains all data from a shuffle.
type ShuffleResult struct {
	Playlist   *models.Playlist
	Moves      []Move
	SnapshotID string
}

// randInt returns a uniform integer in [lo, hi].
func randInt(r *rand.Rand, lo, hi int) int {
	return lo + r.IntN(hi-lo+1)
}

// RandomMove picks a move for a playlist of n items (n >= 1).
//
// Lengths are drawn from [-2, min(4, n-start)] and raised to 1, which biases moves towards
// single items.
func RandomMove(r *rand.Rand, n int) Move {
	start := randInt(r, 0, n-1)
	length := max(randInt(r, -2, min(maxMoveLength, n-start)), 1)
	return Move{
		Start:        start,
		Length:       length,
		InsertBefore: randInt(r, 0, n-length+1),
	}
}

// Shuffle applies iterations random range moves to a playlist the user can modify.
//
// Every request carries the snapshot id returned by the previous one.
func (e *Engine) Shuffle(ctx context.Context, progress chan<- ProgressUpdate, opts ShuffleOpts) (*ShuffleResult, error) {
	if e.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.Iterations < 1 {
		return nil, fmt.Errorf("%w: iterations must be at least 1", shared.ErrInvalidArgument)
	}

	playlistID, err := services.ParsePlaylistID(opts.PlaylistLink)
	if err != nil {
		return nil, err
	}

	playlist, err := e.spotify.PlaylistInfo(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, fetchPlaylistUpdate(playlist))

	n := playlist.TrackCount
	if n < 1 {
		return nil, fmt.Errorf("%w: playlist %s is empty", shared.ErrInvalidInput, playlist.Name)
	}

	if err := e.authorizeUser(ctx, progress); err != nil {
		return nil, err
	}

	result := &ShuffleResult{Playlist: playlist}
	for i := range opts.Iterations {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		m := RandomMove(e.rng, n)
		snapshot, err := e.spotify.ReorderItems(ctx, playlistID, m.Start, m.Length, m.InsertBefore, result.SnapshotID)
		if err != nil {
			return result, fmt.Errorf("move %d of %d failed: %w", i+1, opts.Iterations, err)
		}
		result.SnapshotID = snapshot
		result.Moves = append(result.Moves, m)
		e.sendProgress(progress, shuffleUpdate(i+1, opts.Iterations, m))
	}

	e.logger.Info("shuffle finished", "playlist", playlist.Name, "moves", len(result.Moves))
	return result, nil
}
