package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/spoteemix/internal/match"
	"github.com/desertthunder/spoteemix/internal/models"
	"github.com/desertthunder/spoteemix/internal/services"
	"github.com/desertthunder/spoteemix/internal/shared"
)

// ConvertOpts configures [Engine.Convert].
type ConvertOpts struct {
	PlaylistLink string
	Format       models.Format
	DryRun       bool // resolve matches without queueing them
}

// QueueFailure is a matched track Deemix refused to queue.
type QueueFailure struct {
	Result match.Result
	Err    error
}

// ConvertResult contains all data from a conversion.
type ConvertResult struct {
	Playlist *models.Playlist
	Report   *match.Report
	Queued   []match.Result
	Failed   []QueueFailure
}

// Total is the number of tracks read from the playlist.
func (r *ConvertResult) Total() int {
	if r.Report == nil {
		return 0
	}
	return r.Report.Total()
}

// Convert reads a Spotify playlist, finds every track on Deemix and queues the matches.
//
// Tracks are queued serially in playlist order after every match has been resolved. A queue
// failure for one track is recorded and the rest are still attempted.
func (e *Engine) Convert(ctx context.Context, progress chan<- ProgressUpdate, opts ConvertOpts) (*ConvertResult, error) {
	if e.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if e.deemix == nil {
		return nil, fmt.Errorf("%w: Deemix service not initialized", shared.ErrServiceUnavailable)
	}
	if e.queue == nil && !opts.DryRun {
		return nil, fmt.Errorf("%w: Deemix queue not initialized", shared.ErrServiceUnavailable)
	}

	playlistID, err := services.ParsePlaylistID(opts.PlaylistLink)
	if err != nil {
		return nil, err
	}

	result := &ConvertResult{}
	result.Playlist, err = e.spotify.PlaylistInfo(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, fetchPlaylistUpdate(result.Playlist))

	refs, err := e.referenceTracks(ctx, progress, playlistID)
	if err != nil {
		return result, err
	}

	result.Report, err = e.resolve(ctx, progress, e.deemix, match.DefaultStrategies(), "Deemix", refs, opts.Format)
	if err != nil {
		return result, err
	}
	e.logger.Info("matching finished", "playlist", result.Playlist.Name,
		"matched", len(result.Report.Matches), "total", result.Report.Total())

	if opts.DryRun || len(result.Report.Matches) == 0 {
		return result, nil
	}
	return result, e.enqueue(ctx, progress, result)
}

func (e *Engine) referenceTracks(ctx context.Context, progress chan<- ProgressUpdate, playlistID string) ([]models.ReferenceTrack, error) {
	ids, err := e.spotify.TrackIDs(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, fetchTracksUpdate(0, len(ids)))

	tracks, err := e.spotify.Tracks(ctx, ids, func(done int) {
		e.sendProgress(progress, fetchTracksUpdate(done, len(ids)))
	})
	if err != nil {
		return nil, err
	}

	refs := make([]models.ReferenceTrack, len(tracks))
	for i, t := range tracks {
		refs[i] = t.Reference()
	}
	return refs, nil
}

func (e *Engine) enqueue(ctx context.Context, progress chan<- ProgressUpdate, result *ConvertResult) error {
	if err := e.queue.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := e.queue.Close(); err != nil {
			e.logger.Warn("failed to close queue session", "error", err)
		}
	}()

	matches := result.Report.Matches
	for i, m := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}

		track, ok := m.Candidate.(services.DeezerTrack)
		if !ok {
			result.Failed = append(result.Failed, QueueFailure{
				Result: m,
				Err:    fmt.Errorf("%w: %T is not a Deezer track", shared.ErrInvalidInput, m.Candidate),
			})
			continue
		}

		if err := e.queue.Enqueue(ctx, track); err != nil {
			e.logger.Warn("failed to queue track", "title", track.SongTitle, "error", err)
			result.Failed = append(result.Failed, QueueFailure{Result: m, Err: err})
			continue
		}
		result.Queued = append(result.Queued, m)
		e.sendProgress(progress, queueTrackUpdate(i+1, len(matches), m))
	}
	return nil
}
