package tasks

import (
	"context"
	"fmt"

	"github.com/desertthunder/spoteemix/internal/library"
	"github.com/desertthunder/spoteemix/internal/match"
	"github.com/desertthunder/spoteemix/internal/models"
	"github.com/desertthunder/spoteemix/internal/services"
	"github.com/desertthunder/spoteemix/internal/shared"
)

// FilesOpts configures [Engine.FilesToSpotify].
type FilesOpts struct {
	Dir          string
	PlaylistName string
}

// FilesResult contains all data from a files-to-Spotify run.
type FilesResult struct {
	Files    []library.File
	Report   *match.Report
	Playlist *models.Playlist // nil when nothing matched
}

// FilesToSpotify looks local files up on Spotify and collects the matches in a new private playlist.
//
// No playlist is created, and no authorization is requested, when nothing matched.
func (e *Engine) FilesToSpotify(ctx context.Context, progress chan<- ProgressUpdate, opts FilesOpts) (*FilesResult, error) {
	if e.spotify == nil {
		return nil, fmt.Errorf("%w: Spotify service not initialized", shared.ErrServiceUnavailable)
	}
	if opts.PlaylistName == "" {
		return nil, fmt.Errorf("%w: playlist name", shared.ErrMissingArgument)
	}

	files, err := library.Scan(opts.Dir, e.logger)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, scanFilesUpdate(len(files), opts.Dir))

	result := &FilesResult{Files: files}
	result.Report, err = e.resolve(ctx, progress, e.spotify, match.LookupStrategies(), "Spotify", library.Tracks(files), models.FormatHigh)
	if err != nil {
		return result, err
	}
	if len(result.Report.Matches) == 0 {
		e.logger.Info("no matches, skipping playlist creation")
		return result, nil
	}

	if err := e.authorizeUser(ctx, progress); err != nil {
		return result, err
	}

	user, err := e.spotify.CurrentUser(ctx)
	if err != nil {
		return result, err
	}

	playlist, err := e.spotify.CreatePlaylist(ctx, user.ID, opts.PlaylistName)
	if err != nil {
		return result, err
	}
	result.Playlist = playlist
	e.sendProgress(progress, createPlaylistUpdate(playlist))

	uris := make([]string, 0, len(result.Report.Matches))
	for _, m := range result.Report.Matches {
		if t, ok := m.Candidate.(services.SpotifyTrack); ok && t.URI != "" {
			uris = append(uris, t.URI)
		}
	}

	snapshot, err := e.spotify.AddItems(ctx, playlist.ID, uris)
	if err != nil {
		return result, err
	}
	playlist.SnapshotID = snapshot
	playlist.TrackCount = len(uris)
	e.sendProgress(progress, addTracksUpdate(len(uris)))
	return result, nil
}

func (e *Engine) authorizeUser(ctx context.Context, progress chan<- ProgressUpdate) error {
	if e.authorize == nil {
		return fmt.Errorf("%w: no authorization flow configured", shared.ErrNotAuthenticated)
	}
	e.sendProgress(progress, authorizeUpdate())
	return e.authorize(ctx)
}
