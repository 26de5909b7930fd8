// package tasks implements the conversion, playlist creation and shuffle operations.
//
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spoteemix/internal/match"
	"github.com/desertthunder/spoteemix/internal/models"
	"github.com/desertthunder/spoteemix/internal/services"
	"github.com/desertthunder/spoteemix/internal/shared"
)

// Spotify is the subset of [services.SpotifyService] the engine depends on.
type Spotify interface {
	match.Searcher
	PlaylistInfo(ctx context.Context, playlistID string) (*models.Playlist, error)
	TrackIDs(ctx context.Context, playlistID string) ([]string, error)
	Tracks(ctx context.Context, ids []string, onBatch func(done int)) ([]services.SpotifyTrack, error)
	CurrentUser(ctx context.Context) (*services.SpotifyUser, error)
	CreatePlaylist(ctx context.Context, userID, name string) (*models.Playlist, error)
	AddItems(ctx context.Context, playlistID string, uris []string) (string, error)
	ReorderItems(ctx context.Context, playlistID string, rangeStart, rangeLength, insertBefore int, snapshotID string) (string, error)
}

// Queue is a Deemix download queue session.
type Queue interface {
	Open(ctx context.Context) error
	Enqueue(ctx context.Context, t services.DeezerTrack) error
	Close() error
}

// AuthorizeFunc obtains a Spotify user token, typically through a browser round trip.
type AuthorizeFunc func(ctx context.Context) error

// Engine runs spoteemix operations.
type Engine struct {
	spotify   Spotify
	deemix    match.Searcher
	queue     Queue
	authorize AuthorizeFunc
	workers   int
	rng       *rand.Rand
	logger    *log.Logger
}

// EngineOpts configures an [Engine]. Only the dependencies an operation uses need to be set.
type EngineOpts struct {
	Spotify   Spotify
	Deemix    match.Searcher
	Queue     Queue
	Authorize AuthorizeFunc
	Workers   int
	Rand      *rand.Rand
	Logger    *log.Logger
}

// NewEngine creates a new Engine with the provided dependencies.
func NewEngine(opts EngineOpts) *Engine {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Engine{
		spotify:   opts.Spotify,
		deemix:    opts.Deemix,
		queue:     opts.Queue,
		authorize: opts.Authorize,
		workers:   opts.Workers,
		rng:       opts.Rand,
		logger:    opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Lookup resolves a single reference track against Deemix.
func (e *Engine) Lookup(ctx context.Context, ref models.ReferenceTrack, pref models.Format) match.Result {
	return match.NewLadder(e.deemix, match.LadderOpts{Logger: e.logger}).Resolve(ctx, ref, pref)
}

// resolve runs a batch for refs and reports each result as a [MatchTracks] update.
func (e *Engine) resolve(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	searcher match.Searcher,
	strategies []match.Strategy,
	catalog string,
	refs []models.ReferenceTrack,
	pref models.Format,
) (*match.Report, error) {
	ladder := match.NewLadder(searcher, match.LadderOpts{Strategies: strategies, Logger: e.logger})
	batch := match.NewBatch(ladder, match.BatchOpts{
		Workers: e.workers,
		OnResult: func(done, total int, r match.Result) {
			e.sendProgress(progress, matchTrackUpdate(done, total, catalog, r))
		},
	})
	e.sendProgress(progress, matchTrackUpdate(0, len(refs), catalog, match.Result{}))
	return batch.Resolve(ctx, refs, pref)
}
