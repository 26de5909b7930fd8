package tasks

import (
	"fmt"

	"github.com/desertthunder/spoteemix/internal/match"
	"github.com/desertthunder/spoteemix/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylist Phase = iota
	FetchTracks
	ScanFiles
	MatchTracks
	QueueTracks
	Authorize
	CreatePlaylist
	AddTracks
	ShufflePlaylist
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylist:
		return "fetch_playlist"
	case FetchTracks:
		return "fetch_tracks"
	case ScanFiles:
		return "scan_files"
	case MatchTracks:
		return "match_tracks"
	case QueueTracks:
		return "queue_tracks"
	case Authorize:
		return "authorize"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case ShufflePlaylist:
		return "shuffle_playlist"
	default:
		return ""
	}
}

// Label is the heading a progress display shows for the phase.
func (p Phase) Label() string {
	switch p {
	case FetchPlaylist:
		return "Reading playlist"
	case FetchTracks:
		return "Getting track info"
	case ScanFiles:
		return "Scanning files"
	case MatchTracks:
		return "Finding songs"
	case QueueTracks:
		return "Adding to queue"
	case Authorize:
		return "Waiting for authorization"
	case CreatePlaylist:
		return "Creating playlist"
	case AddTracks:
		return "Adding tracks"
	case ShufflePlaylist:
		return "Shuffling playlist"
	default:
		return ""
	}
}

func fetchPlaylistUpdate(p *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Parsing playlist %s by %s", p.Name, p.Owner),
		Data:    p,
	}
}

func fetchTracksUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: "Getting track info...",
	}
}

func scanFilesUpdate(count int, dir string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanFiles,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d files in %s", count, dir),
	}
}

func matchTrackUpdate(step, total int, catalog string, r match.Result) ProgressUpdate {
	msg := fmt.Sprintf("Finding songs on %s...", catalog)
	if r.Found() {
		msg = fmt.Sprintf("Matched %s (%.0f%%)", r.Reference.Title, r.Confidence)
	}
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    r,
	}
}

func queueTrackUpdate(step, total int, r match.Result) ProgressUpdate {
	return ProgressUpdate{
		Phase:   QueueTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Queued %s", r.Candidate.Title()),
		Data:    r,
	}
}

func authorizeUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   Authorize,
		Step:    0,
		Total:   1,
		Message: "Waiting for Spotify authorization in the browser...",
	}
}

func createPlaylistUpdate(p *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist %s created with id %s", p.Name, p.ID),
		Data:    p,
	}
}

func addTracksUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Added %d tracks", count),
	}
}

func shuffleUpdate(step, total int, m Move) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ShufflePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Moved %d from %d to %d", m.Length, m.Start, m.InsertBefore),
		Data:    m,
	}
}
