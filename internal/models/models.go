// package models defines the data model shared by the catalogs and the matcher
package models

import (
	"fmt"
	"strings"

	"github.com/desertthunder/spoteemix/internal/shared"
)

// ReferenceTrack is the track we are trying to find in another catalog.
type ReferenceTrack struct {
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
}

// NewReferenceTrack builds a [ReferenceTrack], copying artists so the caller's slice can be reused.
func NewReferenceTrack(title string, artists ...string) ReferenceTrack {
	a := make([]string, 0, len(artists))
	a = append(a, artists...)
	return ReferenceTrack{Title: title, Artists: a}
}

// ArtistLine joins the artists for display, e.g. "Paul Woolford, LF SYSTEM".
func (t ReferenceTrack) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

func (t ReferenceTrack) String() string {
	if len(t.Artists) == 0 {
		return t.Title
	}
	return fmt.Sprintf("%s - %s", t.Title, t.ArtistLine())
}

// Playlist represents playlist metadata from the source catalog
type Playlist struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Owner      string `json:"owner"`
	TrackCount int    `json:"track_count"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	URL        string `json:"url,omitempty"`
}

// Format is a download encoding preference.
type Format int

const (
	FormatLossless Format = iota // flac
	FormatHigh                   // mp3 320kbps
	FormatLow                    // mp3 128kbps
)

// Formats lists the accepted --format values in preference-menu order.
var Formats = []string{"flac", "mp3_320", "mp3_128"}

func (f Format) String() string {
	switch f {
	case FormatLossless:
		return "flac"
	case FormatHigh:
		return "mp3_320"
	case FormatLow:
		return "mp3_128"
	default:
		return ""
	}
}

// ParseFormat parses a format name case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flac", "lossless":
		return FormatLossless, nil
	case "mp3_320", "320", "high":
		return FormatHigh, nil
	case "mp3_128", "128", "low":
		return FormatLow, nil
	default:
		return 0, fmt.Errorf("%w: unknown format %q (expected one of %s)", shared.ErrInvalidFlag, s, strings.Join(Formats, ", "))
	}
}
