// package library reads reference tracks from a directory of local audio files
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/spoteemix/internal/models"
	"github.com/desertthunder/spoteemix/internal/shared"
)

const (
	audioExt  = ".mp3"
	separator = " - "
)

// File is one audio file and the track it was read as.
type File struct {
	Path  string
	Track models.ReferenceTrack
	// FromTags is true when title and artist came from ID3 tags rather than the file name.
	FromTags bool
}

// Scan reads every .mp3 file directly inside dir, in file name order.
//
// ID3 title and artist win when both are set. Otherwise the name is parsed as "artist - title";
// a name without the separator becomes a title with no artists.
func Scan(dir string, logger *log.Logger) ([]File, error) {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), audioExt) {
			continue
		}
		path := filepath.Join(dir, e.Name())

		if track, ok := readTags(path, logger); ok {
			files = append(files, File{Path: path, Track: track, FromTags: true})
			continue
		}
		files = append(files, File{Path: path, Track: ParseFileName(e.Name())})
	}

	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Path, b.Path) })
	logger.Debug("scanned directory", "dir", dir, "files", len(files))
	return files, nil
}

// Tracks returns the reference tracks of files.
func Tracks(files []File) []models.ReferenceTrack {
	tracks := make([]models.ReferenceTrack, len(files))
	for i, f := range files {
		tracks[i] = f.Track
	}
	return tracks
}

// ParseFileName splits "artist - title.mp3" on the first separator.
func ParseFileName(name string) models.ReferenceTrack {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	artist, title, ok := strings.Cut(base, separator)
	if !ok {
		return models.NewReferenceTrack(base)
	}
	return models.NewReferenceTrack(title, artist)
}

func readTags(path string, logger *log.Logger) (models.ReferenceTrack, bool) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Title", "Artist"}})
	if err != nil {
		logger.Debug("unreadable tags", "path", path, "error", err)
		return models.ReferenceTrack{}, false
	}
	defer tag.Close()

	title, artist := strings.TrimSpace(tag.Title()), strings.TrimSpace(tag.Artist())
	if title == "" || artist == "" {
		return models.ReferenceTrack{}, false
	}
	return models.NewReferenceTrack(title, artist), true
}
