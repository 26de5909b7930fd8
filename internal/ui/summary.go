package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/spoteemix/internal/models"
)

// Summary is what a finished command reports to the user.
type Summary struct {
	Headline string                  // e.g. "12/15 tracks downloaded."
	Details  []string                // extra lines printed under the headline
	Missing  []models.ReferenceTrack // tracks that couldn't be found
}

// Downloaded builds the headline used by the Deemix conversion.
func Downloaded(queued, total int) string {
	return fmt.Sprintf("%d/%d tracks downloaded.", queued, total)
}

// MissingLine renders one not-found track as "title - artists", title in blue & artists in magenta.
func MissingLine(t models.ReferenceTrack) string {
	line := styles.track.Render(t.Title)
	if len(t.Artists) > 0 {
		line += " - " + styles.artist.Render(t.ArtistLine())
	}
	return line
}

// Render formats the summary for the terminal.
func (s Summary) Render() string {
	var b strings.Builder
	if s.Headline != "" {
		b.WriteString(styles.ok.Render(s.Headline))
		b.WriteString("\n")
	}
	for _, d := range s.Details {
		b.WriteString(d)
		b.WriteString("\n")
	}
	if len(s.Missing) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.warn.Render("These songs couldn't be found:"))
		b.WriteString("\n")
		for _, t := range s.Missing {
			b.WriteString(MissingLine(t))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// WriteSummary writes the rendered summary to w.
func WriteSummary(w io.Writer, s Summary) error {
	_, err := io.WriteString(w, s.Render())
	return err
}
