// package formatter writes match reports as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/spoteemix/internal/match"
	"github.com/desertthunder/spoteemix/internal/models"
	"github.com/desertthunder/spoteemix/internal/shared"
)

// Format is a report output format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "txt"
	FormatJSON     Format = "json"
)

// FormatFromPath picks a format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".txt", ".text":
		return FormatText, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unsupported report extension %q (use .csv, .md, .txt or .json)", shared.ErrInvalidFlag, filepath.Ext(path))
	}
}

// Row is one reference track and its outcome.
type Row struct {
	Position     int      `json:"position"`
	Title        string   `json:"title"`
	Artists      []string `json:"artists"`
	Found        bool     `json:"found"`
	Confidence   float64  `json:"confidence"`
	Strategy     string   `json:"strategy,omitempty"`
	MatchTitle   string   `json:"match_title,omitempty"`
	MatchArtists []string `json:"match_artists,omitempty"`
	MatchURL     string   `json:"match_url,omitempty"`
}

// Report is a flattened, serializable view of a [match.Report].
type Report struct {
	Source      string    `json:"source"`
	Target      string    `json:"target"`
	Playlist    string    `json:"playlist,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
	Total       int       `json:"total"`
	Matched     int       `json:"matched"`
	Rows        []Row     `json:"tracks"`
}

// NewReport flattens r. playlist may be nil.
func NewReport(source, target string, playlist *models.Playlist, r *match.Report) *Report {
	rep := &Report{Source: source, Target: target, GeneratedAt: time.Now().UTC()}
	if playlist != nil {
		rep.Playlist = playlist.Name
	}
	if r == nil {
		return rep
	}

	rep.Total = r.Total()
	rep.Matched = len(r.Matches)
	rep.Rows = make([]Row, 0, len(r.Results))
	for i, res := range r.Results {
		row := Row{
			Position: i + 1,
			Title:    res.Reference.Title,
			Artists:  res.Reference.Artists,
			Found:    res.Found(),
		}
		if res.Found() {
			row.Confidence = res.Confidence
			row.Strategy = res.Strategy
			row.MatchTitle = res.Candidate.Title()
			row.MatchArtists = res.Candidate.ArtistNames()
			if u, ok := res.Candidate.(interface{ URL() string }); ok {
				row.MatchURL = u.URL()
			}
		}
		rep.Rows = append(rep.Rows, row)
	}
	return rep
}

// NotFound returns the rows without a match.
func (r *Report) NotFound() []Row {
	var rows []Row
	for _, row := range r.Rows {
		if !row.Found {
			rows = append(rows, row)
		}
	}
	return rows
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', 1, 64)
}

// ToCSV renders one record per reference track.
func ToCSV(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Title", "Artists", "Found", "Confidence", "Strategy", "Match Title", "Match Artists", "Match URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, row := range r.Rows {
		record := []string{
			strconv.Itoa(row.Position),
			row.Title,
			strings.Join(row.Artists, ", "),
			strconv.FormatBool(row.Found),
			formatConfidence(row.Confidence),
			row.Strategy,
			row.MatchTitle,
			strings.Join(row.MatchArtists, ", "),
			row.MatchURL,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ToMarkdown renders a summary, a table of matches and a list of tracks that were not found.
func ToMarkdown(r *Report) []byte {
	var buf bytes.Buffer

	title := r.Playlist
	if title == "" {
		title = fmt.Sprintf("%s → %s", r.Source, r.Target)
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Matched**: %d/%d\n", r.Matched, r.Total)
	fmt.Fprintf(&buf, "**Generated**: %s\n\n", r.GeneratedAt.Format(time.RFC3339))

	buf.WriteString("## Matches\n\n")
	buf.WriteString("| # | Track | Match | Confidence | Strategy |\n")
	buf.WriteString("|---|---|---|---|---|\n")
	for _, row := range r.Rows {
		if !row.Found {
			continue
		}
		cell := fmt.Sprintf("%s - %s", row.MatchTitle, strings.Join(row.MatchArtists, ", "))
		if row.MatchURL != "" {
			cell = fmt.Sprintf("[%s](%s)", cell, row.MatchURL)
		}
		fmt.Fprintf(&buf, "| %d | %s - %s | %s | %s | %s |\n",
			row.Position, escapeCell(row.Title), escapeCell(strings.Join(row.Artists, ", ")),
			escapeCell(cell), formatConfidence(row.Confidence), row.Strategy)
	}

	if missing := r.NotFound(); len(missing) > 0 {
		buf.WriteString("\n## Not found\n\n")
		for _, row := range missing {
			fmt.Fprintf(&buf, "%d. %s - %s\n", row.Position, row.Title, strings.Join(row.Artists, ", "))
		}
	}

	return buf.Bytes()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ToText renders the summary and not-found list the CLI prints.
func ToText(r *Report) []byte {
	var buf bytes.Buffer

	if r.Playlist != "" {
		fmt.Fprintf(&buf, "Playlist: %s\n", r.Playlist)
	}
	fmt.Fprintf(&buf, "%d/%d tracks matched.\n", r.Matched, r.Total)

	if missing := r.NotFound(); len(missing) > 0 {
		buf.WriteString("\nThese songs couldn't be found:\n")
		for _, row := range missing {
			fmt.Fprintf(&buf, "%s - %s\n", row.Title, strings.Join(row.Artists, ", "))
		}
	}

	return buf.Bytes()
}

// ToJSON renders the whole report.
func ToJSON(r *Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// Render renders r in format f.
func Render(r *Report, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return ToCSV(r)
	case FormatMarkdown:
		return ToMarkdown(r), nil
	case FormatText:
		return ToText(r), nil
	case FormatJSON:
		return ToJSON(r)
	default:
		return nil, fmt.Errorf("%w: unsupported report format %q", shared.ErrInvalidFlag, f)
	}
}

// WriteTo renders r to w.
func WriteTo(w io.Writer, r *Report, f Format) error {
	data, err := Render(r, f)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteFile writes r to path in the format implied by its extension.
func WriteFile(r *Report, path string) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	data, err := Render(r, f)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}
