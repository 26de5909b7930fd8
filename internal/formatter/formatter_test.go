package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/spoteemix/internal/match"
	"github.com/desertthunder/spoteemix/internal/models"
	"github.com/desertthunder/spoteemix/internal/shared"
	th "github.com/desertthunder/spoteemix/internal/testing"
)

func sampleReport() *Report {
	found := match.Result{
		Reference: models.NewReferenceTrack("One More Time", "Daft Punk"),
		Candidate: &th.Track{
			Name:    "One More Time",
			Artists: []string{"Daft Punk"},
			Link:    "https://www.deezer.com/track/3135553",
		},
		Confidence: 100,
		Strategy:   "expanded",
	}
	missing := match.Result{Reference: models.NewReferenceTrack("Hella Good", "Niko The Kid", "Benson")}
	report := &match.Report{
		Results:  []match.Result{found, missing},
		Matches:  []match.Result{found},
		NotFound: []models.ReferenceTrack{missing.Reference},
	}
	return NewReport("Spotify", "Deemix", &models.Playlist{Name: "Road | Trip"}, report)
}

func TestNewReport(t *testing.T) {
	r := sampleReport()

	if r.Total != 2 || r.Matched != 1 {
		t.Errorf("expected 1/2 matched, got %d/%d", r.Matched, r.Total)
	}
	if r.Rows[0].MatchURL != "https://www.deezer.com/track/3135553" {
		t.Errorf("match url = %q", r.Rows[0].MatchURL)
	}
	if r.Rows[1].Found || r.Rows[1].Confidence != 0 || r.Rows[1].MatchTitle != "" {
		t.Errorf("not-found row carries match data: %+v", r.Rows[1])
	}
	if missing := r.NotFound(); len(missing) != 1 || missing[0].Title != "Hella Good" {
		t.Errorf("NotFound() = %+v", missing)
	}

	empty := NewReport("a", "b", nil, nil)
	if empty.Total != 0 || empty.Playlist != "" {
		t.Errorf("unexpected empty report %+v", empty)
	}
}

func TestRenderers(t *testing.T) {
	r := sampleReport()

	t.Run("ToCSV", func(t *testing.T) {
		data, err := ToCSV(r)
		if err != nil {
			t.Fatalf("ToCSV failed: %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "Position,Title,Artists,Found,Confidence,Strategy,Match Title,Match Artists,Match URL\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "1,One More Time,Daft Punk,true,100.0,expanded,One More Time,Daft Punk,https://www.deezer.com/track/3135553") {
			t.Errorf("CSV missing match row, got: %s", output)
		}
		if !strings.Contains(output, `2,Hella Good,"Niko The Kid, Benson",false,0.0,,,,`) {
			t.Errorf("CSV missing not-found row, got: %s", output)
		}
	})

	t.Run("ToMarkdown", func(t *testing.T) {
		output := string(ToMarkdown(r))

		for _, want := range []string{
			"# Road | Trip",
			"**Matched**: 1/2",
			"| 1 | One More Time - Daft Punk | [One More Time - Daft Punk](https://www.deezer.com/track/3135553) | 100.0 | expanded |",
			"## Not found",
			"2. Hella Good - Niko The Kid, Benson",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ToText", func(t *testing.T) {
		output := string(ToText(r))

		if !strings.Contains(output, "1/2 tracks matched.") {
			t.Errorf("text missing summary, got: %s", output)
		}
		if !strings.Contains(output, "These songs couldn't be found:\nHella Good - Niko The Kid, Benson\n") {
			t.Errorf("text missing not-found list, got: %s", output)
		}
	})

	t.Run("ToJSON", func(t *testing.T) {
		data, err := ToJSON(r)
		if err != nil {
			t.Fatalf("ToJSON failed: %v", err)
		}

		var decoded Report
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Matched != 1 || len(decoded.Rows) != 2 || decoded.Rows[0].Strategy != "expanded" {
			t.Errorf("unexpected decoded report %+v", decoded)
		}
	})

	t.Run("Render unknown format", func(t *testing.T) {
		if _, err := Render(r, Format("xml")); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestFormatFromPath(t *testing.T) {
	tc := []struct {
		path string
		want Format
	}{
		{"report.csv", FormatCSV},
		{"out/REPORT.MD", FormatMarkdown},
		{"report.txt", FormatText},
		{"report.json", FormatJSON},
	}
	for _, tt := range tc {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if err != nil || got != tt.want {
				t.Errorf("FormatFromPath(%q) = %q, %v", tt.path, got, err)
			}
		})
	}

	if _, err := FormatFromPath("report.xml"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}

func TestWriters(t *testing.T) {
	r := sampleReport()

	t.Run("WriteFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "report.md")
		if err := WriteFile(r, path); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.HasPrefix(content, "# Road | Trip") {
			t.Errorf("unexpected file content: %s", content)
		}
	})

	t.Run("WriteTo failing writer", func(t *testing.T) {
		if err := WriteTo(&th.FWriter{}, r, FormatText); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("WriteTo", func(t *testing.T) {
		var sb strings.Builder
		if err := WriteTo(&sb, r, FormatCSV); err != nil {
			t.Fatalf("WriteTo failed: %v", err)
		}
		if !strings.Contains(sb.String(), "Hella Good") {
			t.Errorf("unexpected output %s", sb.String())
		}
	})
}
