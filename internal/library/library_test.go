package library

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/charmbracelet/log"
)

func TestParseFileName(t *testing.T) {
	tc := []struct {
		name       string
		wantTitle  string
		wantArtist string
	}{
		{"Daft Punk - One More Time.mp3", "One More Time", "Daft Punk"},
		{"LF SYSTEM - Afraid To Feel - Tommy Villiers Remix.mp3", "Afraid To Feel - Tommy Villiers Remix", "LF SYSTEM"},
		{"Untitled.mp3", "Untitled", ""},
		{"Dash-without-spaces.MP3", "Dash-without-spaces", ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFileName(tt.name)
			if got.Title != tt.wantTitle {
				t.Errorf("title = %q, want %q", got.Title, tt.wantTitle)
			}
			if tt.wantArtist == "" && len(got.Artists) != 0 {
				t.Errorf("expected no artists, got %v", got.Artists)
			}
			if tt.wantArtist != "" && (len(got.Artists) != 1 || got.Artists[0] != tt.wantArtist) {
				t.Errorf("artists = %v, want [%s]", got.Artists, tt.wantArtist)
			}
		})
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeTagged(t *testing.T, path, title, artist string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	tag := id3v2.NewEmptyTag()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(title)
	tag.SetArtist(artist)
	if _, err := tag.WriteTo(f); err != nil {
		t.Fatalf("write tag: %v", err)
	}
	if _, err := f.Write([]byte("audio frames would follow")); err != nil {
		t.Fatalf("write body: %v", err)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	noTag := []byte("not an id3 tag, just bytes")

	writeFile(t, filepath.Join(dir, "b - Second.mp3"), noTag)
	writeFile(t, filepath.Join(dir, "a - First.mp3"), noTag)
	writeFile(t, filepath.Join(dir, "cover.jpg"), noTag)
	writeFile(t, filepath.Join(dir, "Loose Track.mp3"), noTag)
	writeTagged(t, filepath.Join(dir, "c - wrong name.mp3"), "Tagged Title", "Tagged Artist")
	if err := os.Mkdir(filepath.Join(dir, "sub.mp3"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := Scan(dir, log.New(io.Discard))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(files) != 4 {
		t.Fatalf("expected 4 files, got %d: %+v", len(files), files)
	}

	tracks := Tracks(files)
	// byte order puts the capitalized name first
	want := []string{"Loose Track", "First", "Second", "Tagged Title"}
	for i, w := range want {
		if tracks[i].Title != w {
			t.Errorf("track %d title = %q, want %q", i, tracks[i].Title, w)
		}
	}

	tagged := files[3]
	if !tagged.FromTags || tagged.Track.Artists[0] != "Tagged Artist" {
		t.Errorf("expected tag data, got %+v", tagged)
	}
	if files[0].FromTags || len(files[0].Track.Artists) != 0 {
		t.Errorf("expected title-only track from name, got %+v", files[0])
	}
}

func TestScanMissingDir(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "missing"), log.New(io.Discard)); err == nil {
		t.Error("expected error for missing directory")
	}
}
