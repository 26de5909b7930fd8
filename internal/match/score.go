package match

import (
	"cmp"
	"slices"

	"github.com/desertthunder/spoteemix/internal/models"
)

// Candidate is a read-only search result from the target catalog.
type Candidate interface {
	Title() string
	ArtistNames() []string
	HasFormat(f models.Format) bool
}

// ArtistScore is the best match of one candidate artist against the reference artists.
type ArtistScore struct {
	Name    string  `json:"name"`    // candidate artist
	Matched string  `json:"matched"` // closest reference artist
	Score   float64 `json:"score"`   // Ratio(Name, Matched)
}

// Breakdown explains how a confidence was computed.
type Breakdown struct {
	Title      float64       `json:"title"`
	Artists    []ArtistScore `json:"artists"` // sorted by score, best first
	Confidence float64       `json:"confidence"`
}

// Score returns the confidence (0-100) that c is the same song as ref.
func Score(ref models.ReferenceTrack, c Candidate) float64 {
	return Explain(ref, c).Confidence
}

// Explain scores c against ref and returns every component of the score.
//
// With no reference artists the confidence is the title ratio alone. Otherwise it is the mean of
// the title ratio and one best-of-N ratio per candidate artist.
func Explain(ref models.ReferenceTrack, c Candidate) Breakdown {
	b := Breakdown{Title: Ratio(c.Title(), ref.Title)}
	if len(ref.Artists) == 0 {
		b.Confidence = b.Title
		return b
	}

	for _, name := range c.ArtistNames() {
		matched, score, ok := bestOf(name, ref.Artists)
		if !ok {
			continue
		}
		b.Artists = append(b.Artists, ArtistScore{Name: name, Matched: matched, Score: score})
	}

	slices.SortStableFunc(b.Artists, func(x, y ArtistScore) int {
		return cmp.Compare(y.Score, x.Score)
	})

	sum := b.Title
	for _, a := range b.Artists {
		sum += a.Score
	}
	b.Confidence = sum / float64(len(b.Artists)+1)
	return b
}
