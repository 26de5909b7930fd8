package match

import (
	"cmp"
	"slices"

	"github.com/desertthunder/spoteemix/internal/models"
)

// Scored pairs a candidate's position in its result set with its confidence.
type Scored struct {
	Index      int
	Confidence float64
}

// Rank scores every candidate against ref and sorts by confidence, highest first.
//
// The sort is stable: equal confidences keep their original candidate-set order.
func Rank(ref models.ReferenceTrack, candidates []Candidate) []Scored {
	scored := make([]Scored, len(candidates))
	for i, c := range candidates {
		scored[i] = Scored{Index: i, Confidence: Score(ref, c)}
	}

	slices.SortStableFunc(scored, func(a, b Scored) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	return scored
}

// TopGroup returns the leading run of scored that shares the best confidence.
// scored must already be sorted by [Rank].
func TopGroup(scored []Scored) []Scored {
	for i := 0; i < len(scored)-1; i++ {
		if scored[i+1].Confidence < scored[i].Confidence {
			return scored[:i+1]
		}
	}
	return scored
}

// Select picks the winner among the top-tied candidates.
//
// The first tied candidate available in pref wins. When none is, the first of the group wins.
// Callers must not pass an empty scored list; if they do, Select returns (nil, 0).
func Select(candidates []Candidate, scored []Scored, pref models.Format) (Candidate, float64) {
	best := TopGroup(scored)
	if len(best) == 0 {
		return nil, 0
	}

	for _, s := range best {
		if c := candidates[s.Index]; c.HasFormat(pref) {
			return c, s.Confidence
		}
	}

	return candidates[best[0].Index], best[0].Confidence
}
