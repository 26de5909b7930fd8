package match

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spoteemix/internal/models"
	"github.com/desertthunder/spoteemix/internal/shared"
)

const (
	ExpandedThreshold float64 = 75
	RelaxedThreshold  float64 = 60
)

var parenthetical = regexp.MustCompile(`\(.+\)`)

// Searcher queries the target catalog. Implementations return an error for transport failures
// and malformed responses; the ladder treats both as an empty result set.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Candidate, error)
}

// SearchFunc adapts a function to [Searcher].
type SearchFunc func(ctx context.Context, query string) ([]Candidate, error)

func (f SearchFunc) Search(ctx context.Context, query string) ([]Candidate, error) {
	return f(ctx, query)
}

// Strategy is one rung of the ladder: how to build a query and the confidence required to accept
// its best candidate.
type Strategy struct {
	Name      string
	Query     func(models.ReferenceTrack) string
	Threshold float64
}

// Expanded queries "title artist1 artist2 ...".
func Expanded(threshold float64) Strategy {
	return Strategy{
		Name:      "expanded",
		Threshold: threshold,
		Query: func(t models.ReferenceTrack) string {
			return strings.Join(append([]string{t.Title}, t.Artists...), " ")
		},
	}
}

// TitleOnly queries the bare title.
func TitleOnly(threshold float64) Strategy {
	return Strategy{
		Name:      "title",
		Threshold: threshold,
		Query:     func(t models.ReferenceTrack) string { return t.Title },
	}
}

// ShortTitle queries the expanded form with parenthesized spans removed from the title,
// e.g. "Song (feat. X) (Remix)" becomes "Song".
func ShortTitle(threshold float64) Strategy {
	return Strategy{
		Name:      "short",
		Threshold: threshold,
		Query: func(t models.ReferenceTrack) string {
			short := t
			short.Title = StripParenthetical(t.Title)
			return Expanded(threshold).Query(short)
		},
	}
}

// StripParenthetical removes everything between the first "(" and the last ")".
func StripParenthetical(title string) string {
	return strings.TrimSpace(parenthetical.ReplaceAllString(title, ""))
}

// DefaultStrategies is the ladder used to look tracks up in Deezer.
func DefaultStrategies() []Strategy {
	return []Strategy{
		Expanded(ExpandedThreshold),
		TitleOnly(RelaxedThreshold),
		ShortTitle(RelaxedThreshold),
	}
}

// LookupStrategies is the single-step ladder used to look local files up in Spotify.
func LookupStrategies() []Strategy {
	return []Strategy{Expanded(RelaxedThreshold)}
}

// Result is the outcome of resolving one reference track.
//
// A Result with a nil Candidate and zero Confidence means not found.
type Result struct {
	Reference  models.ReferenceTrack
	Candidate  Candidate
	Confidence float64
	Strategy   string // name of the accepting strategy
	Attempts   int    // searches issued
}

// Found reports whether the ladder accepted a candidate.
func (r Result) Found() bool {
	return r.Candidate != nil && r.Confidence > 0
}

// Ladder resolves reference tracks by trying each [Strategy] in order.
type Ladder struct {
	searcher   Searcher
	strategies []Strategy
	logger     *log.Logger
}

// LadderOpts configures a [Ladder]. Zero values fall back to [DefaultStrategies] and a stderr logger.
type LadderOpts struct {
	Strategies []Strategy
	Logger     *log.Logger
}

func NewLadder(s Searcher, opts LadderOpts) *Ladder {
	if opts.Strategies == nil {
		opts.Strategies = DefaultStrategies()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Ladder{searcher: s, strategies: opts.Strategies, logger: opts.Logger}
}

// Resolve returns the first candidate whose confidence meets the threshold of the strategy that
// found it. Strategies after the accepting one are never queried. Scoring always uses the
// original reference title, whatever query was sent.
func (l *Ladder) Resolve(ctx context.Context, ref models.ReferenceTrack, pref models.Format) Result {
	res := Result{Reference: ref}

	for _, s := range l.strategies {
		if ctx.Err() != nil {
			return res
		}

		query := s.Query(ref)
		res.Attempts++

		candidates, err := l.searcher.Search(ctx, query)
		if err != nil {
			l.logger.Warn("search failed", "track", ref.String(), "strategy", s.Name, "query", query, "error", err)
			continue
		}
		if len(candidates) == 0 {
			l.logger.Debug("no candidates", "strategy", s.Name, "query", query)
			continue
		}

		best, confidence := Select(candidates, Rank(ref, candidates), pref)
		if confidence >= s.Threshold {
			l.logger.Debug("accepted", "strategy", s.Name, "title", best.Title(), "confidence", confidence)
			res.Candidate, res.Confidence, res.Strategy = best, confidence, s.Name
			return res
		}
		l.logger.Debug("rejected", "strategy", s.Name, "title", best.Title(), "confidence", confidence, "threshold", s.Threshold)
	}
	return res
}
