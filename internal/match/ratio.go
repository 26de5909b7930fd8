package match

import (
	"math"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Ratio returns the similarity of a and b on a 0-100 scale, computed as 2*M/T where M is the
// length of their longest common subsequence and T is the combined rune count.
//
// Comparison is case and punctuation sensitive. The result is rounded half to even. Identical
// strings, including two empty ones, are 100; otherwise an empty string scores 0.
func Ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	if la == 0 || lb == 0 {
		return 0
	}

	m := edlib.LCS(a, b)
	return math.RoundToEven(100 * float64(2*m) / float64(la+lb))
}

// bestOf returns the highest [Ratio] between name and any of choices.
// ok is false when there is nothing to compare against.
func bestOf(name string, choices []string) (match string, score float64, ok bool) {
	for i, choice := range choices {
		r := Ratio(name, choice)
		if i == 0 || r > score {
			match, score = choice, r
		}
	}
	return match, score, len(choices) > 0
}
