// Package fuzzy scores how alike two event or title strings are, word by
// word, using Jaro-Winkler similarity.
package fuzzy

import (
	"regexp"
	"strings"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/unicode/norm"
)

const (
	// wordWeight is the weight of each accepted word match.
	wordWeight = 4.0
	// wholeWeight is the weight of the whole-string similarity.
	wholeWeight = 1.0

	longWordLen  = 2
	longWordMin  = 0.85
	shortWordLen = 1
	shortWordMin = 0.80
)

var (
	trailingNumber = regexp.MustCompile(`\s+[0-9]+$`)
	nonWord        = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// Similarity returns a score in [0, 1]. Empty input scores 0, never a match.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	na, nb := prepare(a), prepare(b)
	whole := JaroWinkler(na, nb)

	wa, wb := words(na), words(nb)
	if len(wa) == 0 || len(wb) == 0 {
		return whole
	}

	var (
		sum     float64
		matched int
	)
	for _, w1 := range wa {
		best := 0.0
		n := len([]rune(w1))
		for _, w2 := range wb {
			sim := JaroWinkler(w1, w2)
			if accepted(n, sim) && sim > best {
				best = sim
			}
		}
		if best > 0 {
			sum += best
			matched++
		}
	}
	if matched == 0 {
		return whole
	}
	return (sum*wordWeight + whole*wholeWeight) / (float64(matched)*wordWeight + wholeWeight)
}

// JaroWinkler is the plain whole-string similarity of a and b.
func JaroWinkler(a, b string) float64 {
	return float64(edlib.JaroWinklerSimilarity(a, b))
}

// accepted applies the length-dependent threshold for a word of n runes.
func accepted(n int, sim float64) bool {
	switch {
	case n >= longWordLen:
		return sim > longWordMin
	case n >= shortWordLen:
		return sim > shortWordMin
	default:
		return false
	}
}

func prepare(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}

func words(s string) []string {
	s = trailingNumber.ReplaceAllString(s, "")
	parts := nonWord.Split(s, -1)
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}
