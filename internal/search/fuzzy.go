package search

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// Fuzzy matching defaults, applied when FuzzyOptions fields are zero.
const (
	DefaultThreshold   = 0.7
	DefaultMaxDistance = 3
)

// FuzzyOptions controls approximate matching.
type FuzzyOptions struct {
	// Threshold is the minimum normalized similarity (0..1] a window must
	// reach to be reported.
	Threshold float64 `json:"threshold"`
	// MaxDistance bounds how far a window's rune length may deviate from the
	// needle's.
	MaxDistance int `json:"max_distance"`
}

func (o FuzzyOptions) withDefaults() FuzzyOptions {
	if o.Threshold <= 0 || o.Threshold > 1 {
		o.Threshold = DefaultThreshold
	}
	if o.MaxDistance <= 0 {
		o.MaxDistance = DefaultMaxDistance
	}
	return o
}

// Fuzzy slides windows of rune length len(needle)±MaxDistance across text
// and scores each by normalized edit distance:
//
//	similarity = 1 - editDistance / max(len(window), len(needle))
//
// Windows below Threshold are discarded; overlapping survivors are merged
// keeping the higher-similarity one. Results are ordered by descending
// similarity, ties broken by the longer window, then ascending start offset.
// The length tie-break matters: a truncated window can score the same
// normalized similarity as the full token it sits inside, and the full token
// is the one a replacement should cover.
func Fuzzy(text, needle string, opts FuzzyOptions) []Match {
	if needle == "" || text == "" {
		return nil
	}
	opts = opts.withDefaults()

	tr := []rune(text)
	n := len([]rune(needle))

	offs := make([]int, len(tr)+1)
	pos := 0
	for i, r := range tr {
		offs[i] = pos
		pos += len(string(r))
	}
	offs[len(tr)] = pos

	minW := n - opts.MaxDistance
	if minW < 1 {
		minW = 1
	}
	maxW := n + opts.MaxDistance

	var candidates []Match
	for i := 0; i < len(tr); i++ {
		for w := minW; w <= maxW && i+w <= len(tr); w++ {
			window := string(tr[i : i+w])
			dist := levenshtein.ComputeDistance(window, needle)
			if dist > opts.MaxDistance {
				continue
			}
			denom := w
			if n > denom {
				denom = n
			}
			sim := 1 - float64(dist)/float64(denom)
			if sim < opts.Threshold {
				continue
			}
			candidates = append(candidates, Match{
				Start:      offs[i],
				End:        offs[i+w],
				Text:       window,
				Similarity: sim,
			})
		}
	}

	// Highest similarity first so the greedy overlap merge below keeps the
	// better window of any overlapping pair.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Similarity != candidates[j].Similarity {
			return candidates[i].Similarity > candidates[j].Similarity
		}
		li := candidates[i].End - candidates[i].Start
		lj := candidates[j].End - candidates[j].Start
		if li != lj {
			return li > lj
		}
		return candidates[i].Start < candidates[j].Start
	})

	var out []Match
	for _, c := range candidates {
		overlaps := false
		for _, kept := range out {
			if c.Start < kept.End && kept.Start < c.End {
				overlaps = true
				break
			}
		}
		if !overlaps {
			out = append(out, c)
		}
	}
	return out
}
