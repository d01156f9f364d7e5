// Package search provides the three matching strategies used by the
// replace engine: exact, fuzzy (normalized edit distance) and regex. All
// functions are pure and safe for concurrent use.
package search

import (
	"fmt"
	"regexp"
	"unicode"
)

// Match is one hit in the searched text. Start and End are byte offsets,
// Text is the original-case matched substring. Similarity is set by Fuzzy
// only.
type Match struct {
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity,omitempty"`
}

// Options controls exact matching.
type Options struct {
	CaseSensitive bool `json:"case_sensitive"`
	WholeWord     bool `json:"whole_word"`
}

// Exact finds literal occurrences of needle in text, ascending by start
// offset and non-overlapping. Case-insensitive comparison folds both sides
// rune-wise but reported spans and Text keep the original case.
func Exact(text, needle string, opts Options) []Match {
	if needle == "" || text == "" {
		return nil
	}

	tr := []rune(text)
	nr := []rune(needle)
	if len(nr) > len(tr) {
		return nil
	}

	// Byte offset of each rune, plus the end-of-text sentinel, so spans can
	// be reported against the original string.
	offs := make([]int, len(tr)+1)
	pos := 0
	for i, r := range tr {
		offs[i] = pos
		pos += len(string(r))
	}
	offs[len(tr)] = pos

	fold := func(r rune) rune {
		if opts.CaseSensitive {
			return r
		}
		return unicode.ToLower(r)
	}
	folded := make([]rune, len(nr))
	for i, r := range nr {
		folded[i] = fold(r)
	}
	cjk := containsCJK(nr)

	var out []Match
	for i := 0; i+len(nr) <= len(tr); {
		ok := true
		for j, fr := range folded {
			if fold(tr[i+j]) != fr {
				ok = false
				break
			}
		}
		if ok && opts.WholeWord && !boundaryOK(tr, i, i+len(nr), cjk) {
			ok = false
		}
		if !ok {
			i++
			continue
		}
		out = append(out, Match{
			Start: offs[i],
			End:   offs[i+len(nr)],
			Text:  string(tr[i : i+len(nr)]),
		})
		i += len(nr)
	}
	return out
}

// boundaryOK checks whole-word adjacency: the runes next to the match must
// not be word characters. CJK needles have no word boundaries in that sense,
// so they degrade to a whitespace/punctuation adjacency check. That is a
// documented approximation, not full CJK segmentation.
func boundaryOK(tr []rune, start, end int, cjkNeedle bool) bool {
	check := func(r rune) bool {
		if cjkNeedle {
			return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
		}
		return !isWordRune(r)
	}
	if start > 0 && !check(tr[start-1]) {
		return false
	}
	if end < len(tr) && !check(tr[end]) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func containsCJK(rs []rune) bool {
	for _, r := range rs {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

// InvalidPatternError reports a regex pattern that failed to compile.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("search: invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() error { return e.Err }

// Regex finds all pattern matches in text. The stdlib RE2 engine guarantees
// linear-time matching, so caller-supplied patterns cannot trigger
// catastrophic backtracking. A bad pattern fails fast with
// *InvalidPatternError — it never silently yields zero matches.
func Regex(text, pattern string, caseSensitive bool) ([]Match, error) {
	p := pattern
	if !caseSensitive {
		p = "(?i)" + p
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: pattern, Err: err}
	}

	var out []Match
	for _, loc := range re.FindAllStringIndex(text, -1) {
		if loc[0] == loc[1] {
			continue // zero-width matches carry no replaceable text
		}
		out = append(out, Match{Start: loc[0], End: loc[1], Text: text[loc[0]:loc[1]]})
	}
	return out, nil
}
