// Package replace applies ordered batches of search-and-replace rules to a
// single evolving text. Rules are independent — one rule failing to match
// never rolls back another's replacement — but they are applied
// sequentially, so rule N observes rule N-1's output. That ordering is
// load-bearing for contract edits (a renamed party must be visible to later
// rules) and must not be parallelized.
package replace

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/wangpeng1017/docedit/internal/search"
)

// ErrEmptySearch rejects rules whose SearchText is empty.
var ErrEmptySearch = errors.New("replace: empty search text")

// RuleOptions mirrors search.Options plus regex mode.
type RuleOptions struct {
	CaseSensitive bool `json:"case_sensitive"`
	WholeWord     bool `json:"whole_word"`
	UseRegex      bool `json:"use_regex"`
}

// Rule is one caller-supplied replacement. ID must be unique per batch.
// FieldType is an optional hint ("phone", "amount", ...) consumed by the
// diagnostics package, never by the engine itself.
type Rule struct {
	ID          string      `json:"id"`
	SearchText  string      `json:"search_text"`
	ReplaceText string      `json:"replace_text"`
	Options     RuleOptions `json:"options"`
	FieldType   string      `json:"field_type,omitempty"`
	Priority    int         `json:"priority"`
}

// Result reports one rule's outcome. ReplacedCount equals MatchCount
// whenever Success is true and is 0 otherwise.
type Result struct {
	RuleID          string `json:"rule_id"`
	SearchText      string `json:"search_text"`
	ReplaceText     string `json:"replace_text"`
	MatchCount      int    `json:"match_count"`
	ReplacedCount   int    `json:"replaced_count"`
	Success         bool   `json:"success"`
	UsedFuzzy       bool   `json:"used_fuzzy,omitempty"`
	EffectiveSearch string `json:"effective_search,omitempty"`
	Error           string `json:"error,omitempty"`
}

// BatchOptions tunes a Smart call.
type BatchOptions struct {
	// FuzzyFallback retries a zero-match exact rule with fuzzy search and,
	// on a hit, substitutes the literal matched text. The fallback is always
	// recorded on the Result, never silent.
	FuzzyFallback    bool    `json:"fuzzy_fallback"`
	FuzzyThreshold   float64 `json:"fuzzy_threshold,omitempty"`
	FuzzyMaxDistance int     `json:"fuzzy_max_distance,omitempty"`
}

// BatchResult aggregates a whole batch. Success is true only if every rule
// succeeded; individual Results stay independently inspectable either way.
type BatchResult struct {
	Text              string   `json:"text"`
	Results           []Result `json:"results"`
	TotalMatches      int      `json:"total_matches"`
	TotalReplacements int      `json:"total_replacements"`
	Success           bool     `json:"success"`
}

// Smart validates all rules up front (fail-fast on empty search text or an
// uncompilable regex — nothing is partially applied), then applies them in
// priority order, higher first, stable by input order on ties.
func Smart(text string, rules []Rule, opts BatchOptions) (*BatchResult, error) {
	for _, r := range rules {
		if r.SearchText == "" {
			return nil, fmt.Errorf("rule %q: %w", r.ID, ErrEmptySearch)
		}
		if r.Options.UseRegex {
			if _, err := search.Regex("", r.SearchText, r.Options.CaseSensitive); err != nil {
				return nil, fmt.Errorf("rule %q: %w", r.ID, err)
			}
		}
	}

	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	batch := &BatchResult{Text: text, Success: true}
	cur := text

	for _, rule := range ordered {
		res := applyRule(&cur, rule, opts)
		batch.Results = append(batch.Results, res)
		batch.TotalMatches += res.MatchCount
		batch.TotalReplacements += res.ReplacedCount
		if !res.Success {
			batch.Success = false
		}
	}

	batch.Text = cur
	return batch, nil
}

func applyRule(cur *string, rule Rule, opts BatchOptions) Result {
	res := Result{
		RuleID:      rule.ID,
		SearchText:  rule.SearchText,
		ReplaceText: rule.ReplaceText,
	}

	var matches []search.Match
	if rule.Options.UseRegex {
		// Compile already validated; an error here would be a logic bug.
		matches, _ = search.Regex(*cur, rule.SearchText, rule.Options.CaseSensitive)
	} else {
		matches = search.Exact(*cur, rule.SearchText, search.Options{
			CaseSensitive: rule.Options.CaseSensitive,
			WholeWord:     rule.Options.WholeWord,
		})
		if len(matches) == 0 && opts.FuzzyFallback {
			fz := search.Fuzzy(*cur, rule.SearchText, search.FuzzyOptions{
				Threshold:   opts.FuzzyThreshold,
				MaxDistance: opts.FuzzyMaxDistance,
			})
			if len(fz) > 0 {
				res.UsedFuzzy = true
				res.EffectiveSearch = fz[0].Text
				matches = search.Exact(*cur, fz[0].Text, search.Options{CaseSensitive: true})
			}
		}
	}

	res.MatchCount = len(matches)
	if len(matches) == 0 {
		res.Error = "no match"
		return res
	}

	*cur = splice(*cur, matches, rule.ReplaceText)
	res.ReplacedCount = len(matches)
	res.Success = true
	return res
}

// splice substitutes replacement for every match span. Matches must be
// ascending and non-overlapping, which all three strategies guarantee.
// Replacement is always literal, even for regex-sourced matches: no
// backreference expansion.
func splice(text string, matches []search.Match, replacement string) string {
	var b strings.Builder
	b.Grow(len(text))
	prev := 0
	for _, m := range matches {
		b.WriteString(text[prev:m.Start])
		b.WriteString(replacement)
		prev = m.End
	}
	b.WriteString(text[prev:])
	return b.String()
}
