// Package validate runs post-hoc checks over a completed replace batch. It
// never mutates anything; it only classifies what already happened.
package validate

import (
	"fmt"
	"unicode/utf8"

	"github.com/wangpeng1017/docedit/internal/replace"
)

// Options selects which check groups run. StrictMode promotes every warning
// to a hard error, intended for unattended execution.
type Options struct {
	CheckIntegrity   bool `json:"check_integrity"`
	CheckConsistency bool `json:"check_consistency"`
	CheckQuality     bool `json:"check_quality"`
	StrictMode       bool `json:"strict_mode"`
}

// DefaultOptions enables all check groups without strict mode.
func DefaultOptions() Options {
	return Options{CheckIntegrity: true, CheckConsistency: true, CheckQuality: true}
}

// Issue is one finding, tied to a rule where applicable.
type Issue struct {
	Check   string `json:"check"`
	RuleID  string `json:"rule_id,omitempty"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// Report is the outcome of Batch. Valid is true iff there are no errors;
// warnings alone never fail a non-strict run.
type Report struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Batch validates a batch result against the rules that produced it.
func Batch(result *replace.BatchResult, rules []replace.Rule, opts Options) Report {
	var r Report
	if result == nil {
		r.Errors = append(r.Errors, Issue{Check: "integrity", Message: "nil batch result"})
		return r
	}

	byID := make(map[string]replace.Rule, len(rules))
	for _, rule := range rules {
		byID[rule.ID] = rule
	}

	if opts.CheckIntegrity {
		checkIntegrity(&r, result, byID)
	}
	if opts.CheckConsistency {
		checkConsistency(&r, rules)
	}
	if opts.CheckQuality {
		checkQuality(&r, result, byID)
	}

	if opts.StrictMode && len(r.Warnings) > 0 {
		r.Errors = append(r.Errors, r.Warnings...)
		r.Warnings = nil
	}
	r.Valid = len(r.Errors) == 0
	return r
}

func checkIntegrity(r *Report, result *replace.BatchResult, byID map[string]replace.Rule) {
	for _, res := range result.Results {
		if res.Success && res.ReplacedCount < 1 {
			r.Errors = append(r.Errors, Issue{
				Check:   "integrity",
				RuleID:  res.RuleID,
				Message: "successful result with zero replacements",
			})
		}
		if res.ReplacedCount > res.MatchCount {
			r.Errors = append(r.Errors, Issue{
				Check:   "integrity",
				RuleID:  res.RuleID,
				Message: fmt.Sprintf("replaced %d exceeds matched %d", res.ReplacedCount, res.MatchCount),
			})
		}
		if _, ok := byID[res.RuleID]; !ok {
			r.Errors = append(r.Errors, Issue{
				Check:   "integrity",
				RuleID:  res.RuleID,
				Message: "result does not map to any input rule",
			})
		}
	}
}

// checkConsistency flags duplicate search texts with conflicting
// replacements. Last-wins is permitted in normal mode, so this is a warning
// unless strict mode later promotes it.
func checkConsistency(r *Report, rules []replace.Rule) {
	seen := make(map[string]replace.Rule)
	for _, rule := range rules {
		prev, dup := seen[rule.SearchText]
		if dup && prev.ReplaceText != rule.ReplaceText {
			r.Warnings = append(r.Warnings, Issue{
				Check:  "consistency",
				RuleID: rule.ID,
				Message: fmt.Sprintf("search text %q also targeted by rule %q with a different replacement",
					rule.SearchText, prev.ID),
				Hint: "merge the rules or rely on priority ordering deliberately",
			})
		}
		seen[rule.SearchText] = rule
	}
}

func checkQuality(r *Report, result *replace.BatchResult, byID map[string]replace.Rule) {
	for _, res := range result.Results {
		if res.UsedFuzzy {
			r.Warnings = append(r.Warnings, Issue{
				Check:   "quality",
				RuleID:  res.RuleID,
				Message: fmt.Sprintf("replacement used fuzzy match %q instead of %q", res.EffectiveSearch, res.SearchText),
				Hint:    "verify the matched text before trusting the edit",
			})
		}
		rule, ok := byID[res.RuleID]
		if !ok {
			continue
		}
		if rule.ReplaceText == "" {
			r.Warnings = append(r.Warnings, Issue{
				Check:   "quality",
				RuleID:  res.RuleID,
				Message: "empty replacement text deletes the matched content",
				Hint:    "confirm deletion is intended",
			})
		}
		if utf8.RuneCountInString(rule.SearchText) < 2 {
			r.Warnings = append(r.Warnings, Issue{
				Check:   "quality",
				RuleID:  res.RuleID,
				Message: "search text shorter than 2 characters matches very broadly",
				Hint:    "use a longer, more specific search text",
			})
		}
	}
}
