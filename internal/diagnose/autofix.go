package diagnose

import (
	"fmt"
	"strings"

	"github.com/wangpeng1017/docedit/internal/replace"
	"github.com/wangpeng1017/docedit/internal/search"
)

// Fix records one correction AutoFix applied.
type Fix struct {
	RuleID string `json:"rule_id"`
	Change string `json:"change"`
	Detail string `json:"detail"`
}

// AutoFix returns a corrected copy of the rules plus a record of every
// change. Each correction is deliberately narrow:
//
//   - whitespace is trimmed from the search text;
//   - case sensitivity is disabled only when that takes the exact match
//     count from zero to nonzero;
//   - regex mode is enabled when metacharacters are present and the text
//     compiles as a pattern;
//   - the search text is swapped for the literal best fuzzy match only when
//     exact search finds nothing and fuzzy search does.
//
// ReplaceText is never touched.
func AutoFix(text string, rules []replace.Rule) ([]replace.Rule, []Fix) {
	fixed := make([]replace.Rule, len(rules))
	copy(fixed, rules)
	var fixes []Fix

	for i := range fixed {
		rule := &fixed[i]

		if trimmed := strings.TrimSpace(rule.SearchText); trimmed != rule.SearchText && trimmed != "" {
			fixes = append(fixes, Fix{
				RuleID: rule.ID,
				Change: "trim_whitespace",
				Detail: fmt.Sprintf("%q -> %q", rule.SearchText, trimmed),
			})
			rule.SearchText = trimmed
		}

		exact := func(opts search.Options) int {
			return len(search.Exact(text, rule.SearchText, opts))
		}
		sensitive := search.Options{CaseSensitive: rule.Options.CaseSensitive, WholeWord: rule.Options.WholeWord}

		if rule.Options.CaseSensitive && exact(sensitive) == 0 {
			insensitive := search.Options{WholeWord: rule.Options.WholeWord}
			if exact(insensitive) > 0 {
				rule.Options.CaseSensitive = false
				fixes = append(fixes, Fix{
					RuleID: rule.ID,
					Change: "disable_case_sensitive",
					Detail: "case-insensitive search finds matches",
				})
			}
		}

		if !rule.Options.UseRegex && strings.ContainsAny(rule.SearchText, metaChars) {
			if _, err := search.Regex("", rule.SearchText, rule.Options.CaseSensitive); err == nil {
				rule.Options.UseRegex = true
				fixes = append(fixes, Fix{
					RuleID: rule.ID,
					Change: "enable_regex",
					Detail: "search text contains regex metacharacters",
				})
			}
		}

		if !rule.Options.UseRegex {
			current := search.Options{CaseSensitive: rule.Options.CaseSensitive, WholeWord: rule.Options.WholeWord}
			if len(search.Exact(text, rule.SearchText, current)) == 0 {
				if fz := search.Fuzzy(text, rule.SearchText, search.FuzzyOptions{}); len(fz) > 0 {
					fixes = append(fixes, Fix{
						RuleID: rule.ID,
						Change: "adopt_fuzzy_match",
						Detail: fmt.Sprintf("%q -> %q", rule.SearchText, fz[0].Text),
					})
					rule.SearchText = fz[0].Text
				}
			}
		}
	}

	return fixed, fixes
}
