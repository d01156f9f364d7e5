// Package diagnose explains why a replace rule did or did not match, using
// a deterministic checklist rather than anything statistical. It is an
// explicit, opt-in step: normal replace execution never consults it.
package diagnose

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sahilm/fuzzy"

	"github.com/wangpeng1017/docedit/internal/replace"
	"github.com/wangpeng1017/docedit/internal/search"
)

// Confidence constants order the strategies: exact beats fuzzy beats
// regex-only. The exact values are tunable; the ordering is contractual.
const (
	ConfidenceExact = 1.0
	ConfidenceFuzzy = 0.7
	ConfidenceRegex = 0.5
	ConfidenceNone  = 0.0
)

// Severity grades an issue.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Issue is one checklist finding.
type Issue struct {
	Type       string   `json:"type"`
	Severity   Severity `json:"severity"`
	Message    string   `json:"message"`
	Suggestion string   `json:"suggestion,omitempty"`
}

// TextAnalysis describes the search text itself.
type TextAnalysis struct {
	Length             int    `json:"length"` // runes
	HasCJK             bool   `json:"has_cjk"`
	HasSpecialChars    bool   `json:"has_special_chars"`
	LeadingWhitespace  bool   `json:"leading_whitespace"`
	TrailingWhitespace bool   `json:"trailing_whitespace"`
	LineBreaks         int    `json:"line_breaks"`
	Encoding           string `json:"encoding"` // naive guess: ascii, utf-8 or unknown
}

// MatchAnalysis summarizes what each strategy found.
type MatchAnalysis struct {
	ExactCount int           `json:"exact_count"`
	FuzzyCount int           `json:"fuzzy_count"`
	RegexCount int           `json:"regex_count"`
	BestMatch  *search.Match `json:"best_match,omitempty"`
	Confidence float64       `json:"confidence"`
}

// Result is the full diagnostic for one rule.
type Result struct {
	RuleID  string         `json:"rule_id"`
	Exact   []search.Match `json:"exact_matches"`
	Fuzzy   []search.Match `json:"fuzzy_matches"`
	Regex   []search.Match `json:"regex_matches"`
	Issues  []Issue        `json:"issues,omitempty"`
	Text    TextAnalysis   `json:"text_analysis"`
	Matches MatchAnalysis  `json:"match_analysis"`
}

var metaChars = `\.+*?()|[]{}^$`

// Rule runs all three search strategies over text and walks the issue
// checklist for the given rule.
func Rule(text string, rule replace.Rule) *Result {
	res := &Result{RuleID: rule.ID}
	needle := rule.SearchText

	res.Exact = search.Exact(text, needle, search.Options{
		CaseSensitive: rule.Options.CaseSensitive,
		WholeWord:     rule.Options.WholeWord,
	})
	res.Fuzzy = search.Fuzzy(text, needle, search.FuzzyOptions{})
	regexMatches, regexErr := search.Regex(text, needle, rule.Options.CaseSensitive)
	res.Regex = regexMatches

	res.Text = analyzeText(needle)
	res.Matches = analyzeMatches(res)

	// Checklist, in fixed order so output is reproducible.
	if res.Text.Length > 0 && res.Text.Length < 2 {
		res.Issues = append(res.Issues, Issue{
			Type:       "length",
			Severity:   SeverityMedium,
			Message:    "search text is a single character",
			Suggestion: "use at least 2 characters to avoid broad matches",
		})
	}
	if res.Text.HasSpecialChars && !rule.Options.UseRegex {
		res.Issues = append(res.Issues, Issue{
			Type:       "special_chars",
			Severity:   SeverityHigh,
			Message:    "search text contains regex metacharacters but regex mode is off",
			Suggestion: "enable use_regex or remove the metacharacters",
		})
	}
	if res.Text.LeadingWhitespace || res.Text.TrailingWhitespace {
		res.Issues = append(res.Issues, Issue{
			Type:       "whitespace",
			Severity:   SeverityMedium,
			Message:    "search text has leading or trailing whitespace",
			Suggestion: "trim the search text",
		})
	}
	if rule.Options.CaseSensitive && len(res.Exact) == 0 {
		insensitive := search.Exact(text, needle, search.Options{WholeWord: rule.Options.WholeWord})
		if len(insensitive) > 0 {
			res.Issues = append(res.Issues, Issue{
				Type:       "case",
				Severity:   SeverityMedium,
				Message:    "case-insensitive search finds matches where case-sensitive does not",
				Suggestion: "disable case_sensitive",
			})
		}
	}
	if rule.Options.UseRegex && regexErr != nil {
		res.Issues = append(res.Issues, Issue{
			Type:       "regex",
			Severity:   SeverityHigh,
			Message:    regexErr.Error(),
			Suggestion: "fix the pattern syntax",
		})
	}
	res.Issues = append(res.Issues, fieldTypeIssues(rule)...)

	if res.Matches.Confidence == ConfidenceNone {
		issue := Issue{
			Type:     "no_match",
			Severity: SeverityHigh,
			Message:  "no strategy found the search text",
		}
		if s := closestToken(text, needle); s != "" {
			issue.Suggestion = "closest token in the document: " + s
		}
		res.Issues = append(res.Issues, issue)
	}

	return res
}

func analyzeText(needle string) TextAnalysis {
	ta := TextAnalysis{
		Length:             utf8.RuneCountInString(needle),
		HasSpecialChars:    strings.ContainsAny(needle, metaChars),
		LeadingWhitespace:  needle != strings.TrimLeft(needle, " \t\n\r"),
		TrailingWhitespace: needle != strings.TrimRight(needle, " \t\n\r"),
		LineBreaks:         strings.Count(needle, "\n"),
	}
	for _, r := range needle {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hiragana, r) ||
			unicode.Is(unicode.Katakana, r) || unicode.Is(unicode.Hangul, r) {
			ta.HasCJK = true
			break
		}
	}
	switch {
	case !utf8.ValidString(needle):
		ta.Encoding = "unknown"
	case needle == "" || isASCII(needle):
		ta.Encoding = "ascii"
	default:
		ta.Encoding = "utf-8"
	}
	return ta
}

func analyzeMatches(res *Result) MatchAnalysis {
	ma := MatchAnalysis{
		ExactCount: len(res.Exact),
		FuzzyCount: len(res.Fuzzy),
		RegexCount: len(res.Regex),
	}
	switch {
	case ma.ExactCount > 0:
		ma.Confidence = ConfidenceExact
		ma.BestMatch = &res.Exact[0]
	case ma.FuzzyCount > 0:
		ma.Confidence = ConfidenceFuzzy
		ma.BestMatch = &res.Fuzzy[0]
	case ma.RegexCount > 0:
		ma.Confidence = ConfidenceRegex
		ma.BestMatch = &res.Regex[0]
	default:
		ma.Confidence = ConfidenceNone
	}
	return ma
}

var (
	phoneChars  = regexp.MustCompile(`^[0-9+\-() ]+$`)
	amountDigit = regexp.MustCompile(`[0-9０-９]`)
)

// fieldTypeIssues checks format hints: a "phone" search text should look
// like a phone number, an "amount" one should contain digits.
func fieldTypeIssues(rule replace.Rule) []Issue {
	var issues []Issue
	switch rule.FieldType {
	case "phone":
		if !phoneChars.MatchString(rule.SearchText) {
			issues = append(issues, Issue{
				Type:       "field_format",
				Severity:   SeverityMedium,
				Message:    "field_type is phone but the search text contains non-phone characters",
				Suggestion: "restrict the search text to digits, spaces, +, -, ( and )",
			})
		}
	case "amount":
		if !amountDigit.MatchString(rule.SearchText) {
			issues = append(issues, Issue{
				Type:       "field_format",
				Severity:   SeverityMedium,
				Message:    "field_type is amount but the search text contains no digits",
				Suggestion: "include the numeric amount in the search text",
			})
		}
	}
	return issues
}

// closestToken ranks document tokens against the needle and returns the best
// candidate, or "" when nothing ranks.
func closestToken(text, needle string) string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r)
	})
	seen := make(map[string]bool, len(fields))
	var tokens []string
	for _, f := range fields {
		if f == needle || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	ranked := fuzzy.Find(needle, tokens)
	if len(ranked) == 0 {
		return ""
	}
	return ranked[0].Str
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
