package diagnose

import (
	"testing"

	"github.com/wangpeng1017/docedit/internal/replace"
)

func hasIssue(res *Result, typ string) bool {
	for _, iss := range res.Issues {
		if iss.Type == typ {
			return true
		}
	}
	return false
}

func TestRule_ExactHitHasTopConfidence(t *testing.T) {
	res := Rule("甲方：A公司", replace.Rule{ID: "r1", SearchText: "A公司"})
	if res.Matches.Confidence != ConfidenceExact {
		t.Errorf("expected exact confidence, got %v", res.Matches.Confidence)
	}
	if res.Matches.BestMatch == nil || res.Matches.BestMatch.Text != "A公司" {
		t.Errorf("unexpected best match %+v", res.Matches.BestMatch)
	}
	if hasIssue(res, "no_match") {
		t.Error("no_match issue must not appear when a strategy matched")
	}
}

func TestRule_FuzzyOnlyConfidence(t *testing.T) {
	res := Rule("Acme Corporatoin", replace.Rule{ID: "r1", SearchText: "Corporation"})
	if res.Matches.ExactCount != 0 {
		t.Fatalf("expected no exact match, got %d", res.Matches.ExactCount)
	}
	if res.Matches.Confidence != ConfidenceFuzzy {
		t.Errorf("expected fuzzy confidence, got %v", res.Matches.Confidence)
	}
}

func TestRule_NoMatchSuggestsClosestToken(t *testing.T) {
	res := Rule("the contrcat was signed", replace.Rule{ID: "r1", SearchText: "zzzz"})
	if res.Matches.Confidence != ConfidenceNone {
		t.Fatalf("expected zero confidence, got %v", res.Matches.Confidence)
	}
	if !hasIssue(res, "no_match") {
		t.Error("expected no_match issue")
	}
}

func TestRule_ChecklistFindings(t *testing.T) {
	cases := []struct {
		name string
		rule replace.Rule
		typ  string
	}{
		{"single char", replace.Rule{ID: "r", SearchText: "x"}, "length"},
		{"metachars without regex", replace.Rule{ID: "r", SearchText: `a(b)`}, "special_chars"},
		{"trailing space", replace.Rule{ID: "r", SearchText: "word "}, "whitespace"},
		{"phone hint mismatch", replace.Rule{ID: "r", SearchText: "call me", FieldType: "phone"}, "field_format"},
		{"amount without digits", replace.Rule{ID: "r", SearchText: "total", FieldType: "amount"}, "field_format"},
	}
	for _, tc := range cases {
		res := Rule("unrelated document body", tc.rule)
		if !hasIssue(res, tc.typ) {
			t.Errorf("%s: expected %s issue, got %+v", tc.name, tc.typ, res.Issues)
		}
	}
}

func TestRule_CaseMismatchDetected(t *testing.T) {
	rule := replace.Rule{ID: "r1", SearchText: "ACME"}
	rule.Options.CaseSensitive = true
	res := Rule("the acme corporation", rule)
	if !hasIssue(res, "case") {
		t.Errorf("expected case issue, got %+v", res.Issues)
	}
}

func TestRule_InvalidRegexReported(t *testing.T) {
	rule := replace.Rule{ID: "r1", SearchText: "("}
	rule.Options.UseRegex = true
	res := Rule("(text)", rule)
	if !hasIssue(res, "regex") {
		t.Errorf("expected regex issue, got %+v", res.Issues)
	}
}

func TestRule_TextAnalysis(t *testing.T) {
	res := Rule("doc", replace.Rule{ID: "r1", SearchText: "甲方\n乙方"})
	ta := res.Text
	if !ta.HasCJK {
		t.Error("expected CJK detection")
	}
	if ta.LineBreaks != 1 {
		t.Errorf("expected 1 line break, got %d", ta.LineBreaks)
	}
	if ta.Encoding != "utf-8" {
		t.Errorf("expected utf-8, got %q", ta.Encoding)
	}
	if ta.Length != 5 {
		t.Errorf("expected rune length 5, got %d", ta.Length)
	}

	res = Rule("doc", replace.Rule{ID: "r2", SearchText: "plain"})
	if res.Text.Encoding != "ascii" {
		t.Errorf("expected ascii, got %q", res.Text.Encoding)
	}
}

func TestAutoFix_TrimsWhitespace(t *testing.T) {
	rules := []replace.Rule{{ID: "r1", SearchText: " 甲方 ", ReplaceText: "买方"}}
	fixed, fixes := AutoFix("甲方：A公司", rules)
	if fixed[0].SearchText != "甲方" {
		t.Errorf("expected trimmed search text, got %q", fixed[0].SearchText)
	}
	if len(fixes) == 0 || fixes[0].Change != "trim_whitespace" {
		t.Errorf("expected trim fix, got %+v", fixes)
	}
	if rules[0].SearchText != " 甲方 " {
		t.Error("input rules must not be mutated")
	}
}

func TestAutoFix_DisablesCaseOnlyWhenItHelps(t *testing.T) {
	helped := replace.Rule{ID: "r1", SearchText: "ACME", ReplaceText: "x"}
	helped.Options.CaseSensitive = true
	fixed, fixes := AutoFix("the acme corporation", []replace.Rule{helped})
	if fixed[0].Options.CaseSensitive {
		t.Error("expected case sensitivity disabled")
	}
	if len(fixes) == 0 || fixes[0].Change != "disable_case_sensitive" {
		t.Errorf("unexpected fixes %+v", fixes)
	}

	// Already matching: leave it alone.
	matching := replace.Rule{ID: "r2", SearchText: "ACME", ReplaceText: "x"}
	matching.Options.CaseSensitive = true
	fixed, fixes = AutoFix("the ACME corporation", []replace.Rule{matching})
	if !fixed[0].Options.CaseSensitive || len(fixes) != 0 {
		t.Errorf("rule should be untouched, got %+v fixes %+v", fixed[0], fixes)
	}
}

func TestAutoFix_EnablesRegexForMetacharacters(t *testing.T) {
	rules := []replace.Rule{{ID: "r1", SearchText: `id-\d+`, ReplaceText: "x"}}
	fixed, _ := AutoFix("id-123", rules)
	if !fixed[0].Options.UseRegex {
		t.Error("expected regex mode enabled")
	}
}

func TestAutoFix_AdoptsFuzzyMatch(t *testing.T) {
	rules := []replace.Rule{{ID: "r1", SearchText: "Corporation", ReplaceText: "Company"}}
	fixed, fixes := AutoFix("Acme Corporatoin Ltd", rules)
	if fixed[0].SearchText != "Corporatoin" {
		t.Errorf("expected adopted fuzzy match, got %q", fixed[0].SearchText)
	}
	last := fixes[len(fixes)-1]
	if last.Change != "adopt_fuzzy_match" {
		t.Errorf("expected adopt_fuzzy_match, got %+v", last)
	}
	if fixed[0].ReplaceText != "Company" {
		t.Error("replace text must never change")
	}
}
