package validate

import (
	"testing"

	"github.com/wangpeng1017/docedit/internal/replace"
)

func run(t *testing.T, text string, rules []replace.Rule, opts replace.BatchOptions) *replace.BatchResult {
	t.Helper()
	batch, err := replace.Smart(text, rules, opts)
	if err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	return batch
}

func TestBatch_CleanRunIsValid(t *testing.T) {
	rules := []replace.Rule{{ID: "r1", SearchText: "甲方", ReplaceText: "买方"}}
	batch := run(t, "甲方：A公司", rules, replace.BatchOptions{})

	report := Batch(batch, rules, DefaultOptions())
	if !report.Valid {
		t.Fatalf("expected valid report, got errors %+v", report.Errors)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("unexpected warnings %+v", report.Warnings)
	}
}

func TestBatch_NilResult(t *testing.T) {
	report := Batch(nil, nil, DefaultOptions())
	if report.Valid || len(report.Errors) != 1 {
		t.Fatalf("expected single error for nil result, got %+v", report)
	}
}

func TestBatch_OrphanResult(t *testing.T) {
	batch := &replace.BatchResult{Results: []replace.Result{
		{RuleID: "ghost", MatchCount: 1, ReplacedCount: 1, Success: true},
	}}
	report := Batch(batch, nil, DefaultOptions())
	if report.Valid {
		t.Fatal("expected invalid report")
	}
	if report.Errors[0].Check != "integrity" {
		t.Errorf("expected integrity error, got %+v", report.Errors[0])
	}
}

func TestBatch_OvercountIsError(t *testing.T) {
	rules := []replace.Rule{{ID: "r1", SearchText: "ab", ReplaceText: "cd"}}
	batch := &replace.BatchResult{Results: []replace.Result{
		{RuleID: "r1", MatchCount: 1, ReplacedCount: 2, Success: true},
	}}
	report := Batch(batch, rules, DefaultOptions())
	if report.Valid {
		t.Fatal("expected invalid report when replaced exceeds matched")
	}
}

func TestBatch_ConflictingDuplicatesWarn(t *testing.T) {
	rules := []replace.Rule{
		{ID: "r1", SearchText: "甲方", ReplaceText: "买方"},
		{ID: "r2", SearchText: "甲方", ReplaceText: "出让方"},
	}
	batch := run(t, "甲方：A公司", rules, replace.BatchOptions{})

	report := Batch(batch, rules, DefaultOptions())
	found := false
	for _, w := range report.Warnings {
		if w.Check == "consistency" && w.RuleID == "r2" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected consistency warning for r2, got %+v", report.Warnings)
	}

	// Identical duplicates are harmless.
	same := []replace.Rule{
		{ID: "r1", SearchText: "甲方", ReplaceText: "买方"},
		{ID: "r2", SearchText: "甲方", ReplaceText: "买方"},
	}
	report = Batch(run(t, "甲方", same, replace.BatchOptions{}), same, Options{CheckConsistency: true})
	if len(report.Warnings) != 0 {
		t.Errorf("identical duplicates must not warn: %+v", report.Warnings)
	}
}

func TestBatch_QualityWarnings(t *testing.T) {
	rules := []replace.Rule{
		{ID: "del", SearchText: "remove me", ReplaceText: ""},
		{ID: "short", SearchText: "x", ReplaceText: "y"},
	}
	batch := run(t, "remove me and x", rules, replace.BatchOptions{})

	report := Batch(batch, rules, DefaultOptions())
	if !report.Valid {
		t.Fatalf("quality findings must stay warnings in normal mode: %+v", report.Errors)
	}
	byRule := map[string]bool{}
	for _, w := range report.Warnings {
		byRule[w.RuleID] = true
	}
	if !byRule["del"] || !byRule["short"] {
		t.Errorf("expected warnings for both rules, got %+v", report.Warnings)
	}
}

func TestBatch_FuzzyUseWarns(t *testing.T) {
	rules := []replace.Rule{{ID: "r1", SearchText: "Corporation", ReplaceText: "Company"}}
	batch := run(t, "Acme Corporatoin", rules, replace.BatchOptions{FuzzyFallback: true})

	report := Batch(batch, rules, DefaultOptions())
	found := false
	for _, w := range report.Warnings {
		if w.Check == "quality" && w.RuleID == "r1" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected fuzzy-use warning, got %+v", report.Warnings)
	}
}

func TestBatch_StrictModePromotesWarnings(t *testing.T) {
	rules := []replace.Rule{{ID: "short", SearchText: "x", ReplaceText: "y"}}
	batch := run(t, "x", rules, replace.BatchOptions{})

	opts := DefaultOptions()
	opts.StrictMode = true
	report := Batch(batch, rules, opts)
	if report.Valid {
		t.Fatal("strict mode must fail on warnings")
	}
	if len(report.Warnings) != 0 {
		t.Errorf("promoted warnings must not be reported twice: %+v", report.Warnings)
	}
}

func TestBatch_DisabledGroupsSkip(t *testing.T) {
	batch := &replace.BatchResult{Results: []replace.Result{
		{RuleID: "ghost", MatchCount: 1, ReplacedCount: 1, Success: true},
	}}
	report := Batch(batch, nil, Options{})
	if !report.Valid {
		t.Errorf("no enabled checks means nothing can fail: %+v", report.Errors)
	}
}
