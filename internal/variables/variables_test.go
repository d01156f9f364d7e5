package variables

import (
	"testing"

	"github.com/wangpeng1017/docedit/internal/replace"
)

const contractTemplate = "甲方：{{甲方名称}}\n签订日期：{{签订日期}}\n合同金额：{{合同金额}}\n联系电话：{{联系电话}}\n甲方：{{甲方名称}}"

func TestExtract(t *testing.T) {
	vars := Extract(contractTemplate)
	if len(vars) != 4 {
		t.Fatalf("expected 4 distinct variables, got %d: %+v", len(vars), vars)
	}

	want := []struct {
		label, typ string
	}{
		{"甲方名称", "text"},
		{"签订日期", "date"},
		{"合同金额", "number"},
		{"联系电话", "phone"},
	}
	for i, w := range want {
		if vars[i].Label != w.label {
			t.Errorf("var %d: label %q, want %q (first-seen order)", i, vars[i].Label, w.label)
		}
		if vars[i].Type != w.typ {
			t.Errorf("var %q: type %q, want %q", w.label, vars[i].Type, w.typ)
		}
		if !vars[i].Required {
			t.Errorf("var %q: expected required", w.label)
		}
	}
	if vars[1].Format != "YYYY-MM-DD" {
		t.Errorf("date variable missing format, got %q", vars[1].Format)
	}
}

func TestExtract_EnglishAndNormalization(t *testing.T) {
	vars := Extract("Contact: {{ Email Address }} / {{Start Date}}")
	if len(vars) != 2 {
		t.Fatalf("expected 2 variables, got %+v", vars)
	}
	if vars[0].Label != "Email Address" {
		t.Errorf("label must be trimmed, got %q", vars[0].Label)
	}
	if vars[0].Name != "email_address" {
		t.Errorf("expected normalized name, got %q", vars[0].Name)
	}
	if vars[0].Type != "email" || vars[1].Type != "date" {
		t.Errorf("unexpected types %q %q", vars[0].Type, vars[1].Type)
	}
}

func TestExtract_NoPlaceholders(t *testing.T) {
	if vars := Extract("plain contract text"); len(vars) != 0 {
		t.Errorf("expected no variables, got %+v", vars)
	}
	if vars := Extract("{{}} {{  }}"); len(vars) != 0 {
		t.Errorf("empty labels must be skipped, got %+v", vars)
	}
}

func TestBuildRules(t *testing.T) {
	vars := Extract(contractTemplate)
	rules := BuildRules(vars, map[string]string{
		"甲方名称": "A公司",
		"签订日期": "2026-01-01",
	})
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules for 2 supplied values, got %+v", rules)
	}
	if rules[0].SearchText != "{{甲方名称}}" || rules[0].ReplaceText != "A公司" {
		t.Errorf("unexpected first rule %+v", rules[0])
	}
	if !rules[0].Options.CaseSensitive {
		t.Error("placeholder rules must match case-sensitively")
	}
	if rules[0].Priority <= rules[1].Priority {
		t.Errorf("earlier placeholder must have higher priority: %d vs %d",
			rules[0].Priority, rules[1].Priority)
	}
}

func TestBuildRules_FieldTypeHints(t *testing.T) {
	vars := Extract("{{合同金额}} {{联系电话}} {{备注}}")
	rules := BuildRules(vars, map[string]string{
		"合同金额": "1000元",
		"联系电话": "13800138000",
		"备注":   "无",
	})
	byLabel := map[string]replace.Rule{}
	for _, r := range rules {
		byLabel[r.SearchText] = r
	}
	if byLabel["{{合同金额}}"].FieldType != "amount" {
		t.Errorf("amount hint missing: %+v", byLabel["{{合同金额}}"])
	}
	if byLabel["{{联系电话}}"].FieldType != "phone" {
		t.Errorf("phone hint missing: %+v", byLabel["{{联系电话}}"])
	}
	if byLabel["{{备注}}"].FieldType != "" {
		t.Errorf("text variables carry no hint: %+v", byLabel["{{备注}}"])
	}
}

func TestBuildRules_EndToEnd(t *testing.T) {
	text := "甲方：{{甲方名称}}，金额：{{合同金额}}"
	vars := Extract(text)
	rules := BuildRules(vars, map[string]string{
		"甲方名称": "A公司",
		"合同金额": "1000元",
	})
	batch, err := replace.Smart(text, rules, replace.BatchOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Text != "甲方：A公司，金额：1000元" {
		t.Errorf("unexpected filled text %q", batch.Text)
	}
	if !batch.Success {
		t.Errorf("expected all placeholders filled, got %+v", batch.Results)
	}
}
