// Package variables scans contract text for {{placeholder}} fields and
// turns filled-in values into replace rules. Type inference is a keyword
// heuristic over the placeholder label, covering the Chinese and English
// field names contracts actually use.
package variables

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wangpeng1017/docedit/internal/replace"
)

// Variable is one extracted placeholder field.
type Variable struct {
	Name        string   `json:"name"`  // normalized identifier
	Label       string   `json:"label"` // original placeholder label
	Type        string   `json:"type"`  // text, date, number, email, phone, select
	Required    bool     `json:"required"`
	Description string   `json:"description"`
	Format      string   `json:"format,omitempty"`
	Options     []string `json:"options,omitempty"`
}

var placeholderRe = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Extract finds every distinct {{...}} placeholder in text, in first-seen
// order.
func Extract(text string) []Variable {
	var vars []Variable
	seen := make(map[string]bool)

	for _, m := range placeholderRe.FindAllStringSubmatch(text, -1) {
		label := strings.TrimSpace(m[1])
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true

		v := Variable{
			Name:        normalizeName(label),
			Label:       label,
			Type:        inferType(label),
			Required:    true,
			Description: "请填写" + label,
		}
		if v.Type == "date" {
			v.Format = "YYYY-MM-DD"
		}
		vars = append(vars, v)
	}
	return vars
}

var typeKeywords = []struct {
	typ      string
	keywords []string
}{
	{"date", []string{"日期", "时间", "date", "time"}},
	{"number", []string{"金额", "数量", "价格", "费用", "amount", "price", "quantity"}},
	{"email", []string{"邮箱", "电子邮件", "email"}},
	{"phone", []string{"电话", "手机", "phone", "mobile", "tel"}},
	{"select", []string{"类型", "方式", "select"}},
}

func inferType(label string) string {
	lower := strings.ToLower(label)
	for _, tk := range typeKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(lower, kw) {
				return tk.typ
			}
		}
	}
	return "text"
}

var nonIdent = regexp.MustCompile(`[^a-z0-9\p{Han}]+`)

func normalizeName(label string) string {
	name := nonIdent.ReplaceAllString(strings.ToLower(label), "_")
	return strings.Trim(name, "_")
}

// fieldTypeHint maps a variable type onto the FieldType hints the
// diagnostics package understands.
func fieldTypeHint(varType string) string {
	switch varType {
	case "phone":
		return "phone"
	case "number":
		return "amount"
	}
	return ""
}

// BuildRules produces one replace rule per variable that has a value,
// targeting the literal {{label}} placeholder. Variables without values are
// skipped; the caller decides whether that is an error.
func BuildRules(vars []Variable, values map[string]string) []replace.Rule {
	var rules []replace.Rule
	for i, v := range vars {
		value, ok := values[v.Name]
		if !ok {
			value, ok = values[v.Label]
		}
		if !ok {
			continue
		}
		rules = append(rules, replace.Rule{
			ID:          fmt.Sprintf("var_%s", v.Name),
			SearchText:  "{{" + v.Label + "}}",
			ReplaceText: value,
			Options:     replace.RuleOptions{CaseSensitive: true},
			FieldType:   fieldTypeHint(v.Type),
			Priority:    len(vars) - i, // earlier placeholders first
		})
	}
	return rules
}
