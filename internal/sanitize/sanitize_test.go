package sanitize

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate_PlainContractTextPasses(t *testing.T) {
	s := New()
	for _, text := range []string{
		"甲方：A公司",
		"Amount: 1,000.00 CNY",
		"line one\nline two",
		"",
	} {
		if v := s.Validate(text); !v.Valid {
			t.Errorf("%q: expected valid, got %+v", text, v.Errors)
		}
	}
}

func TestValidate_RejectsScript(t *testing.T) {
	s := New()
	v := s.Validate("<script>alert(1)</script>hello")
	if v.Valid {
		t.Fatal("expected invalid verdict")
	}
}

func TestValidate_RejectsObfuscatedMarkup(t *testing.T) {
	s := New()
	cases := []string{
		"<ScRiPt >alert(1)</script>",
		"<iframe src=\"https://evil.example\"></iframe>",
		"<img onerror=alert(1) src=x>",
		"<a href=\"javascript:alert(1)\">link</a>",
	}
	for _, text := range cases {
		if s.Validate(text).Valid {
			t.Errorf("%q: expected invalid verdict", text)
		}
	}
}

func TestValidate_RejectsBareURIScheme(t *testing.T) {
	s := New()
	if s.Validate("open javascript:alert(1) now").Valid {
		t.Error("expected dangerous uri rejection without any tag")
	}
}

func TestValidate_SchemeMustStartAToken(t *testing.T) {
	// "metadata:" contains "data:" as a substring but no scheme starts
	// there; ordinary prose must not be flagged.
	s := New()
	for _, text := range []string{
		"metadata: contract id 42",
		"见 metadata: 字段",
	} {
		if v := s.Validate(text); !v.Valid {
			t.Errorf("%q: expected valid, got %+v", text, v.Errors)
		}
	}
	if s.Validate("see data:text/html;base64,xx").Valid {
		t.Error("a data: scheme at token start must still be rejected")
	}
}

func TestValidate_LengthCeiling(t *testing.T) {
	s := New(WithMaxLength(10))
	if !s.Validate("short").Valid {
		t.Error("short text must pass")
	}
	if s.Validate(strings.Repeat("长", 11)).Valid {
		t.Error("ceiling is counted in runes, 11 must fail")
	}
	if !s.Validate(strings.Repeat("长", 10)).Valid {
		t.Error("exactly at the ceiling must pass")
	}
}

func TestValidate_ForbiddenWords(t *testing.T) {
	s := New(WithForbiddenWords([]string{"机密", "secret"}))
	if s.Validate("this is SECRET data").Valid {
		t.Error("forbidden word match must be case-insensitive")
	}
	if !s.Validate("public data").Valid {
		t.Error("clean text must pass")
	}
}

func TestValidate_CollectsAllFailures(t *testing.T) {
	s := New(WithMaxLength(5), WithForbiddenWords([]string{"evil"}))
	v := s.Validate("evil <script>x</script> javascript:1")
	if v.Valid {
		t.Fatal("expected invalid verdict")
	}
	if len(v.Errors) < 3 {
		t.Errorf("expected every failing check reported, got %+v", v.Errors)
	}
}

func TestAddCheck(t *testing.T) {
	s := New()
	s.AddCheck(Check{Name: "no_tabs", Fn: func(text string) error {
		if strings.Contains(text, "\t") {
			return errors.New("tab found")
		}
		return nil
	}})
	if s.Validate("a\tb").Valid {
		t.Error("custom check must be able to fail validation")
	}
	if !s.Validate("a b").Valid {
		t.Error("custom check must pass clean text")
	}
}

func TestClean(t *testing.T) {
	s := New()
	cases := []struct {
		in, want string
	}{
		{"<script>alert(1)</script>hello", "hello"},
		{"<iframe src=x></iframe>body", "body"},
		{"keep <b>bold</b> markup", "keep <b>bold</b> markup"},
		{"<img onerror=alert(1) src=x>", "<img src=x>"},
		{"go to javascript:alert(1)", "go to alert(1)"},
		{"metadata: contract id", "metadata: contract id"},
		{"  spaced\t\nout  ", "spaced out"},
		{"普通 文本", "普通 文本"},
	}
	for _, tc := range cases {
		if got := s.Clean(tc.in); got != tc.want {
			t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestClean_OutputRevalidates(t *testing.T) {
	s := New()
	dirty := "<ScRiPt>bad()</sCrIpT> 合同正文 <a onclick=\"x()\">条款</a>"
	cleaned := s.Clean(dirty)
	if v := s.Validate(cleaned); !v.Valid {
		t.Errorf("cleaned output must validate, got %+v (text %q)", v.Errors, cleaned)
	}
}
