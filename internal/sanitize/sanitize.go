// Package sanitize validates and cleans replacement text before it is
// written back to a document. Validation is the safety gate; Clean is a
// defensive second pass whose output still goes through Validate again at
// the coordinator.
package sanitize

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// DefaultMaxLength is the hard content length ceiling in runes.
const DefaultMaxLength = 10000

var dangerousTags = map[string]bool{
	"script": true,
	"iframe": true,
	"object": true,
	"embed":  true,
}

var (
	// Anchored on a word boundary so the scheme must start its own token:
	// "metadata:" in ordinary prose is not a data: URI.
	dangerousURI = regexp.MustCompile(`(?i)\b(javascript|vbscript|data)\s*:`)
	eventAttr    = regexp.MustCompile(`(?i)\son\w+\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	tagBlock     = regexp.MustCompile(`(?is)<\s*(script|iframe|object|embed)\b[^>]*>.*?<\s*/\s*(script|iframe|object|embed)\s*>`)
	tagSolo      = regexp.MustCompile(`(?is)<\s*/?\s*(script|iframe|object|embed)\b[^>]*/?\s*>`)
	wsRun        = regexp.MustCompile(`\s+`)
)

// Check is one named validation step. New checks extend the list without
// touching call sites.
type Check struct {
	Name string
	Fn   func(text string) error
}

// Verdict is the outcome of Validate.
type Verdict struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Sanitizer holds the check list and cleaning rules.
type Sanitizer struct {
	maxLength int
	forbidden []string
	checks    []Check
}

// Option configures a Sanitizer.
type Option func(*Sanitizer)

// WithMaxLength overrides the content length ceiling.
func WithMaxLength(n int) Option {
	return func(s *Sanitizer) {
		if n > 0 {
			s.maxLength = n
		}
	}
}

// WithForbiddenWords sets the configurable forbidden word list.
func WithForbiddenWords(words []string) Option {
	return func(s *Sanitizer) { s.forbidden = words }
}

// New builds a Sanitizer with the standard check list applied in order:
// length ceiling, dangerous markup, dangerous URI schemes, forbidden words.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{maxLength: DefaultMaxLength}
	for _, opt := range opts {
		opt(s)
	}
	s.checks = []Check{
		{Name: "max_length", Fn: s.checkLength},
		{Name: "dangerous_markup", Fn: checkMarkup},
		{Name: "dangerous_uri", Fn: checkURI},
		{Name: "forbidden_words", Fn: s.checkForbidden},
	}
	return s
}

// AddCheck appends a custom validation step.
func (s *Sanitizer) AddCheck(c Check) { s.checks = append(s.checks, c) }

// Validate runs every check and collects all failures rather than stopping
// at the first.
func (s *Sanitizer) Validate(text string) Verdict {
	var errs []string
	for _, c := range s.checks {
		if err := c.Fn(text); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", c.Name, err))
		}
	}
	return Verdict{Valid: len(errs) == 0, Errors: errs}
}

func (s *Sanitizer) checkLength(text string) error {
	if n := utf8.RuneCountInString(text); n > s.maxLength {
		return fmt.Errorf("content length %d exceeds ceiling %d", n, s.maxLength)
	}
	return nil
}

// checkMarkup parses the text as an HTML fragment and rejects script,
// iframe, object and embed elements, inline event handlers, and dangerous
// URI schemes inside href/src attributes. Parsing beats a pure regex here:
// obfuscated markup like "<ScRiPt >" still produces a script element node.
func checkMarkup(text string) error {
	if !strings.Contains(text, "<") {
		return nil
	}
	nodes, err := parseFragment(text)
	if err != nil {
		return fmt.Errorf("unparseable markup: %w", err)
	}
	for _, n := range nodes {
		if err := inspectNode(n); err != nil {
			return err
		}
	}
	return nil
}

func inspectNode(n *html.Node) error {
	if n.Type == html.ElementNode {
		if dangerousTags[n.Data] {
			return fmt.Errorf("forbidden element <%s>", n.Data)
		}
		for _, a := range n.Attr {
			if strings.HasPrefix(strings.ToLower(a.Key), "on") {
				return fmt.Errorf("event handler attribute %q", a.Key)
			}
			if (a.Key == "href" || a.Key == "src") && dangerousURI.MatchString(a.Val) {
				return fmt.Errorf("dangerous uri in %s attribute", a.Key)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := inspectNode(c); err != nil {
			return err
		}
	}
	return nil
}

func checkURI(text string) error {
	if dangerousURI.MatchString(text) {
		return fmt.Errorf("dangerous uri scheme")
	}
	return nil
}

func (s *Sanitizer) checkForbidden(text string) error {
	lower := strings.ToLower(text)
	for _, w := range s.forbidden {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			return fmt.Errorf("forbidden word %q", w)
		}
	}
	return nil
}

func parseFragment(text string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	return html.ParseFragment(strings.NewReader(text), ctx)
}

// Clean strips the dangerous tag classes (including their content), inline
// event-handler attributes and dangerous URI schemes, then collapses
// whitespace runs to single spaces. It keeps the remaining text verbatim:
// cleaning is a second line of defense, never the sole gate, and its output
// is re-validated before any write.
func (s *Sanitizer) Clean(text string) string {
	out := tagBlock.ReplaceAllString(text, "")
	out = tagSolo.ReplaceAllString(out, "")
	out = eventAttr.ReplaceAllString(out, "")
	out = dangerousURI.ReplaceAllString(out, "")
	out = wsRun.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}
