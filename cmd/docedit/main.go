// docedit is the CLI entry point: parse documents into structures, apply
// replace rule batches, diagnose rules that fail to match, extract contract
// placeholders, and push replacements to the remote document service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wangpeng1017/docedit/internal/blocktree"
	"github.com/wangpeng1017/docedit/internal/config"
	"github.com/wangpeng1017/docedit/internal/diagnose"
	"github.com/wangpeng1017/docedit/internal/docapi"
	"github.com/wangpeng1017/docedit/internal/importer"
	"github.com/wangpeng1017/docedit/internal/replace"
	"github.com/wangpeng1017/docedit/internal/sanitize"
	"github.com/wangpeng1017/docedit/internal/search"
	"github.com/wangpeng1017/docedit/internal/secure"
	"github.com/wangpeng1017/docedit/internal/validate"
	"github.com/wangpeng1017/docedit/internal/variables"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(log)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if cfg.PolicyFile != "" {
		policy, err := config.LoadPolicy(cfg.PolicyFile)
		if err != nil {
			log.Error("load policy", "error", err)
			os.Exit(1)
		}
		cfg.Apply(policy)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "parse":
		err = runParse(os.Args[2:])
	case "replace":
		err = runReplace(cfg, os.Args[2:])
	case "diagnose":
		err = runDiagnose(os.Args[2:])
	case "vars":
		err = runVars(os.Args[2:])
	case "apply":
		err = runApply(cfg, log, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error(os.Args[1]+" failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: docedit <command> [flags]

commands:
  parse     parse a document into its structure (json, text, markdown, outline)
  replace   apply a rules file to a document and print the batch result
  diagnose  explain why each rule in a rules file does or does not match
  vars      extract {{placeholder}} variables from a document
  apply     apply a replacement to a remote document via the document API`)
}

// loadDocument reads a document either from a block-record JSON dump
// (-blocks) or from a supported file format via the importers.
func loadDocument(blocksPath, filePath string) (*blocktree.Document, error) {
	if blocksPath != "" {
		data, err := os.ReadFile(blocksPath)
		if err != nil {
			return nil, fmt.Errorf("read blocks: %w", err)
		}
		var dump struct {
			Document blocktree.DocumentMeta  `json:"document"`
			Blocks   []blocktree.BlockRecord `json:"blocks"`
		}
		if err := json.Unmarshal(data, &dump); err != nil {
			return nil, fmt.Errorf("decode blocks: %w", err)
		}
		return blocktree.Parse(dump.Document, dump.Blocks), nil
	}

	if filePath == "" {
		return nil, fmt.Errorf("either -blocks or -file is required")
	}
	imp, err := importer.ForFile(filePath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	blocks, err := imp.Import(f, filePath)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", filePath, err)
	}
	return blocktree.Parse(blocktree.DocumentMeta{Title: filePath}, blocks), nil
}

// rulesFile is the YAML schema for replace/diagnose rule batches.
type rulesFile struct {
	Rules []struct {
		ID            string `yaml:"id"`
		Search        string `yaml:"search"`
		Replace       string `yaml:"replace"`
		CaseSensitive bool   `yaml:"case_sensitive"`
		WholeWord     bool   `yaml:"whole_word"`
		UseRegex      bool   `yaml:"use_regex"`
		FieldType     string `yaml:"field_type"`
		Priority      int    `yaml:"priority"`
	} `yaml:"rules"`
	FuzzyFallback bool `yaml:"fuzzy_fallback"`
}

func loadRules(path string) ([]replace.Rule, rulesFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rulesFile{}, fmt.Errorf("read rules: %w", err)
	}
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, rulesFile{}, fmt.Errorf("decode rules: %w", err)
	}
	rules := make([]replace.Rule, len(rf.Rules))
	for i, r := range rf.Rules {
		id := r.ID
		if id == "" {
			id = fmt.Sprintf("rule_%d", i+1)
		}
		rules[i] = replace.Rule{
			ID:          id,
			SearchText:  r.Search,
			ReplaceText: r.Replace,
			Options: replace.RuleOptions{
				CaseSensitive: r.CaseSensitive,
				WholeWord:     r.WholeWord,
				UseRegex:      r.UseRegex,
			},
			FieldType: r.FieldType,
			Priority:  r.Priority,
		}
	}
	return rules, rf, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func runParse(args []string) error {
	fs := flag.NewFlagSet("parse", flag.ExitOnError)
	blocksPath := fs.String("blocks", "", "block-record JSON dump")
	filePath := fs.String("file", "", "document file (txt, md, html, docx, pdf)")
	format := fs.String("format", "json", "output format: json, text, markdown, outline, csv")
	fs.Parse(args)

	doc, err := loadDocument(*blocksPath, *filePath)
	if err != nil {
		return err
	}
	switch *format {
	case "json":
		return printJSON(doc)
	case "text":
		fmt.Println(doc.PlainText())
	case "markdown":
		fmt.Print(doc.Markdown())
	case "outline":
		fmt.Print(doc.OutlineText())
	case "csv":
		if len(doc.Tables) == 0 {
			return fmt.Errorf("document contains no tables")
		}
		for _, tbl := range doc.Tables {
			fmt.Print(blocktree.TableCSV(tbl))
		}
	default:
		return fmt.Errorf("unknown format %q", *format)
	}
	return nil
}

func runReplace(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("replace", flag.ExitOnError)
	blocksPath := fs.String("blocks", "", "block-record JSON dump")
	filePath := fs.String("file", "", "document file")
	rulesPath := fs.String("rules", "", "rules YAML file")
	strict := fs.Bool("strict", false, "treat validation warnings as errors")
	fs.Parse(args)

	if *rulesPath == "" {
		return fmt.Errorf("-rules is required")
	}
	doc, err := loadDocument(*blocksPath, *filePath)
	if err != nil {
		return err
	}
	rules, rf, err := loadRules(*rulesPath)
	if err != nil {
		return err
	}

	batch, err := replace.Smart(doc.PlainText(), rules, replace.BatchOptions{
		FuzzyFallback:    rf.FuzzyFallback,
		FuzzyThreshold:   cfg.FuzzyThreshold,
		FuzzyMaxDistance: cfg.FuzzyMaxDistance,
	})
	if err != nil {
		return err
	}

	opts := validate.DefaultOptions()
	opts.StrictMode = *strict
	report := validate.Batch(batch, rules, opts)

	return printJSON(struct {
		Batch      *replace.BatchResult `json:"batch"`
		Validation validate.Report      `json:"validation"`
	}{batch, report})
}

func runDiagnose(args []string) error {
	fs := flag.NewFlagSet("diagnose", flag.ExitOnError)
	blocksPath := fs.String("blocks", "", "block-record JSON dump")
	filePath := fs.String("file", "", "document file")
	rulesPath := fs.String("rules", "", "rules YAML file")
	autofix := fs.Bool("autofix", false, "also print auto-fixed rules")
	fs.Parse(args)

	if *rulesPath == "" {
		return fmt.Errorf("-rules is required")
	}
	doc, err := loadDocument(*blocksPath, *filePath)
	if err != nil {
		return err
	}
	rules, _, err := loadRules(*rulesPath)
	if err != nil {
		return err
	}

	text := doc.PlainText()
	results := make([]*diagnose.Result, len(rules))
	for i, rule := range rules {
		results[i] = diagnose.Rule(text, rule)
	}
	out := struct {
		Diagnostics []*diagnose.Result `json:"diagnostics"`
		Fixed       []replace.Rule     `json:"fixed_rules,omitempty"`
		Fixes       []diagnose.Fix     `json:"fixes,omitempty"`
	}{Diagnostics: results}

	if *autofix {
		out.Fixed, out.Fixes = diagnose.AutoFix(text, rules)
	}
	return printJSON(out)
}

func runVars(args []string) error {
	fs := flag.NewFlagSet("vars", flag.ExitOnError)
	blocksPath := fs.String("blocks", "", "block-record JSON dump")
	filePath := fs.String("file", "", "document file")
	fs.Parse(args)

	doc, err := loadDocument(*blocksPath, *filePath)
	if err != nil {
		return err
	}
	return printJSON(variables.Extract(doc.PlainText()))
}

func runApply(cfg config.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	docID := fs.String("doc", "", "remote document id")
	userID := fs.String("user", "", "acting user id")
	searchText := fs.String("search", "", "text to find")
	replaceText := fs.String("replace", "", "replacement text")
	caseSensitive := fs.Bool("case-sensitive", true, "case sensitive matching")
	wholeWord := fs.Bool("whole-word", false, "whole word matching")
	fs.Parse(args)

	if cfg.DocAPIBaseURL == "" {
		return fmt.Errorf("DOCAPI_URL is not configured")
	}
	if *docID == "" || *searchText == "" {
		return fmt.Errorf("-doc and -search are required")
	}

	client := docapi.NewClient(cfg.DocAPIBaseURL, cfg.DocAPIToken)
	defer client.Close()

	san := sanitizerFromConfig(cfg)
	coord := secure.NewCoordinator(client, san, log, secure.NewAuditLog(cfg.AuditCapacity, cfg.AuditRetain),
		secure.Limits{MaxMatches: cfg.MaxMatchesPerRule})

	out := coord.TextReplace(context.Background(), secure.ReplaceRequest{
		DocumentID:  *docID,
		UserID:      *userID,
		SearchText:  *searchText,
		ReplaceText: *replaceText,
		Options: search.Options{
			CaseSensitive: *caseSensitive,
			WholeWord:     *wholeWord,
		},
	})
	return printJSON(out)
}

func sanitizerFromConfig(cfg config.Config) *sanitize.Sanitizer {
	return sanitize.New(
		sanitize.WithMaxLength(cfg.MaxContentLength),
		sanitize.WithForbiddenWords(cfg.ForbiddenWords),
	)
}
