// Package secure performs validated, audited write-backs of text edits to
// an external cloud document. It is the only part of the system with side
// effects; everything below it is pure.
//
// The coordinator does not serialize concurrent calls against the same
// document id — the external document API offers no transaction guarantee,
// so at-most-one-writer-per-document must be enforced by the caller.
package secure

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/wangpeng1017/docedit/internal/blocktree"
	"github.com/wangpeng1017/docedit/internal/sanitize"
	"github.com/wangpeng1017/docedit/internal/search"
)

// Outcome codes for ReplaceOutcome.Code.
const (
	CodeOK            = "ok"
	CodeInputError    = "input_error"
	CodeSafetyReject  = "safety_rejected"
	CodeNoMatch       = "no_match"
	CodeExternalError = "external_error"
	CodeWriteFailed   = "write_failed"
)

// DefaultMaxMatches is the per-call match count ceiling: a search text that
// matches more locations than this is rejected before any write attempt.
const DefaultMaxMatches = 100

// BlockUpdate is one block's new content for the collaborator write-back.
type BlockUpdate struct {
	BlockID    string `json:"block_id"`
	NewContent string `json:"new_content"`
}

// DocumentAPI is the external document collaborator. Any error it returns
// is treated as a hard failure of the enclosing call; no partial block
// writes are assumed committed.
type DocumentAPI interface {
	GetDocument(ctx context.Context, documentID string) (blocktree.DocumentMeta, []blocktree.BlockRecord, error)
	BatchUpdateBlocks(ctx context.Context, documentID string, updates []BlockUpdate) error
}

// Limits bounds a coordinator's write operations.
type Limits struct {
	MaxMatches int
}

// Coordinator validates, sanitizes and applies text replacements against an
// external document, keeping a bounded audit log of every attempt.
type Coordinator struct {
	api    DocumentAPI
	san    *sanitize.Sanitizer
	log    *slog.Logger
	audit  *AuditLog
	limits Limits
}

// NewCoordinator wires a coordinator. san, log and audit may be nil, in
// which case defaults are used.
func NewCoordinator(api DocumentAPI, san *sanitize.Sanitizer, log *slog.Logger, audit *AuditLog, limits Limits) *Coordinator {
	if san == nil {
		san = sanitize.New()
	}
	if log == nil {
		log = slog.Default()
	}
	if audit == nil {
		audit = NewAuditLog(0, 0)
	}
	if limits.MaxMatches <= 0 {
		limits.MaxMatches = DefaultMaxMatches
	}
	return &Coordinator{api: api, san: san, log: log, audit: audit, limits: limits}
}

// Audit exposes the coordinator's log for history queries.
func (c *Coordinator) Audit() *AuditLog { return c.audit }

// ReplaceRequest is one secure text replacement.
type ReplaceRequest struct {
	DocumentID  string         `json:"document_id"`
	UserID      string         `json:"user_id"`
	SearchText  string         `json:"search_text"`
	ReplaceText string         `json:"replace_text"`
	Options     search.Options `json:"options"`
}

// ReplaceOutcome is the structured result of TextReplace. The coordinator
// reports failures through Code/Error instead of returning Go errors, so a
// batch can keep going past a failed item.
type ReplaceOutcome struct {
	Success        bool   `json:"success"`
	Code           string `json:"code"`
	Error          string `json:"error,omitempty"`
	MatchCount     int    `json:"match_count"`
	ReplacedCount  int    `json:"replaced_count"`
	AffectedBlocks int    `json:"affected_blocks"`
	OperationID    string `json:"operation_id"`
}

// TextReplace runs the full secure pipeline: validate, clean, re-validate,
// fetch, parse, search, safety-check, write back. An audit record is
// appended regardless of outcome, including original and new content.
func (c *Coordinator) TextReplace(ctx context.Context, req ReplaceRequest) *ReplaceOutcome {
	op := c.audit.Begin("text_replace", req.DocumentID, req.UserID, map[string]string{
		"search_text":  req.SearchText,
		"replace_text": req.ReplaceText,
	})
	out := &ReplaceOutcome{OperationID: op.ID}

	fail := func(code, msg string) *ReplaceOutcome {
		out.Code = code
		out.Error = msg
		c.audit.Complete(op, OperationResult{Error: fmt.Sprintf("%s: %s", code, msg)})
		c.log.Warn("text replace rejected",
			"document_id", req.DocumentID, "code", code, "error", msg)
		return out
	}

	if req.SearchText == "" {
		return fail(CodeInputError, "empty search text")
	}

	if v := c.san.Validate(req.ReplaceText); !v.Valid {
		return fail(CodeSafetyReject, strings.Join(v.Errors, "; "))
	}
	cleaned := c.san.Clean(req.ReplaceText)
	if v := c.san.Validate(cleaned); !v.Valid {
		// Cleaning is a second pass, not the gate: if the cleaned text still
		// fails validation the write is refused outright.
		return fail(CodeSafetyReject, "content invalid after cleaning: "+strings.Join(v.Errors, "; "))
	}

	meta, blocks, err := c.api.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return fail(CodeExternalError, fmt.Sprintf("fetch document: %v", err))
	}
	doc := blocktree.Parse(meta, blocks)

	matches := search.Exact(doc.Text, req.SearchText, req.Options)
	out.MatchCount = len(matches)
	if len(matches) == 0 {
		return fail(CodeNoMatch, fmt.Sprintf("no matches for %q", req.SearchText))
	}
	if len(matches) > c.limits.MaxMatches {
		return fail(CodeSafetyReject,
			fmt.Sprintf("match count %d exceeds safety ceiling %d", len(matches), c.limits.MaxMatches))
	}

	updates, originals, replaced := c.blockUpdates(doc, matches, req, cleaned)
	if len(updates) == 0 {
		return fail(CodeNoMatch, "matches did not map to editable blocks")
	}

	if err := c.api.BatchUpdateBlocks(ctx, req.DocumentID, updates); err != nil {
		out.Code = CodeWriteFailed
		out.Error = err.Error()
		c.audit.Complete(op, OperationResult{
			Error:          fmt.Sprintf("%s: %v", CodeWriteFailed, err),
			AffectedBlocks: 0,
		})
		c.log.Error("block update failed",
			"document_id", req.DocumentID, "blocks", len(updates), "error", err)
		return out
	}

	out.Success = true
	out.Code = CodeOK
	out.ReplacedCount = replaced
	out.AffectedBlocks = len(updates)

	newContents := make([]string, len(updates))
	for i, u := range updates {
		newContents[i] = u.NewContent
	}
	c.audit.SetMetadata(op, map[string]string{
		"original_content": strings.Join(originals, "\n"),
		"new_content":      strings.Join(newContents, "\n"),
	})
	c.audit.Complete(op, OperationResult{
		Success:        true,
		AffectedBlocks: len(updates),
		ChangeCount:    replaced,
	})
	c.log.Info("text replace applied",
		"document_id", req.DocumentID, "matches", len(matches),
		"replaced", replaced, "blocks", len(updates))
	return out
}

// blockUpdates groups matches by owning block and rewrites each affected
// block's content with the cleaned replacement text. The returned count is
// the number of occurrences actually spliced: a buffer match that does not
// re-resolve inside a single block (a needle spanning the block separator,
// or a whole-word boundary that differs at a block edge) contributes no
// splice and must not be reported as replaced.
func (c *Coordinator) blockUpdates(doc *blocktree.Document, matches []search.Match, req ReplaceRequest, cleaned string) ([]BlockUpdate, []string, int) {
	seen := make(map[string]bool)
	var updates []BlockUpdate
	var originals []string
	replaced := 0

	for _, m := range matches {
		pb := doc.BlockAt(m.Start)
		if pb == nil || seen[pb.ID] {
			continue
		}
		seen[pb.ID] = true

		local := search.Exact(pb.Content, req.SearchText, req.Options)
		if len(local) == 0 {
			continue
		}
		var b strings.Builder
		prev := 0
		for _, lm := range local {
			b.WriteString(pb.Content[prev:lm.Start])
			b.WriteString(cleaned)
			prev = lm.End
		}
		b.WriteString(pb.Content[prev:])
		newContent := b.String()
		if newContent == pb.Content {
			continue
		}
		originals = append(originals, pb.Content)
		updates = append(updates, BlockUpdate{BlockID: pb.ID, NewContent: newContent})
		replaced += len(local)
	}
	return updates, originals, replaced
}

// BatchItem is one replacement in a BatchReplace call.
type BatchItem struct {
	SearchText  string         `json:"search_text"`
	ReplaceText string         `json:"replace_text"`
	Options     search.Options `json:"options"`
}

// BatchOutcome aggregates a BatchReplace call.
type BatchOutcome struct {
	Items        []ReplaceOutcome `json:"items"`
	Succeeded    int              `json:"succeeded"`
	Failed       int              `json:"failed"`
	TotalChanges int              `json:"total_changes"`
	Success      bool             `json:"success"`
}

// BatchReplace applies items sequentially and independently: one item's
// failure never blocks subsequent items, and committed items are never
// rolled back.
func (c *Coordinator) BatchReplace(ctx context.Context, documentID, userID string, items []BatchItem) *BatchOutcome {
	batch := &BatchOutcome{Success: true}
	for _, item := range items {
		out := c.TextReplace(ctx, ReplaceRequest{
			DocumentID:  documentID,
			UserID:      userID,
			SearchText:  item.SearchText,
			ReplaceText: item.ReplaceText,
			Options:     item.Options,
		})
		batch.Items = append(batch.Items, *out)
		if out.Success {
			batch.Succeeded++
			batch.TotalChanges += out.ReplacedCount
		} else {
			batch.Failed++
			batch.Success = false
		}
	}
	return batch
}
