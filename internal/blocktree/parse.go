package blocktree

import (
	"strings"
	"unicode/utf8"
)

// Parse normalizes a raw block tree into a Document. It never fails:
// malformed or unknown block types are tagged BlockUnknown and counted in
// TotalBlocks only. The whole aggregate — flattened text buffer, per-block
// positions, outline, tables, lists, images and statistics — is produced by
// one iterative depth-first pass over the input.
func Parse(meta DocumentMeta, blocks []BlockRecord) *Document {
	d := &Document{Meta: meta}

	var buf strings.Builder
	var outline []*OutlineEntry // current heading stack

	// Explicit two-phase (enter/exit) DFS stack. Recursion is avoided so
	// adversarially deep input cannot exhaust the goroutine stack.
	type frame struct {
		rec    *BlockRecord
		parsed *ParsedBlock
		next   int
	}
	var stack []*frame

	enter := func(rec *BlockRecord, parent *ParsedBlock, level int) *ParsedBlock {
		pb := &ParsedBlock{
			ID:     rec.BlockID,
			Type:   NormalizeType(rec.BlockType),
			Level:  level,
			parent: parent,
		}
		if rec.Text != nil {
			pb.Content = rec.Text.Content
		}

		start := buf.Len()
		if pb.Content != "" {
			buf.WriteString(pb.Content)
			pb.Position = Span{Start: start, End: buf.Len()}
			buf.WriteByte('\n') // block boundary separator
			d.index = append(d.index, indexEntry{span: pb.Position, block: pb})
		} else {
			pb.Position = Span{Start: start, End: start}
		}

		d.Stats.TotalBlocks++
		d.Stats.WordCount += countWords(pb.Content)
		d.Stats.CharacterCount += utf8.RuneCountInString(pb.Content)

		switch {
		case pb.Type == BlockText || pb.Type == BlockParagraph:
			d.Stats.TextBlocks++
		case pb.Type.IsHeading():
			d.Stats.Headings++
			outline = pushOutline(d, outline, pb)
		case pb.Type == BlockTable:
			d.Stats.Tables++
		case pb.Type.IsList():
			d.Stats.Lists++
		case pb.Type == BlockImage:
			d.Stats.Images++
			d.Images = append(d.Images, pb.ID)
		}

		if parent == nil {
			d.Blocks = append(d.Blocks, pb)
		} else {
			parent.Children = append(parent.Children, pb)
		}
		return pb
	}

	exit := func(pb *ParsedBlock) {
		switch {
		case pb.Type == BlockTable:
			d.Tables = append(d.Tables, buildTable(pb))
		case pb.Type.IsList() && !insideList(pb):
			// Nested list containers are folded into their root's items.
			d.Lists = append(d.Lists, buildList(pb))
		}
	}

	for i := range blocks {
		stack = append(stack, &frame{rec: &blocks[i], parsed: enter(&blocks[i], nil, 0)})
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			if top.next < len(top.rec.Children) {
				child := &top.rec.Children[top.next]
				top.next++
				stack = append(stack, &frame{
					rec:    child,
					parsed: enter(child, top.parsed, top.parsed.Level+1),
				})
				continue
			}
			exit(top.parsed)
			stack = stack[:len(stack)-1]
		}
	}

	d.Text = buf.String()
	return d
}

// pushOutline nests a heading under the innermost open heading of a lower
// level: a heading2 after a heading1 nests, a later heading1 pops back.
func pushOutline(d *Document, stack []*OutlineEntry, pb *ParsedBlock) []*OutlineEntry {
	entry := &OutlineEntry{ID: pb.ID, Level: pb.Type.HeadingLevel(), Title: pb.Content}
	for len(stack) > 0 && stack[len(stack)-1].Level >= entry.Level {
		stack = stack[:len(stack)-1]
	}
	if len(stack) == 0 {
		d.Outline = append(d.Outline, entry)
	} else {
		parent := stack[len(stack)-1]
		parent.Children = append(parent.Children, entry)
	}
	return append(stack, entry)
}

// buildTable turns a parsed table block's row/cell children into a
// TableStructure. HasHeader holds iff a first row exists and the table has
// more than one row; the first row then becomes Headers.
func buildTable(pb *ParsedBlock) TableStructure {
	t := TableStructure{ID: pb.ID}

	var rows [][]string
	for _, child := range pb.Children {
		if child.Type != BlockTableRow {
			continue
		}
		var cells []string
		for _, cell := range child.Children {
			if cell.Type != BlockTableCell {
				continue
			}
			cells = append(cells, cellText(cell))
		}
		rows = append(rows, cells)
		if len(cells) > t.Columns {
			t.Columns = len(cells)
		}
	}

	t.Rows = len(rows)
	t.HasHeader = len(rows) > 1
	if t.HasHeader {
		t.Headers = rows[0]
		t.Data = rows[1:]
	} else {
		t.Data = rows
	}
	return t
}

// cellText joins a cell's own content with that of its descendants.
func cellText(cell *ParsedBlock) string {
	var parts []string
	stack := []*ParsedBlock{cell}
	for len(stack) > 0 {
		pb := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if pb.Content != "" {
			parts = append(parts, pb.Content)
		}
		for i := len(pb.Children) - 1; i >= 0; i-- {
			stack = append(stack, pb.Children[i])
		}
	}
	return strings.Join(parts, " ")
}

// buildList collects list_item children into a ListStructure. Item Level is
// the nesting depth below the list root, starting at 0.
func buildList(pb *ParsedBlock) ListStructure {
	kind := "bullet"
	if pb.Type == BlockOrderedList {
		kind = "ordered"
	}
	return ListStructure{ID: pb.ID, Type: kind, Items: listItems(pb, 0)}
}

func listItems(pb *ParsedBlock, depth int) []ListItem {
	var items []ListItem
	for _, child := range pb.Children {
		switch {
		case child.Type == BlockListItem:
			items = append(items, ListItem{
				ID:       child.ID,
				Content:  child.Content,
				Level:    depth,
				Children: listItems(child, depth+1),
			})
		case child.Type.IsList():
			// A nested container's items sit one level below the item holding
			// it, which is the depth this call was already handed.
			items = append(items, listItems(child, depth)...)
		}
	}
	return items
}

func insideList(pb *ParsedBlock) bool {
	for p := pb.parent; p != nil; p = p.parent {
		if p.Type.IsList() {
			return true
		}
	}
	return false
}

func countWords(s string) int {
	if s == "" {
		return 0
	}
	return len(strings.Fields(s))
}
