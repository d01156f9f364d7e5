package blocktree

import (
	"encoding/csv"
	"fmt"
	"strings"
)

// TableCSV renders a TableStructure as RFC 4180 CSV, headers first when
// present.
func TableCSV(t TableStructure) string {
	var buf strings.Builder
	w := csv.NewWriter(&buf)
	if t.HasHeader && len(t.Headers) > 0 {
		w.Write(t.Headers)
	}
	for _, row := range t.Data {
		w.Write(row)
	}
	w.Flush()
	return buf.String()
}

// ListText renders a ListStructure as indented plain text. Bullet lists use
// "-", ordered lists number their top-level items.
func ListText(l ListStructure) string {
	var buf strings.Builder
	n := 0
	var render func(items []ListItem)
	render = func(items []ListItem) {
		for _, item := range items {
			buf.WriteString(strings.Repeat("  ", item.Level))
			if l.Type == "ordered" && item.Level == 0 {
				n++
				fmt.Fprintf(&buf, "%d. %s\n", n, item.Content)
			} else {
				fmt.Fprintf(&buf, "- %s\n", item.Content)
			}
			render(item.Children)
		}
	}
	render(l.Items)
	return buf.String()
}

// PlainText returns the flattened text buffer without a trailing separator.
func (d *Document) PlainText() string {
	return strings.TrimSuffix(d.Text, "\n")
}

// OutlineText renders the heading outline with two-space indentation per
// level of nesting.
func (d *Document) OutlineText() string {
	var buf strings.Builder
	var render func(entries []*OutlineEntry, depth int)
	render = func(entries []*OutlineEntry, depth int) {
		for _, e := range entries {
			buf.WriteString(strings.Repeat("  ", depth))
			buf.WriteString(e.Title)
			buf.WriteByte('\n')
			render(e.Children, depth+1)
		}
	}
	render(d.Outline, 0)
	return buf.String()
}

// Markdown renders the parsed forest as GitHub-style Markdown. It is a pure
// projection over the Document; tables re-use their TableStructure.
func (d *Document) Markdown() string {
	var buf strings.Builder
	tables := make(map[string]TableStructure, len(d.Tables))
	for _, t := range d.Tables {
		tables[t.ID] = t
	}
	lists := make(map[string]ListStructure, len(d.Lists))
	for _, l := range d.Lists {
		lists[l.ID] = l
	}

	var render func(blocks []*ParsedBlock)
	render = func(blocks []*ParsedBlock) {
		for _, pb := range blocks {
			switch {
			case pb.Type.IsHeading():
				buf.WriteString(strings.Repeat("#", pb.Type.HeadingLevel()))
				buf.WriteByte(' ')
				buf.WriteString(pb.Content)
				buf.WriteString("\n\n")
			case pb.Type == BlockTable:
				if t, ok := tables[pb.ID]; ok {
					writeMarkdownTable(&buf, t)
				}
			case pb.Type.IsList():
				if l, ok := lists[pb.ID]; ok {
					buf.WriteString(ListText(l))
					buf.WriteByte('\n')
				}
			case pb.Type == BlockQuote:
				for _, line := range strings.Split(pb.Content, "\n") {
					buf.WriteString("> ")
					buf.WriteString(line)
					buf.WriteByte('\n')
				}
				buf.WriteByte('\n')
			case pb.Type == BlockCode:
				buf.WriteString("```\n")
				buf.WriteString(pb.Content)
				buf.WriteString("\n```\n\n")
			case pb.Type == BlockDivider:
				buf.WriteString("---\n\n")
			case pb.Type == BlockImage:
				fmt.Fprintf(&buf, "![](%s)\n\n", pb.ID)
			default:
				if pb.Content != "" {
					buf.WriteString(pb.Content)
					buf.WriteString("\n\n")
				}
				render(pb.Children)
			}
		}
	}
	render(d.Blocks)
	return strings.TrimRight(buf.String(), "\n") + "\n"
}

func writeMarkdownTable(buf *strings.Builder, t TableStructure) {
	header := t.Headers
	rows := t.Data
	if !t.HasHeader {
		if len(rows) == 0 {
			return
		}
		header = rows[0]
		rows = rows[1:]
	}
	buf.WriteString("| " + strings.Join(header, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, row := range rows {
		buf.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	buf.WriteByte('\n')
}
