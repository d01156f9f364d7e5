package importer

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/wangpeng1017/docedit/internal/blocktree"
)

// MarkdownImporter handles Markdown files using goldmark.
type MarkdownImporter struct{}

func (p *MarkdownImporter) Import(r io.Reader, filename string) ([]blocktree.BlockRecord, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var g idGen
	var blocks []blocktree.BlockRecord

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			blocks = append(blocks, textBlock(&g, headingType(node.Level), nodeText(node, src)))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			blocks = append(blocks, textBlock(&g, blocktree.BlockCode, blockLines(n, src)))
		case *ast.Blockquote:
			blocks = append(blocks, textBlock(&g, blocktree.BlockQuote, nodeText(node, src)))
		case *ast.ThematicBreak:
			blocks = append(blocks, blocktree.BlockRecord{
				BlockID:   g.next(),
				BlockType: string(blocktree.BlockDivider),
			})
		case *ast.List:
			blocks = append(blocks, listBlock(&g, node, src))
		default:
			if t := nodeText(n, src); t != "" {
				blocks = append(blocks, textBlock(&g, blocktree.BlockParagraph, t))
			}
		}
	}
	return blocks, nil
}

// listBlock converts a goldmark list into a bullet_list/ordered_list block
// with list_item children, nested lists recursing in place.
func listBlock(g *idGen, list *ast.List, src []byte) blocktree.BlockRecord {
	blockType := blocktree.BlockBulletList
	if list.IsOrdered() {
		blockType = blocktree.BlockOrderedList
	}
	rec := blocktree.BlockRecord{BlockID: g.next(), BlockType: string(blockType)}

	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		child := blocktree.BlockRecord{
			BlockID:   g.next(),
			BlockType: string(blocktree.BlockListItem),
		}
		var textParts []string
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				child.Children = append(child.Children, listBlock(g, nested, src))
				continue
			}
			if t := nodeText(c, src); t != "" {
				textParts = append(textParts, t)
			}
		}
		if len(textParts) > 0 {
			child.Text = &blocktree.TextPayload{Content: strings.Join(textParts, " ")}
		}
		rec.Children = append(rec.Children, child)
	}
	return rec
}

// nodeText gets the plain text content of a goldmark AST node.
func nodeText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Value(src))
				if t.HardLineBreak() || t.SoftLineBreak() {
					buf.WriteByte('\n')
				}
				continue
			}
			walk(c)
		}
	}
	if n.Type() == ast.TypeBlock && n.FirstChild() == nil {
		return strings.TrimSpace(blockLines(n, src))
	}
	walk(n)
	return strings.TrimSpace(buf.String())
}

// blockLines joins the raw source lines of a block node (code blocks keep
// their inner newlines).
func blockLines(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}
