package importer

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/wangpeng1017/docedit/internal/blocktree"
)

// HTMLImporter handles HTML files, including tables and lists so the
// parser's table/list structures get real input from web-sourced contracts.
type HTMLImporter struct{}

func (p *HTMLImporter) Import(r io.Reader, filename string) ([]blocktree.BlockRecord, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var g idGen
	var blocks []blocktree.BlockRecord

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				blocks = append(blocks, textBlock(&g, headingType(level), textContent(n)))
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header":
				return
			case "p", "blockquote", "pre":
				blockType := blocktree.BlockParagraph
				if n.Data == "blockquote" {
					blockType = blocktree.BlockQuote
				} else if n.Data == "pre" {
					blockType = blocktree.BlockCode
				}
				if t := textContent(n); t != "" {
					blocks = append(blocks, textBlock(&g, blockType, t))
				}
				return
			case "table":
				blocks = append(blocks, tableRecord(&g, n))
				return
			case "ul", "ol":
				blocks = append(blocks, listRecord(&g, n))
				return
			case "hr":
				blocks = append(blocks, blocktree.BlockRecord{
					BlockID:   g.next(),
					BlockType: string(blocktree.BlockDivider),
				})
				return
			case "img":
				blocks = append(blocks, blocktree.BlockRecord{
					BlockID:   g.next(),
					BlockType: string(blocktree.BlockImage),
				})
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	if body := findElement(doc, "body"); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return blocks, nil
}

func tableRecord(g *idGen, table *html.Node) blocktree.BlockRecord {
	rec := blocktree.BlockRecord{BlockID: g.next(), BlockType: string(blocktree.BlockTable)}

	var visitRows func(*html.Node)
	visitRows = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if c.Data == "tr" {
				row := blocktree.BlockRecord{BlockID: g.next(), BlockType: string(blocktree.BlockTableRow)}
				for cell := c.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type == html.ElementNode && (cell.Data == "td" || cell.Data == "th") {
						row.Children = append(row.Children, blocktree.BlockRecord{
							BlockID:   g.next(),
							BlockType: string(blocktree.BlockTableCell),
							Text:      &blocktree.TextPayload{Content: textContent(cell)},
						})
					}
				}
				rec.Children = append(rec.Children, row)
				continue
			}
			visitRows(c) // thead/tbody/tfoot wrappers
		}
	}
	visitRows(table)
	return rec
}

func listRecord(g *idGen, list *html.Node) blocktree.BlockRecord {
	blockType := blocktree.BlockBulletList
	if list.Data == "ol" {
		blockType = blocktree.BlockOrderedList
	}
	rec := blocktree.BlockRecord{BlockID: g.next(), BlockType: string(blockType)}

	for c := list.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.Data != "li" {
			continue
		}
		item := blocktree.BlockRecord{
			BlockID:   g.next(),
			BlockType: string(blocktree.BlockListItem),
			Text:      &blocktree.TextPayload{Content: ownText(c)},
		}
		for sub := c.FirstChild; sub != nil; sub = sub.NextSibling {
			if sub.Type == html.ElementNode && (sub.Data == "ul" || sub.Data == "ol") {
				item.Children = append(item.Children, listRecord(g, sub))
			}
		}
		rec.Children = append(rec.Children, item)
	}
	return rec
}

func headingLevel(tag string) int {
	if len(tag) == 2 && tag[0] == 'h' && tag[1] >= '1' && tag[1] <= '6' {
		return int(tag[1] - '0')
	}
	return 0
}

// textContent concatenates all descendant text.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

// ownText is like textContent but stops at nested lists, so an li's text
// excludes its sub-items.
func ownText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && (c.Data == "ul" || c.Data == "ol") {
				continue
			}
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}
