package importer

import (
	"bufio"
	"io"
	"strings"

	"github.com/wangpeng1017/docedit/internal/blocktree"
)

// TextImporter handles plain text files. Blank lines separate paragraphs.
type TextImporter struct{}

func (p *TextImporter) Import(r io.Reader, filename string) ([]blocktree.BlockRecord, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var g idGen
	var blocks []blocktree.BlockRecord
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			blocks = append(blocks, textBlock(&g, blocktree.BlockParagraph, current.String()))
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}
