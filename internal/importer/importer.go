// Package importer converts local files into the raw block-record trees the
// parser consumes, so contract sources that live outside the cloud document
// service can still go through the same search/replace pipeline.
package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/wangpeng1017/docedit/internal/blocktree"
)

// Importer converts raw document bytes into block records.
type Importer interface {
	Import(r io.Reader, filename string) ([]blocktree.BlockRecord, error)
}

// SupportedExtensions lists file extensions with an importer.
var SupportedExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".htm":  true,
	".pdf":  true,
	".docx": true,
}

// ForFile returns the importer for a filename.
func ForFile(filename string) (Importer, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextImporter{}, nil
	case ".md", ".markdown":
		return &MarkdownImporter{}, nil
	case ".html", ".htm":
		return &HTMLImporter{}, nil
	case ".pdf":
		return &PDFImporter{}, nil
	case ".docx":
		return &DOCXImporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupported checks whether a filename has an importer.
func IsSupported(filename string) bool {
	return SupportedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// idGen hands out synthetic block ids within one import.
type idGen int

func (g *idGen) next() string {
	*g++
	return fmt.Sprintf("blk_%d", int(*g))
}

func textBlock(g *idGen, blockType blocktree.BlockType, content string) blocktree.BlockRecord {
	return blocktree.BlockRecord{
		BlockID:   g.next(),
		BlockType: string(blockType),
		Text:      &blocktree.TextPayload{Content: content},
	}
}

func headingType(level int) blocktree.BlockType {
	switch level {
	case 1:
		return blocktree.BlockHeading1
	case 2:
		return blocktree.BlockHeading2
	case 3:
		return blocktree.BlockHeading3
	case 4:
		return blocktree.BlockHeading4
	case 5:
		return blocktree.BlockHeading5
	default:
		return blocktree.BlockHeading6
	}
}
