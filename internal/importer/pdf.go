package importer

import (
	"fmt"
	"io"
	"os"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/wangpeng1017/docedit/internal/blocktree"
)

// PDFImporter extracts page text from PDFs. Scanned documents need OCR,
// which is outside this system's scope; only embedded text is read.
type PDFImporter struct{}

func (p *PDFImporter) Import(r io.Reader, filename string) ([]blocktree.BlockRecord, error) {
	// ledongthuc/pdf requires a ReadSeeker+size, so write to a temp file.
	tmp, err := os.CreateTemp("", "docedit-pdf-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	f, reader, err := pdflib.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var g idGen
	var blocks []blocktree.BlockRecord

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue // skip unreadable pages rather than failing the import
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		blocks = append(blocks, textBlock(&g, blocktree.BlockParagraph, text))
	}
	return blocks, nil
}
