package blocktree

// BlockType identifies one kind of node in a cloud document's block tree.
// Unrecognized wire values normalize to BlockUnknown rather than failing.
type BlockType string

const (
	BlockText        BlockType = "text"
	BlockParagraph   BlockType = "paragraph"
	BlockHeading1    BlockType = "heading1"
	BlockHeading2    BlockType = "heading2"
	BlockHeading3    BlockType = "heading3"
	BlockHeading4    BlockType = "heading4"
	BlockHeading5    BlockType = "heading5"
	BlockHeading6    BlockType = "heading6"
	BlockTable       BlockType = "table"
	BlockTableRow    BlockType = "table_row"
	BlockTableCell   BlockType = "table_cell"
	BlockBulletList  BlockType = "bullet_list"
	BlockOrderedList BlockType = "ordered_list"
	BlockListItem    BlockType = "list_item"
	BlockImage       BlockType = "image"
	BlockQuote       BlockType = "quote"
	BlockCode        BlockType = "code"
	BlockDivider     BlockType = "divider"
	BlockUnknown     BlockType = "unknown"
)

// NormalizeType maps a raw block_type string onto the closed BlockType set.
func NormalizeType(s string) BlockType {
	switch BlockType(s) {
	case BlockText, BlockParagraph,
		BlockHeading1, BlockHeading2, BlockHeading3,
		BlockHeading4, BlockHeading5, BlockHeading6,
		BlockTable, BlockTableRow, BlockTableCell,
		BlockBulletList, BlockOrderedList, BlockListItem,
		BlockImage, BlockQuote, BlockCode, BlockDivider:
		return BlockType(s)
	}
	return BlockUnknown
}

// HeadingLevel returns 1..6 for heading types and 0 otherwise.
func (t BlockType) HeadingLevel() int {
	switch t {
	case BlockHeading1:
		return 1
	case BlockHeading2:
		return 2
	case BlockHeading3:
		return 3
	case BlockHeading4:
		return 4
	case BlockHeading5:
		return 5
	case BlockHeading6:
		return 6
	}
	return 0
}

// IsHeading reports whether t is any heading level.
func (t BlockType) IsHeading() bool { return t.HeadingLevel() > 0 }

// IsList reports whether t is a list container.
func (t BlockType) IsList() bool { return t == BlockBulletList || t == BlockOrderedList }

// TextPayload is the text portion of a raw block record.
type TextPayload struct {
	Content string `json:"content"`
	Style   string `json:"style,omitempty"`
}

// BlockRecord is one node of the external document API's block tree.
type BlockRecord struct {
	BlockID   string        `json:"block_id"`
	BlockType string        `json:"block_type"`
	Text      *TextPayload  `json:"text,omitempty"`
	Children  []BlockRecord `json:"children,omitempty"`
}

// DocumentMeta is the document-level metadata returned by the document API.
type DocumentMeta struct {
	DocumentID string `json:"document_id"`
	Title      string `json:"title"`
	OwnerID    string `json:"owner_id"`
	CreateTime string `json:"create_time"`
	UpdateTime string `json:"update_time"`
	URL        string `json:"url"`
}

// Span is a [Start,End) byte range into a Document's flattened text buffer.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// ParsedBlock is one normalized node of the parsed block forest. Position
// covers the block's own content only; children carry their own spans.
type ParsedBlock struct {
	ID       string         `json:"id"`
	Type     BlockType      `json:"type"`
	Content  string         `json:"content,omitempty"`
	Level    int            `json:"level"`
	Position Span           `json:"position"`
	Children []*ParsedBlock `json:"children,omitempty"`

	parent *ParsedBlock
}

// Parent returns the owning block, or nil for roots.
func (b *ParsedBlock) Parent() *ParsedBlock { return b.parent }

// OutlineEntry is one heading in the document outline.
type OutlineEntry struct {
	ID       string          `json:"id"`
	Level    int             `json:"level"`
	Title    string          `json:"title"`
	Children []*OutlineEntry `json:"children,omitempty"`
}

// TableStructure is a table block flattened into headers and data rows.
type TableStructure struct {
	ID        string     `json:"id"`
	Rows      int        `json:"rows"`
	Columns   int        `json:"columns"`
	Headers   []string   `json:"headers,omitempty"`
	Data      [][]string `json:"data"`
	HasHeader bool       `json:"has_header"`
}

// ListItem is one entry of a ListStructure. Level is the nesting depth
// below the list root; direct children sit at 0.
type ListItem struct {
	ID       string     `json:"id"`
	Content  string     `json:"content"`
	Level    int        `json:"level"`
	Children []ListItem `json:"children,omitempty"`
}

// ListStructure is a bullet or ordered list with its recursive items.
type ListStructure struct {
	ID    string     `json:"id"`
	Type  string     `json:"type"` // "bullet" or "ordered"
	Items []ListItem `json:"items"`
}

// Statistics are accumulated during the same traversal that builds the tree.
type Statistics struct {
	TotalBlocks    int `json:"total_blocks"`
	TextBlocks     int `json:"text_blocks"`
	Headings       int `json:"headings"`
	Tables         int `json:"tables"`
	Lists          int `json:"lists"`
	Images         int `json:"images"`
	WordCount      int `json:"word_count"`
	CharacterCount int `json:"character_count"`
}

// Document is the root aggregate produced by Parse.
type Document struct {
	Meta    DocumentMeta    `json:"meta"`
	Blocks  []*ParsedBlock  `json:"blocks"`
	Text    string          `json:"text"`
	Outline []*OutlineEntry `json:"outline,omitempty"`
	Tables  []TableStructure `json:"tables,omitempty"`
	Lists   []ListStructure  `json:"lists,omitempty"`
	Images  []string        `json:"images,omitempty"`
	Stats   Statistics      `json:"statistics"`

	index []indexEntry
}

type indexEntry struct {
	span  Span
	block *ParsedBlock
}
