package blocktree

import (
	"sort"
	"unicode/utf8"

	"github.com/wangpeng1017/docedit/internal/search"
)

// BlockAt returns the block whose content span contains the given byte
// offset into the flattened text buffer, or nil for separator bytes and
// out-of-range offsets.
func (d *Document) BlockAt(offset int) *ParsedBlock {
	// Spans are disjoint and monotonic, so the rightmost span starting at or
	// before offset is the only candidate.
	i := sort.Search(len(d.index), func(i int) bool {
		return d.index[i].span.Start > offset
	})
	if i == 0 {
		return nil
	}
	e := d.index[i-1]
	if offset >= e.span.End {
		return nil
	}
	return e.block
}

// BlockMatch is a search hit mapped back to its owning block. Path is
// recomputed on every call and never cached.
type BlockMatch struct {
	BlockID   string    `json:"block_id"`
	BlockType BlockType `json:"block_type"`
	Snippet   string    `json:"snippet"`
	Start     int       `json:"start"`
	End       int       `json:"end"`
	Text      string    `json:"text"`
	Path      []string  `json:"path"`
}

// Resolve maps flattened-buffer matches onto their owning blocks. Matches
// that fall on separator bytes (possible only with hand-built spans) are
// dropped.
func (d *Document) Resolve(matches []search.Match) []BlockMatch {
	var out []BlockMatch
	for _, m := range matches {
		pb := d.BlockAt(m.Start)
		if pb == nil {
			continue
		}
		out = append(out, BlockMatch{
			BlockID:   pb.ID,
			BlockType: pb.Type,
			Snippet:   snippet(pb.Content, m.Start-pb.Position.Start, m.End-pb.Position.Start),
			Start:     m.Start,
			End:       m.End,
			Text:      m.Text,
			Path:      blockPath(pb),
		})
	}
	return out
}

// blockPath walks parent references to produce the root→block id chain.
func blockPath(pb *ParsedBlock) []string {
	var rev []string
	for b := pb; b != nil; b = b.parent {
		rev = append(rev, b.ID)
	}
	path := make([]string, len(rev))
	for i, id := range rev {
		path[len(rev)-1-i] = id
	}
	return path
}

const snippetContext = 30 // runes kept on each side of a match

func snippet(content string, start, end int) string {
	if start < 0 || end > len(content) || start > end {
		return content
	}
	lo := start
	for n := 0; lo > 0 && n < snippetContext; n++ {
		r, size := utf8.DecodeLastRuneInString(content[:lo])
		if r == utf8.RuneError && size <= 1 {
			lo--
			continue
		}
		lo -= size
	}
	hi := end
	for n := 0; hi < len(content) && n < snippetContext; n++ {
		r, size := utf8.DecodeRuneInString(content[hi:])
		if r == utf8.RuneError && size <= 1 {
			hi++
			continue
		}
		hi += size
	}
	s := content[lo:hi]
	if lo > 0 {
		s = "…" + s
	}
	if hi < len(content) {
		s += "…"
	}
	return s
}
