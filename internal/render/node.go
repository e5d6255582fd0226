// Package render turns a fetched page into a declarative render tree and
// paints that tree for the terminal. Keeping the tree separate from the
// painter keeps the ordering and escaping contract testable without a live
// UI.
package render

import (
	"strings"

	"github.com/csheth/tutorview/internal/api"
)

// Font-size hints from the extractor are clamped into this range. Hints at or
// above HeadingSize render with heading emphasis.
const (
	MinFontSize = 12
	MaxFontSize = 24
	HeadingSize = 18
)

// Node is one block of the render tree.
type Node interface {
	renderNode()
}

// TextNode is a block of extracted text. Size is the clamped font hint, zero
// when the extractor supplied none.
type TextNode struct {
	Text string
	Size float64
}

// ImageNode references an extracted image by its server-relative path.
type ImageNode struct {
	Path string
}

// TableNode carries a header row and body rows. Header may be nil when the
// source table's first row was missing.
type TableNode struct {
	Header []string
	Rows   [][]string
}

// NoteNode is the reader's note for the page, always the last block.
type NoteNode struct {
	Text string
}

// MessageNode is an informational placeholder, used when a page has no
// extractable content.
type MessageNode struct {
	Text string
}

func (TextNode) renderNode()    {}
func (ImageNode) renderNode()   {}
func (TableNode) renderNode()   {}
func (NoteNode) renderNode()    {}
func (MessageNode) renderNode() {}

// ClampFontSize bounds an extractor font hint into [MinFontSize, MaxFontSize].
// A zero hint stays zero, meaning "no hint".
func ClampFontSize(hint float64) float64 {
	if hint == 0 {
		return 0
	}
	if hint < MinFontSize {
		return MinFontSize
	}
	if hint > MaxFontSize {
		return MaxFontSize
	}
	return hint
}

// BuildPage produces the render tree for a page plus the reader's note for
// it (empty when none). Element order is preserved exactly as received; the
// legacy flat fields are consulted only when the ordered element list is
// absent entirely, never when it is present but empty.
func BuildPage(page *api.Page, note string) []Node {
	var nodes []Node
	if page.Elements != nil {
		for _, element := range page.Elements {
			switch element.Kind {
			case api.ElementText:
				nodes = append(nodes, TextNode{
					Text: Escape(element.Text),
					Size: ClampFontSize(element.FontSize),
				})
			case api.ElementImage:
				nodes = append(nodes, ImageNode{Path: Escape(element.Path)})
			case api.ElementTable:
				if table, ok := buildTable(element.Rows); ok {
					nodes = append(nodes, table)
				}
			}
		}
	} else {
		if strings.TrimSpace(page.Text) != "" {
			nodes = append(nodes, TextNode{Text: Escape(page.Text)})
		}
		for _, rows := range page.Tables {
			if table, ok := buildTable(rows); ok {
				nodes = append(nodes, table)
			}
		}
		for _, image := range page.Images {
			nodes = append(nodes, ImageNode{Path: Escape(image.Path)})
		}
	}

	if len(nodes) == 0 {
		nodes = append(nodes, MessageNode{Text: "This page has no extractable content."})
	}
	if note != "" {
		nodes = append(nodes, NoteNode{Text: Escape(note)})
	}
	return nodes
}

// buildTable classifies rows by raw index: index 0 is the header, everything
// after is body. Nil rows are skipped without shifting that classification,
// so a missing middle row never promotes a body row to header.
func buildTable(rows [][]string) (TableNode, bool) {
	if len(rows) == 0 {
		return TableNode{}, false
	}
	table := TableNode{}
	for idx, row := range rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = Escape(cell)
		}
		if idx == 0 {
			table.Header = cells
			continue
		}
		table.Rows = append(table.Rows, cells)
	}
	if table.Header == nil && len(table.Rows) == 0 {
		return TableNode{}, false
	}
	return table, true
}
