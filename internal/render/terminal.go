package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// Styles is the palette the terminal painter draws with. The TUI supplies a
// light or dark variant; tests use Plain.
type Styles struct {
	Heading   lipgloss.Style
	Body      lipgloss.Style
	Image     lipgloss.Style
	TableHead lipgloss.Style
	TableCell lipgloss.Style
	NoteBox   lipgloss.Style
	NoteLabel lipgloss.Style
	Message   lipgloss.Style
	Error     lipgloss.Style
}

// Plain returns unstyled output, keeping test assertions byte-exact.
func Plain() Styles {
	return Styles{}
}

// Renderer paints a render tree into a single string. The whole string is
// built off-screen and swapped into the viewport in one SetContent call, so
// a reader never sees a partially rendered page.
type Renderer struct {
	Width  int
	Styles Styles
}

// Render paints the nodes in order.
func (r Renderer) Render(nodes []Node) string {
	width := r.Width
	if width < 20 {
		width = 80
	}
	blocks := make([]string, 0, len(nodes))
	for _, node := range nodes {
		switch n := node.(type) {
		case TextNode:
			style := r.Styles.Body
			if n.Size >= HeadingSize {
				style = r.Styles.Heading
			}
			blocks = append(blocks, style.Render(wordwrap.String(n.Text, width)))
		case ImageNode:
			blocks = append(blocks, r.Styles.Image.Render(fmt.Sprintf("[image: %s]", n.Path)))
		case TableNode:
			blocks = append(blocks, r.renderTable(n, width))
		case NoteNode:
			label := r.Styles.NoteLabel.Render("Your note")
			body := wordwrap.String(n.Text, width-4)
			blocks = append(blocks, r.Styles.NoteBox.Render(label+"\n"+body))
		case MessageNode:
			blocks = append(blocks, r.Styles.Message.Render(n.Text))
		}
	}
	return strings.Join(blocks, "\n\n")
}

// RenderError paints an inline failure block that replaces page content.
func (r Renderer) RenderError(message string) string {
	return r.Styles.Error.Render(Escape(message))
}

func (r Renderer) renderTable(table TableNode, width int) string {
	widths := columnWidths(table)
	var b strings.Builder
	if table.Header != nil {
		b.WriteString(r.Styles.TableHead.Render(formatRow(table.Header, widths)))
		b.WriteString("\n")
		b.WriteString(strings.Repeat("─", rowWidth(widths)))
		if len(table.Rows) > 0 {
			b.WriteString("\n")
		}
	}
	for i, row := range table.Rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(r.Styles.TableCell.Render(formatRow(row, widths)))
	}
	return b.String()
}

func columnWidths(table TableNode) []int {
	var widths []int
	grow := func(row []string) {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	grow(table.Header)
	for _, row := range table.Rows {
		grow(row)
	}
	return widths
}

func formatRow(row []string, widths []int) string {
	cells := make([]string, len(widths))
	for i := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		cells[i] = cell + strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
	}
	return strings.TrimRight(strings.Join(cells, "  "), " ")
}

func rowWidth(widths []int) int {
	total := 0
	for _, w := range widths {
		total += w
	}
	if len(widths) > 1 {
		total += 2 * (len(widths) - 1)
	}
	if total < 1 {
		total = 1
	}
	return total
}
