package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/csheth/tutorview/internal/api"
	"github.com/csheth/tutorview/internal/render"
)

func (m *model) View() string {
	switch m.stage {
	case stageLoading:
		return m.viewLoading()
	case stageFailed:
		return m.viewFailed()
	}
	return m.viewDisplay()
}

func (m *model) viewLoading() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.infoMessage)
	b.WriteString("\n")
	return b.String()
}

func (m *model) viewFailed() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(m.styles.errorText.Render("Could not load the tutorial."))
	if m.errorMessage != "" {
		b.WriteString("\n  ")
		b.WriteString(m.styles.helper.Render(m.errorMessage))
	}
	b.WriteString("\n\n  ")
	b.WriteString(m.styles.helper.Render("r retry  •  q quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *model) viewDisplay() string {
	var b strings.Builder
	b.WriteString(m.viewHeader())
	b.WriteString("\n")
	if !m.mobileLayout {
		b.WriteString(m.viewThumbStrip())
		b.WriteString("\n")
		m.thumbRowY = 1
	} else {
		m.thumbRowY = -1
	}

	body := m.viewport.View()
	if m.sidebarVisible {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, m.viewSidebar())
	}
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(m.viewFooter())
	return b.String()
}

func (m *model) viewHeader() string {
	title := m.styles.header.Render("tutorview")
	indicator := fmt.Sprintf("Page %d / %d", m.currentPage, m.totalPages)
	if m.loading {
		indicator = m.spinner.View() + " " + indicator
	}
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(indicator) - 2
	if gap < 1 {
		gap = 1
	}
	return title + strings.Repeat(" ", gap) + m.styles.helper.Render(indicator)
}

// viewThumbStrip draws a windowed run of page-number cells centered on the
// current page and records the window origin for click mapping.
func (m *model) viewThumbStrip() string {
	if m.totalPages < 1 {
		m.thumbStart = 0
		return ""
	}
	count := m.width / thumbCellWidth
	if count < 1 {
		count = 1
	}
	if count > m.totalPages {
		count = m.totalPages
	}
	start := m.currentPage - count/2
	if start > m.totalPages-count+1 {
		start = m.totalPages - count + 1
	}
	if start < 1 {
		start = 1
	}
	m.thumbStart = start

	var cells []string
	for page := start; page < start+count; page++ {
		label := fmt.Sprintf("%*d", thumbCellWidth-2, page)
		switch {
		case page == m.currentPage:
			cells = append(cells, m.styles.thumbActive.Render(label))
		case m.annotations.Bookmarked(page):
			cells = append(cells, m.styles.thumbMarked.Render(label))
		default:
			cells = append(cells, m.styles.thumb.Render(label))
		}
	}
	return strings.Join(cells, "")
}

func (m *model) viewSidebar() string {
	var b strings.Builder
	b.WriteString(m.styles.sidebarTitle.Render("Search"))
	b.WriteString("\n")
	b.WriteString(m.viewSearchSection())
	b.WriteString("\n\n")
	b.WriteString(m.styles.sidebarTitle.Render("Bookmarks"))
	b.WriteString("\n")
	b.WriteString(m.viewBookmarkSection())
	b.WriteString("\n\n")
	b.WriteString(m.styles.sidebarTitle.Render("Notes"))
	b.WriteString("\n")
	b.WriteString(m.viewNoteSection())

	box := m.styles.sidebarBox.Copy().
		Width(sidebarWidth - 2).
		Height(m.viewport.Height - 2)
	return box.Render(b.String())
}

func (m *model) viewSearchSection() string {
	inner := uint(sidebarWidth - 4)
	switch m.searchState {
	case searchIdle:
		return m.styles.helper.Render("Press / to search.")
	case searchTooShort:
		return m.styles.helper.Render("Enter at least 2 characters to search.")
	case searchPending:
		return m.styles.helper.Render("Searching…")
	case searchEmpty:
		return m.styles.helper.Render("No matches found.")
	case searchFailed:
		return m.styles.errorText.Render("Search failed. Keep typing to retry.")
	}

	var b strings.Builder
	for i, result := range m.searchResults {
		if i > 0 {
			b.WriteString("\n")
		}
		marker := "  "
		if i == m.selectedResult && m.focus == focusSearch {
			marker = "> "
		}
		b.WriteString(marker)
		b.WriteString(m.styles.helper.Render(fmt.Sprintf("p.%d", result.PageNumber)))
		if len(result.Matches) > 1 {
			b.WriteString(m.styles.helper.Render(fmt.Sprintf(" ×%d", len(result.Matches))))
		}
		b.WriteString(" ")
		if len(result.Matches) > 0 {
			b.WriteString(m.highlightMatch(result.Matches[0], inner))
		}
	}
	return b.String()
}

// highlightMatch styles the matched span inside the context snippet when the
// offsets still land within the (possibly truncated) string. The context is
// extracted content and is escaped like every other extracted string.
func (m *model) highlightMatch(match api.Match, width uint) string {
	context := truncate.StringWithTail(render.Escape(match.Context), width, "…")
	start, end := match.HighlightStart, match.HighlightEnd
	runes := []rune(context)
	if start < 0 || end <= start || end > len(runes) {
		return m.styles.searchContext.Render(context)
	}
	return m.styles.searchContext.Render(string(runes[:start])) +
		m.styles.searchHit.Render(string(runes[start:end])) +
		m.styles.searchContext.Render(string(runes[end:]))
}

func (m *model) viewBookmarkSection() string {
	pages := m.annotations.BookmarkedPages()
	if len(pages) == 0 {
		return m.styles.helper.Render("None yet. Press ctrl+b to add one.")
	}
	var b strings.Builder
	for i, page := range pages {
		if i > 0 {
			b.WriteString("\n")
		}
		line := fmt.Sprintf("  page %d", page)
		if page == m.currentPage {
			line = fmt.Sprintf("● page %d", page)
		}
		b.WriteString(m.styles.searchContext.Render(line))
	}
	return b.String()
}

func (m *model) viewNoteSection() string {
	entries := m.annotations.NoteEntries()
	if len(entries) == 0 {
		return m.styles.helper.Render("None yet. Press n to write one.")
	}
	inner := uint(sidebarWidth - 4)
	var b strings.Builder
	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		text := render.Escape(strings.ReplaceAll(entry.Text, "\n", " "))
		text = truncate.StringWithTail(text, inner, "…")
		b.WriteString(m.styles.helper.Render(fmt.Sprintf("p.%d ", entry.Page)))
		b.WriteString(m.styles.searchContext.Render(text))
	}
	return b.String()
}

func (m *model) viewFooter() string {
	var b strings.Builder

	prev := "← prev"
	if m.currentPage <= 1 {
		b.WriteString(m.styles.navDisabled.Render(prev))
	} else {
		b.WriteString(m.styles.navEnabled.Render(prev))
	}
	b.WriteString("  ")
	next := "next →"
	if m.totalPages > 0 && m.currentPage >= m.totalPages {
		b.WriteString(m.styles.navDisabled.Render(next))
	} else {
		b.WriteString(m.styles.navEnabled.Render(next))
	}
	b.WriteString("  ")
	if m.totalPages > 0 {
		b.WriteString(m.progressBar.ViewAs(float64(m.currentPage) / float64(m.totalPages)))
	}
	b.WriteString("\n")

	b.WriteString(m.viewStatusLine())
	b.WriteString("\n")
	b.WriteString(m.viewInputLine())
	return b.String()
}

func (m *model) viewStatusLine() string {
	if m.errorMessage != "" {
		return m.styles.errorText.Render(m.errorMessage)
	}
	if m.infoMessage != "" {
		return m.styles.statusBar.Render(m.infoMessage)
	}
	return m.styles.statusBar.Render(" ")
}

func (m *model) viewInputLine() string {
	switch m.focus {
	case focusSearch:
		return m.styles.inputLabel.Render("search:") + " " + m.searchInput.View()
	case focusJump:
		return m.styles.inputLabel.Render("go to page:") + " " + m.jumpInput.View()
	case focusNote:
		return m.styles.inputLabel.Render("note:") + " " + m.noteInput.View()
	}
	help := "←/→ pages  g jump  / search  n note  ctrl+b bookmark  ctrl+t theme  q quit"
	return m.styles.helper.Render(truncate.String(help, uint(max(m.width, 20))))
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
