package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/csheth/tutorview/internal/prefs"
	"github.com/csheth/tutorview/internal/render"
)

// styles is the chrome palette for one theme. Document content styles live
// in render.Styles; everything here is UI furniture.
type styles struct {
	header        lipgloss.Style
	helper        lipgloss.Style
	errorText     lipgloss.Style
	statusBar     lipgloss.Style
	sidebarBox    lipgloss.Style
	sidebarTitle  lipgloss.Style
	thumb         lipgloss.Style
	thumbActive   lipgloss.Style
	thumbMarked   lipgloss.Style
	navEnabled    lipgloss.Style
	navDisabled   lipgloss.Style
	searchHit     lipgloss.Style
	searchContext lipgloss.Style
	inputLabel    lipgloss.Style

	content render.Styles
}

func newStyles(theme prefs.Theme) styles {
	if theme == prefs.ThemeDark {
		return darkStyles()
	}
	return lightStyles()
}

func lightStyles() styles {
	accent := lipgloss.Color("25")
	dim := lipgloss.Color("243")
	return styles{
		header:        lipgloss.NewStyle().Bold(true).Foreground(accent),
		helper:        lipgloss.NewStyle().Foreground(dim),
		errorText:     lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
		statusBar:     lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(accent).Padding(0, 1),
		sidebarBox:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dim).Padding(0, 1),
		sidebarTitle:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		thumb:         lipgloss.NewStyle().Foreground(dim),
		thumbActive:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(accent),
		thumbMarked:   lipgloss.NewStyle().Foreground(lipgloss.Color("136")),
		navEnabled:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		navDisabled:   lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		searchHit:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("190")),
		searchContext: lipgloss.NewStyle().Foreground(dim),
		inputLabel:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		content: render.Styles{
			Heading:   lipgloss.NewStyle().Bold(true).Foreground(accent),
			Body:      lipgloss.NewStyle(),
			Image:     lipgloss.NewStyle().Italic(true).Foreground(dim),
			TableHead: lipgloss.NewStyle().Bold(true).Foreground(accent),
			TableCell: lipgloss.NewStyle(),
			NoteBox:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("136")).Padding(0, 1),
			NoteLabel: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("136")),
			Message:   lipgloss.NewStyle().Italic(true).Foreground(dim),
			Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("124")),
		},
	}
}

func darkStyles() styles {
	accent := lipgloss.Color("81")
	dim := lipgloss.Color("244")
	amber := lipgloss.Color("214")
	return styles{
		header:        lipgloss.NewStyle().Bold(true).Foreground(accent),
		helper:        lipgloss.NewStyle().Foreground(dim),
		errorText:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		statusBar:     lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(accent).Padding(0, 1),
		sidebarBox:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(dim).Padding(0, 1),
		sidebarTitle:  lipgloss.NewStyle().Bold(true).Foreground(accent),
		thumb:         lipgloss.NewStyle().Foreground(dim),
		thumbActive:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(accent),
		thumbMarked:   lipgloss.NewStyle().Foreground(amber),
		navEnabled:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		navDisabled:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		searchHit:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("229")),
		searchContext: lipgloss.NewStyle().Foreground(dim),
		inputLabel:    lipgloss.NewStyle().Bold(true).Foreground(accent),
		content: render.Styles{
			Heading:   lipgloss.NewStyle().Bold(true).Foreground(accent),
			Body:      lipgloss.NewStyle(),
			Image:     lipgloss.NewStyle().Italic(true).Foreground(dim),
			TableHead: lipgloss.NewStyle().Bold(true).Foreground(accent),
			TableCell: lipgloss.NewStyle(),
			NoteBox:   lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(amber).Padding(0, 1),
			NoteLabel: lipgloss.NewStyle().Bold(true).Foreground(amber),
			Message:   lipgloss.NewStyle().Italic(true).Foreground(dim),
			Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		},
	}
}
