// Package tui is the interactive shell: it owns navigation state, routes
// every navigation intent through a single goToPage path, and keeps the
// rendered page, sidebar, and persisted annotations consistent while
// responses arrive out of order.
package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/csheth/tutorview/internal/annotate"
	"github.com/csheth/tutorview/internal/api"
	"github.com/csheth/tutorview/internal/prefs"
	"github.com/csheth/tutorview/internal/render"
)

// Config wires runtime collaborators into the TUI program.
type Config struct {
	Client    *api.Client
	Prefs     *prefs.Store
	Logger    *zap.Logger
	Theme     prefs.Theme
	StartPage int
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) *model {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.StartPage < 1 {
		config.StartPage = 1
	}
	if config.Theme != prefs.ThemeDark {
		config.Theme = prefs.ThemeLight
	}

	searchInput := textinput.New()
	searchInput.Placeholder = "Search the document…"
	searchInput.CharLimit = 120
	searchInput.Width = 40

	jumpInput := textinput.New()
	jumpInput.Placeholder = "page #"
	jumpInput.CharLimit = 6
	jumpInput.Width = 8

	noteInput := textinput.New()
	noteInput.Placeholder = "Write a note for this page…"
	noteInput.CharLimit = 500
	noteInput.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	vp := viewport.New(80, 20)
	vp.MouseWheelEnabled = true

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return &model{
		config:      config,
		stage:       stageLoading,
		focus:       focusNone,
		theme:       config.Theme,
		styles:      newStyles(config.Theme),
		searchInput: searchInput,
		jumpInput:   jumpInput,
		noteInput:   noteInput,
		spinner:     spin,
		viewport:    vp,
		progressBar: bar,
		annotations: annotate.New(),
		debounce:    newDebouncer(searchDebounce),
		infoMessage: "Loading tutorial…",
	}
}

type model struct {
	config Config
	stage  stage
	focus  focusArea
	theme  prefs.Theme
	styles styles

	searchInput textinput.Model
	jumpInput   textinput.Model
	noteInput   textinput.Model
	spinner     spinner.Model
	viewport    viewport.Model
	progressBar progress.Model

	annotations *annotate.Manager

	currentPage int
	totalPages  int
	page        *api.Page
	loading     bool
	fetchGen    int

	debounce       debouncer
	searchQuery    string
	searchResults  []api.SearchResult
	searchState    searchState
	selectedResult int

	width          int
	height         int
	sidebarVisible bool
	mobileLayout   bool
	thumbStart     int
	thumbRowY      int

	dragActive bool
	dragX      int
	dragY      int

	infoMessage  string
	errorMessage string
}

func (m *model) Init() tea.Cmd {
	m.fetchGen++
	return tea.Batch(
		textinput.Blink,
		m.spinner.Tick,
		fetchPageCmd(m.config.Client, m.config.StartPage, m.fetchGen),
		loadBookmarksCmd(m.config.Client),
		loadNotesCmd(m.config.Client),
	)
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.stage == stageLoading || m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.applyWindowSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case pageResultMsg:
		return m.handlePageResult(msg)

	case searchDebounceMsg:
		return m.handleSearchDebounce(msg)

	case searchResultMsg:
		return m.handleSearchResult(msg)

	case bookmarksLoadedMsg:
		if msg.err != nil {
			// Prior local state stays intact on a failed read.
			m.config.Logger.Warn("bookmark load failed", zap.Error(msg.err))
			return m, nil
		}
		m.annotations.ReplaceBookmarks(msg.pages)
		return m, nil

	case bookmarkToggledMsg:
		if msg.err != nil {
			m.config.Logger.Warn("bookmark toggle failed", zap.Int("page", msg.page), zap.Error(msg.err))
			m.errorMessage = "Bookmark change was not saved."
			return m, nil
		}
		m.annotations.ReplaceBookmarks(msg.pages)
		m.errorMessage = ""
		if m.annotations.Bookmarked(msg.page) {
			m.infoMessage = fmt.Sprintf("Bookmarked page %d.", msg.page)
		} else {
			m.infoMessage = fmt.Sprintf("Removed bookmark on page %d.", msg.page)
		}
		return m, nil

	case notesLoadedMsg:
		if msg.err != nil {
			m.config.Logger.Warn("notes load failed", zap.Error(msg.err))
			return m, nil
		}
		m.annotations.ReplaceNotes(msg.notes)
		if m.page != nil {
			m.renderPage()
		}
		return m, nil

	case noteSavedMsg:
		return m.handleNoteSaved(msg)

	case prefsSavedMsg:
		if msg.err != nil {
			m.config.Logger.Warn("preference save failed", zap.Error(msg.err))
		}
		return m, nil
	}
	return m, nil
}

// goToPage is the single navigation entry point. Out-of-bounds and same-page
// targets are complete no-ops: no request is issued and nothing changes.
func (m *model) goToPage(n int) tea.Cmd {
	if n < 1 || n == m.currentPage {
		return nil
	}
	if m.totalPages > 0 && n > m.totalPages {
		return nil
	}
	m.loading = true
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Loading page %d…", n)
	m.fetchGen++
	return tea.Batch(m.spinner.Tick, fetchPageCmd(m.config.Client, n, m.fetchGen))
}

func (m *model) previousPage() tea.Cmd { return m.goToPage(m.currentPage - 1) }
func (m *model) nextPage() tea.Cmd     { return m.goToPage(m.currentPage + 1) }

func (m *model) handlePageResult(msg pageResultMsg) (tea.Model, tea.Cmd) {
	if msg.gen != m.fetchGen {
		// A newer navigation superseded this response.
		m.config.Logger.Debug("dropping stale page response",
			zap.Int("target", msg.target), zap.Int("gen", msg.gen), zap.Int("latest", m.fetchGen))
		return m, nil
	}
	m.loading = false
	if msg.err != nil {
		m.config.Logger.Warn("page fetch failed", zap.Int("target", msg.target), zap.Error(msg.err))
		m.errorMessage = msg.err.Error()
		m.infoMessage = ""
		if m.stage == stageLoading {
			m.stage = stageFailed
			return m, nil
		}
		// The failed navigation is fully reverted: the error block replaces
		// page content but currentPage does not advance.
		m.viewport.SetContent(m.renderer().RenderError(msg.err.Error()))
		return m, nil
	}

	if m.totalPages == 0 {
		// Fixed for the lifetime of the loaded document.
		m.totalPages = msg.result.TotalPages
	}
	m.stage = stageDisplay
	m.currentPage = msg.target
	m.page = &msg.result.Page
	m.errorMessage = ""
	m.infoMessage = ""
	m.renderPage()
	return m, savePrefsCmd(m.config.Prefs, prefs.Prefs{Theme: m.theme, LastPage: m.currentPage})
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.stage == stageFailed {
		switch key.String() {
		case "r":
			m.stage = stageLoading
			m.infoMessage = "Retrying…"
			m.errorMessage = ""
			m.fetchGen++
			return m, tea.Batch(m.spinner.Tick, fetchPageCmd(m.config.Client, m.config.StartPage, m.fetchGen))
		case "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	}
	if m.focus != focusNone {
		return m.handleInputKey(key)
	}
	return m.handleDisplayKey(key)
}

// handleDisplayKey runs only while no text input has focus, so typing into
// the search box never triggers navigation shortcuts.
func (m *model) handleDisplayKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.stage == stageLoading {
		switch key.String() {
		case "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	}
	switch key.String() {
	case "left", "pgup":
		return m, m.previousPage()
	case "right", "pgdown", " ":
		return m, m.nextPage()
	case "home":
		return m, m.goToPage(1)
	case "end":
		return m, m.goToPage(m.totalPages)
	case "ctrl+b":
		return m, m.toggleBookmark()
	case "ctrl+f", "/":
		m.setFocus(focusSearch)
		return m, nil
	case "g":
		m.jumpInput.SetValue("")
		m.setFocus(focusJump)
		return m, nil
	case "n":
		m.noteInput.SetValue(m.annotations.Note(m.currentPage))
		m.setFocus(focusNote)
		return m, nil
	case "ctrl+t":
		return m, m.toggleTheme()
	case "q", "esc":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(key)
	return m, cmd
}

func (m *model) handleInputKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.Type {
	case tea.KeyEsc:
		if m.focus == focusSearch {
			m.clearSearch()
		}
		m.setFocus(focusNone)
		return m, nil
	case tea.KeyEnter:
		return m.submitFocusedInput()
	}

	switch m.focus {
	case focusSearch:
		// Result selection stays on the keyboard while the box is focused.
		if m.searchState == searchReady {
			switch key.String() {
			case "down", "ctrl+n":
				if m.selectedResult < len(m.searchResults)-1 {
					m.selectedResult++
				}
				return m, nil
			case "up", "ctrl+p":
				if m.selectedResult > 0 {
					m.selectedResult--
				}
				return m, nil
			}
		}
		var cmd tea.Cmd
		before := m.searchInput.Value()
		m.searchInput, cmd = m.searchInput.Update(key)
		if value := m.searchInput.Value(); value != before {
			m.searchQuery = value
			// Trailing-edge debounce: the request goes out only after the
			// input has been quiet for the full interval.
			return m, tea.Batch(cmd, m.debounce.Arm())
		}
		return m, cmd
	case focusJump:
		var cmd tea.Cmd
		m.jumpInput, cmd = m.jumpInput.Update(key)
		return m, cmd
	case focusNote:
		var cmd tea.Cmd
		m.noteInput, cmd = m.noteInput.Update(key)
		return m, cmd
	}
	return m, nil
}

func (m *model) submitFocusedInput() (tea.Model, tea.Cmd) {
	switch m.focus {
	case focusSearch:
		if m.searchState == searchReady && len(m.searchResults) > 0 {
			target := m.searchResults[m.selectedResult].PageNumber
			m.setFocus(focusNone)
			return m, m.goToPage(target)
		}
		return m, nil
	case focusJump:
		value := strings.TrimSpace(m.jumpInput.Value())
		m.setFocus(focusNone)
		target, err := strconv.Atoi(value)
		if err != nil || target < 1 || target > m.totalPages {
			// Invalid input resets to the last-known-good page, no error
			// shown and no navigation.
			m.jumpInput.SetValue(strconv.Itoa(m.currentPage))
			return m, nil
		}
		return m, m.goToPage(target)
	case focusNote:
		text := m.noteInput.Value()
		m.setFocus(focusNone)
		m.infoMessage = "Saving note…"
		return m, saveNoteCmd(m.config.Client, m.currentPage, text)
	}
	return m, nil
}

func (m *model) setFocus(area focusArea) {
	m.focus = area
	m.searchInput.Blur()
	m.jumpInput.Blur()
	m.noteInput.Blur()
	switch area {
	case focusSearch:
		m.searchInput.Focus()
	case focusJump:
		m.jumpInput.Focus()
	case focusNote:
		m.noteInput.Focus()
	}
}

func (m *model) handleSearchDebounce(msg searchDebounceMsg) (tea.Model, tea.Cmd) {
	if m.debounce.Stale(msg.seq) {
		return m, nil
	}
	query := strings.TrimSpace(m.searchQuery)
	if len([]rune(query)) < searchMinQueryRunes {
		m.searchResults = nil
		if query == "" {
			m.searchState = searchIdle
		} else {
			m.searchState = searchTooShort
		}
		return m, nil
	}
	m.searchState = searchPending
	return m, searchCmd(m.config.Client, query, msg.seq)
}

func (m *model) handleSearchResult(msg searchResultMsg) (tea.Model, tea.Cmd) {
	if m.debounce.Stale(msg.seq) {
		// The reader kept typing; this response answers an old query.
		return m, nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrQueryTooShort) {
			m.searchState = searchTooShort
			m.searchResults = nil
			return m, nil
		}
		m.config.Logger.Warn("search failed", zap.String("query", msg.query), zap.Error(msg.err))
		m.searchState = searchFailed
		m.searchResults = nil
		return m, nil
	}
	if len(msg.results) == 0 {
		m.searchState = searchEmpty
		m.searchResults = nil
		return m, nil
	}
	m.searchState = searchReady
	m.searchResults = msg.results
	m.selectedResult = 0
	return m, nil
}

func (m *model) clearSearch() {
	m.debounce.Cancel()
	m.searchInput.SetValue("")
	m.searchQuery = ""
	m.searchResults = nil
	m.searchState = searchIdle
	m.selectedResult = 0
}

// toggleBookmark sends the action that flips the current page's membership
// and waits for the server's confirmed set before changing anything locally.
func (m *model) toggleBookmark() tea.Cmd {
	if m.stage != stageDisplay {
		return nil
	}
	action := m.annotations.ToggleAction(m.currentPage)
	return toggleBookmarkCmd(m.config.Client, m.currentPage, action)
}

func (m *model) handleNoteSaved(msg noteSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// Fail closed: the local note map is untouched.
		m.config.Logger.Warn("note save failed", zap.Int("page", msg.page), zap.Error(msg.err))
		m.errorMessage = "Note was not saved."
		m.infoMessage = ""
		return m, nil
	}
	m.annotations.SetNote(msg.page, msg.text)
	m.errorMessage = ""
	if msg.text == "" {
		m.infoMessage = fmt.Sprintf("Removed note on page %d.", msg.page)
	} else {
		m.infoMessage = fmt.Sprintf("Saved note on page %d.", msg.page)
	}
	if msg.page == m.currentPage && m.page != nil {
		m.renderPage()
	}
	return m, nil
}

func (m *model) toggleTheme() tea.Cmd {
	m.theme = m.theme.Toggle()
	m.styles = newStyles(m.theme)
	if m.page != nil {
		m.renderPage()
	}
	m.infoMessage = fmt.Sprintf("Switched to %s theme.", m.theme)
	return savePrefsCmd(m.config.Prefs, prefs.Prefs{Theme: m.theme, LastPage: m.lastGoodPage()})
}

func (m *model) lastGoodPage() int {
	if m.currentPage < 1 {
		return 1
	}
	return m.currentPage
}

func (m *model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.MouseLeft:
		if m.stage == stageDisplay && msg.Y == m.thumbRowY {
			if target, ok := m.thumbAt(msg.X); ok {
				return m, m.goToPage(target)
			}
		}
		m.dragActive = true
		m.dragX, m.dragY = msg.X, msg.Y
		return m, nil
	case tea.MouseRelease:
		if m.dragActive {
			m.dragActive = false
			dx := msg.X - m.dragX
			dy := msg.Y - m.dragY
			// Horizontal drags page through the document, the terminal
			// cousin of a swipe. Mostly-vertical drags are left alone.
			if abs(dx) >= swipeThresholdCells && abs(dx) > abs(dy) {
				if dx > 0 {
					return m, m.previousPage()
				}
				return m, m.nextPage()
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *model) thumbAt(x int) (int, bool) {
	if m.thumbStart < 1 {
		return 0, false
	}
	target := m.thumbStart + x/thumbCellWidth
	if target < 1 || target > m.totalPages {
		return 0, false
	}
	return target, true
}

func (m *model) applyWindowSize(width, height int) {
	m.width = width
	m.height = height
	m.sidebarVisible = width >= sidebarMinTotalWidth
	m.mobileLayout = width < 80

	contentWidth := width - 4
	if m.sidebarVisible {
		contentWidth -= sidebarWidth
	}
	if contentWidth < minViewportWidth {
		contentWidth = minViewportWidth
	}
	m.viewport.Width = contentWidth

	chrome := 7
	if m.mobileLayout {
		chrome = 5
	}
	contentHeight := height - chrome
	if contentHeight < 5 {
		contentHeight = 5
	}
	m.viewport.Height = contentHeight

	barWidth := contentWidth - 20
	if barWidth < 10 {
		barWidth = 10
	}
	m.progressBar.Width = barWidth

	if m.page != nil {
		m.renderPage()
	}
}

func (m *model) renderer() render.Renderer {
	return render.Renderer{Width: m.viewport.Width, Styles: m.styles.content}
}

// renderPage swaps a fully built page string into the viewport in one call,
// so the reader never sees intermediate markup.
func (m *model) renderPage() {
	nodes := render.BuildPage(m.page, m.annotations.Note(m.currentPage))
	m.viewport.SetContent(m.renderer().Render(nodes))
	m.viewport.GotoTop()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
