package tui

import (
	"time"

	"github.com/csheth/tutorview/internal/api"
)

type stage int

const (
	stageLoading stage = iota
	stageDisplay
	stageFailed
)

// focusArea tracks which text input owns the keyboard. Navigation shortcuts
// are suppressed whenever any input is focused.
type focusArea int

const (
	focusNone focusArea = iota
	focusSearch
	focusJump
	focusNote
)

// searchState distinguishes the outcomes the reader can see: a prompt for
// more characters, an in-flight query, an explicit empty result, results, or
// a failure. Empty and failed are never conflated.
type searchState int

const (
	searchIdle searchState = iota
	searchTooShort
	searchPending
	searchEmpty
	searchReady
	searchFailed
)

const (
	minViewportWidth = 40
	sidebarWidth     = 34
	// Below this terminal width the sidebar collapses. Recomputed from the
	// viewport on every resize, never persisted.
	sidebarMinTotalWidth = 100

	searchMinQueryRunes = 2
	swipeThresholdCells = 5
	thumbCellWidth      = 5
)

type pageResultMsg struct {
	gen    int
	target int
	result *api.PageResult
	err    error
}

type searchResultMsg struct {
	seq     int
	query   string
	results []api.SearchResult
	err     error
}

type bookmarksLoadedMsg struct {
	pages []int
	err   error
}

type bookmarkToggledMsg struct {
	page  int
	pages []int
	err   error
}

type notesLoadedMsg struct {
	notes map[int]string
	err   error
}

type noteSavedMsg struct {
	page int
	text string
	err  error
}

type prefsSavedMsg struct {
	err error
}

const searchDebounce = 300 * time.Millisecond
