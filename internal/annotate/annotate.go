// Package annotate owns the in-memory bookmark set and note map. Local state
// only changes after the server confirms a mutation: bookmark updates replace
// the whole set with the server's copy rather than patching it, which keeps
// this client consistent even when another session edits the same document.
package annotate

import (
	"sort"
	"strings"

	"github.com/csheth/tutorview/internal/api"
)

// NoteEntry pairs a page with its stored note for list presentation.
type NoteEntry struct {
	Page int
	Text string
}

// Manager is the sole owner of annotation state for one loaded document.
type Manager struct {
	bookmarks map[int]struct{}
	notes     map[int]string
}

func New() *Manager {
	return &Manager{
		bookmarks: map[int]struct{}{},
		notes:     map[int]string{},
	}
}

// ReplaceBookmarks swaps in the authoritative set returned by the server.
func (m *Manager) ReplaceBookmarks(pages []int) {
	next := make(map[int]struct{}, len(pages))
	for _, page := range pages {
		next[page] = struct{}{}
	}
	m.bookmarks = next
}

// ReplaceNotes swaps in the authoritative note map returned by the server.
// Empty notes are dropped rather than stored.
func (m *Manager) ReplaceNotes(notes map[int]string) {
	next := make(map[int]string, len(notes))
	for page, text := range notes {
		if strings.TrimSpace(text) == "" {
			continue
		}
		next[page] = text
	}
	m.notes = next
}

// Bookmarked reports whether page is in the set.
func (m *Manager) Bookmarked(page int) bool {
	_, ok := m.bookmarks[page]
	return ok
}

// ToggleAction returns the mutation that flips page's bookmark state. The
// caller sends it to the server and applies the returned set on confirmation.
func (m *Manager) ToggleAction(page int) api.BookmarkAction {
	if m.Bookmarked(page) {
		return api.BookmarkRemove
	}
	return api.BookmarkAdd
}

// BookmarkedPages returns the set sorted ascending, however it arrived.
func (m *Manager) BookmarkedPages() []int {
	pages := make([]int, 0, len(m.bookmarks))
	for page := range m.bookmarks {
		pages = append(pages, page)
	}
	sort.Ints(pages)
	return pages
}

// Note returns the note for page, empty when none is stored.
func (m *Manager) Note(page int) string {
	return m.notes[page]
}

// SetNote records a server-confirmed note. Empty text removes the entry
// entirely; a page never maps to an empty string.
func (m *Manager) SetNote(page int, text string) {
	if strings.TrimSpace(text) == "" {
		delete(m.notes, page)
		return
	}
	m.notes[page] = text
}

// NoteEntries returns every note sorted by numeric page order.
func (m *Manager) NoteEntries() []NoteEntry {
	entries := make([]NoteEntry, 0, len(m.notes))
	for page, text := range m.notes {
		entries = append(entries, NoteEntry{Page: page, Text: text})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Page < entries[j].Page })
	return entries
}
