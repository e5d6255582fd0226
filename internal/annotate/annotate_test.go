package annotate

import (
	"testing"

	"github.com/csheth/tutorview/internal/api"
)

func TestReplaceBookmarksIsWholesale(t *testing.T) {
	t.Parallel()

	m := New()
	m.ReplaceBookmarks([]int{5, 2, 9})
	if got := m.BookmarkedPages(); len(got) != 3 || got[0] != 2 || got[1] != 5 || got[2] != 9 {
		t.Fatalf("pages = %v, want sorted [2 5 9]", got)
	}

	// A later confirmed set fully replaces the earlier one, including pages
	// another session removed.
	m.ReplaceBookmarks([]int{2})
	if m.Bookmarked(5) || m.Bookmarked(9) {
		t.Fatal("stale pages survived replacement")
	}
	if !m.Bookmarked(2) {
		t.Fatal("page 2 missing after replacement")
	}

	m.ReplaceBookmarks(nil)
	if got := m.BookmarkedPages(); len(got) != 0 {
		t.Fatalf("pages = %v, want empty", got)
	}
}

func TestToggleAction(t *testing.T) {
	t.Parallel()

	m := New()
	if got := m.ToggleAction(4); got != api.BookmarkAdd {
		t.Fatalf("unmarked page action = %q, want add", got)
	}
	m.ReplaceBookmarks([]int{4})
	if got := m.ToggleAction(4); got != api.BookmarkRemove {
		t.Fatalf("marked page action = %q, want remove", got)
	}
}

func TestNotes(t *testing.T) {
	t.Parallel()

	m := New()
	m.ReplaceNotes(map[int]string{3: "setup", 7: "  ", 1: "intro"})
	if m.Note(7) != "" {
		t.Fatal("blank note should be dropped on replace")
	}

	entries := m.NoteEntries()
	if len(entries) != 2 || entries[0].Page != 1 || entries[1].Page != 3 {
		t.Fatalf("entries = %#v, want pages [1 3]", entries)
	}

	m.SetNote(3, "")
	if m.Note(3) != "" {
		t.Fatal("empty SetNote should delete the entry")
	}
	if len(m.NoteEntries()) != 1 {
		t.Fatalf("entries = %#v, want one left", m.NoteEntries())
	}

	m.SetNote(9, "summary")
	if m.Note(9) != "summary" {
		t.Fatalf("Note(9) = %q", m.Note(9))
	}
}
