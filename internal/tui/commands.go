package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/tutorview/internal/api"
	"github.com/csheth/tutorview/internal/prefs"
)

const requestTimeout = 15 * time.Second

// fetchPageCmd fetches page target. gen is the navigation generation issued
// for this request; the model discards any result whose generation is no
// longer the latest, so a slow earlier response can never overwrite a page
// the reader asked for afterwards.
func fetchPageCmd(client *api.Client, target, gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := client.FetchPage(ctx, target)
		return pageResultMsg{gen: gen, target: target, result: result, err: err}
	}
}

func searchCmd(client *api.Client, query string, seq int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		results, err := client.Search(ctx, query)
		return searchResultMsg{seq: seq, query: query, results: results, err: err}
	}
}

func loadBookmarksCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		pages, err := client.Bookmarks(ctx)
		return bookmarksLoadedMsg{pages: pages, err: err}
	}
}

func toggleBookmarkCmd(client *api.Client, page int, action api.BookmarkAction) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		pages, err := client.SetBookmark(ctx, page, action)
		return bookmarkToggledMsg{page: page, pages: pages, err: err}
	}
}

func loadNotesCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		notes, err := client.Notes(ctx)
		return notesLoadedMsg{notes: notes, err: err}
	}
}

func saveNoteCmd(client *api.Client, page int, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		stored, err := client.SetNote(ctx, page, text)
		return noteSavedMsg{page: page, text: stored, err: err}
	}
}

func savePrefsCmd(store *prefs.Store, p prefs.Prefs) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return prefsSavedMsg{err: store.Save(p)}
	}
}
