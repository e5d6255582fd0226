package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// searchDebounceMsg fires when a debounce timer elapses. Only the timer whose
// sequence matches the debouncer's latest arm is acted on.
type searchDebounceMsg struct {
	seq int
}

// debouncer suppresses repeated triggers until input has been quiescent for
// the configured interval. It owns an explicit sequence counter instead of a
// closure-captured timer, so arming again or cancelling invalidates every
// earlier timer and nothing leaks across teardown.
type debouncer struct {
	interval time.Duration
	seq      int
}

func newDebouncer(interval time.Duration) debouncer {
	return debouncer{interval: interval}
}

// Arm schedules a trailing-edge fire and invalidates any pending one.
func (d *debouncer) Arm() tea.Cmd {
	d.seq++
	seq := d.seq
	return tea.Tick(d.interval, func(time.Time) tea.Msg {
		return searchDebounceMsg{seq: seq}
	})
}

// Stale reports whether a fired timer was superseded by a later Arm or
// Cancel.
func (d *debouncer) Stale(seq int) bool {
	return seq != d.seq
}

// Cancel invalidates any pending fire without scheduling a new one.
func (d *debouncer) Cancel() {
	d.seq++
}
