package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// debounceFiredMsg is delivered when a scheduled search timer elapses.
type debounceFiredMsg struct {
	id    uint64
	query string
}

// Debouncer coalesces bursts of search input into one action. Each Schedule
// supersedes the previous timer; only the latest firing is honored.
type Debouncer struct {
	delay time.Duration
	id    uint64
}

// NewDebouncer returns a debouncer with the given quiet period.
func NewDebouncer(delay time.Duration) Debouncer {
	return Debouncer{delay: delay}
}

// Schedule starts a new timer for query, canceling any pending one.
func (d Debouncer) Schedule(query string) (Debouncer, tea.Cmd) {
	d.id++
	id := d.id
	return d, tea.Tick(d.delay, func(time.Time) tea.Msg {
		return debounceFiredMsg{id: id, query: query}
	})
}

// Cancel drops any pending timer.
func (d Debouncer) Cancel() Debouncer {
	d.id++
	return d
}

// Current reports whether msg came from the latest Schedule.
func (d Debouncer) Current(msg debounceFiredMsg) bool {
	return msg.id == d.id
}
