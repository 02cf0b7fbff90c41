// Package debounce delays a value until input has been quiet for a while.
// Each Schedule supersedes the previous one; superseded timers still fire
// but their SettledMsg is rejected by Accept.
package debounce

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

var lastID atomic.Int64

type SettledMsg struct {
	id    int64
	tag   uint64
	Value string
}

type Debouncer struct {
	id    int64
	tag   uint64
	delay time.Duration
}

func New(delay time.Duration) Debouncer {
	return Debouncer{id: lastID.Add(1), delay: delay}
}

func (d Debouncer) Delay() time.Duration { return d.delay }

// Schedule starts the quiet window for value. A non-positive delay settles
// on the next update.
func (d *Debouncer) Schedule(value string) tea.Cmd {
	d.tag++
	msg := SettledMsg{id: d.id, tag: d.tag, Value: value}
	if d.delay <= 0 {
		return func() tea.Msg { return msg }
	}
	return tea.Tick(d.delay, func(time.Time) tea.Msg { return msg })
}

// Cancel discards whatever is pending.
func (d *Debouncer) Cancel() {
	d.tag++
}

// Accept reports whether msg is the settlement of the latest Schedule.
func (d Debouncer) Accept(msg SettledMsg) bool {
	return msg.id == d.id && msg.tag == d.tag
}
