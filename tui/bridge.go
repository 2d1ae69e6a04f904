// ABOUTME: tea.Cmd factories bridging a Controller's event channel and a wall clock into the message loop.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/chorus/core"
)

// ListenCmd blocks on events until one arrives, then resolves to an
// EventMsg; once the channel is closed it resolves to nil. The caller re-issues ListenCmd after each
// EventMsg to keep listening; see AppModel.Update.
func ListenCmd(events <-chan core.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

// TickCmd sends a TickMsg after interval, for spinner/elapsed-time refresh.
func TickCmd(interval time.Duration) tea.Cmd {
	return func() tea.Msg {
		time.Sleep(interval)
		return TickMsg{Time: time.Now()}
	}
}
