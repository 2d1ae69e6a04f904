// ABOUTME: NewProgram wires a tea.Program to a running workspace.Controller's event stream.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/workspace"
)

// NewProgram subscribes to ctrl's routed events and returns a tea.Program
// that renders them live. The caller owns ctrl's lifecycle (Start/Run); the
// returned program's Run method blocks until the user quits.
func NewProgram(title string, ctrl *workspace.Controller) *tea.Program {
	events := make(chan core.Event, 256)
	ctrl.AddMessageListener(func(ev core.Event) {
		select {
		case events <- ev:
		default:
		}
	})
	return tea.NewProgram(NewAppModel(title, events), tea.WithAltScreen())
}
