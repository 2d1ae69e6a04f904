// ABOUTME: Single-line status bar showing elapsed time, routed message count, and live agent count.
// ABOUTME: Adapted from the teacher's pipeline status bar to track a workspace instead of a build.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/chorus/core"
)

// StatusBarModel tracks aggregate workspace activity for the bottom bar.
type StatusBarModel struct {
	title        string
	startTime    time.Time
	messageCount int
	liveAgents   map[core.Identifier]bool
	width        int
}

// NewStatusBarModel creates a status bar labeled with the workspace title.
func NewStatusBarModel(title string) StatusBarModel {
	return StatusBarModel{
		title:      title,
		startTime:  time.Now(),
		liveAgents: make(map[core.Identifier]bool),
	}
}

// Observe updates the bar's counters from one routed event.
func (m *StatusBarModel) Observe(ev core.Event) {
	switch ev.Type {
	case core.EventMessage:
		m.messageCount++
	case core.EventAgentStarted:
		m.liveAgents[ev.AgentName] = true
	case core.EventAgentStopped:
		delete(m.liveAgents, ev.AgentName)
	}
}

// SetWidth sets the rendering width.
func (m *StatusBarModel) SetWidth(w int) {
	m.width = w
}

func (m StatusBarModel) elapsed() time.Duration {
	return time.Since(m.startTime).Truncate(time.Second)
}

// View renders the status bar as a single styled line.
func (m StatusBarModel) View() string {
	content := fmt.Sprintf("%s | elapsed %s | %d messages | %d agents live",
		m.title, m.elapsed(), m.messageCount, len(m.liveAgents))
	return lipgloss.PlaceHorizontal(m.width, lipgloss.Left, StatusBarStyle.Width(m.width).Render(content))
}
