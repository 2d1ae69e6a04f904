// ABOUTME: Scrollable event log panel built on the bubbles viewport, adapted from the teacher's
// ABOUTME: engine-event log panel to render core.Event (messages, service requests, lifecycle) instead.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/chorus/core"
)

// LogPanelModel is a scrollable, bounded log of routed events.
type LogPanelModel struct {
	entries  []core.Event
	max      int
	viewport viewport.Model
	width    int
	height   int
}

// NewLogPanelModel creates a log panel retaining at most maxEntries events.
// maxEntries <= 0 defaults to 200.
func NewLogPanelModel(maxEntries int) LogPanelModel {
	if maxEntries <= 0 {
		maxEntries = 200
	}
	return LogPanelModel{
		entries:  make([]core.Event, 0, maxEntries),
		max:      maxEntries,
		viewport: viewport.New(80, 10),
	}
}

// Append records ev, evicting the oldest entry once at capacity.
func (m *LogPanelModel) Append(ev core.Event) {
	if len(m.entries) >= m.max {
		m.entries = m.entries[1:]
	}
	m.entries = append(m.entries, ev)
	m.syncViewport()
}

// Len reports how many events are currently retained.
func (m LogPanelModel) Len() int {
	return len(m.entries)
}

// SetSize updates the panel's available dimensions.
func (m *LogPanelModel) SetSize(w, h int) {
	m.width, m.height = w, h
	vpWidth, vpHeight := w-2, h-3
	if vpWidth < 1 {
		vpWidth = 1
	}
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = vpHeight
	m.syncViewport()
}

// View renders the bordered log panel.
func (m LogPanelModel) View() string {
	content := "No events yet"
	if len(m.entries) > 0 {
		content = m.viewport.View()
	}
	rendered := TitleStyle.Render("EVENTS") + "\n" + content
	return BorderStyle.Width(m.width - 2).Height(m.height - 2).Render(rendered)
}

func (m *LogPanelModel) syncViewport() {
	lines := make([]string, 0, len(m.entries))
	for _, ev := range m.entries {
		lines = append(lines, formatEvent(ev))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func formatEvent(ev core.Event) string {
	ts := LogTimestampStyle.Render(fmt.Sprintf("#%04d", ev.Message.Timestamp))
	kind := eventStyle(ev.Type).Render(string(ev.Type))

	var detail string
	switch ev.Type {
	case core.EventMessage:
		detail = fmt.Sprintf("%s -> %s: %s", ev.Message.Source, destinationOf(ev.Message), truncate(ev.Message.Content, 80))
	case core.EventTeamServiceRequest, core.EventTeamServiceResponse:
		detail = fmt.Sprintf("%s -> %s", ev.Message.Source, destinationOf(ev.Message))
	case core.EventAgentStarted, core.EventAgentStopped:
		detail = string(ev.AgentName)
	case core.EventHandlerCrash, core.EventDeadLetter:
		if ev.Err != nil {
			detail = ev.Err.Error()
		}
	}

	if detail == "" {
		return fmt.Sprintf("%s %s", ts, kind)
	}
	return fmt.Sprintf("%s %s %s", ts, kind, detail)
}

func destinationOf(m core.Message) core.Identifier {
	if m.HasChannel() {
		return m.Channel
	}
	return m.Destination
}

func eventStyle(t core.EventType) lipgloss.Style {
	switch t {
	case core.EventMessage:
		return LogMessageStyle
	case core.EventTeamServiceRequest, core.EventTeamServiceResponse:
		return LogServiceStyle
	case core.EventAgentStarted, core.EventAgentStopped:
		return LogLifecycleStyle
	case core.EventHandlerCrash, core.EventDeadLetter:
		return LogErrorStyle
	default:
		return LogMessageStyle
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
