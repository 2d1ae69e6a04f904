// ABOUTME: AppModel is the top-level Bubble Tea model composing the log panel and status bar into a
// ABOUTME: live viewer of a running workspace.Controller's event stream. Implements tea.Model.
package tui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/2389-research/chorus/core"
)

// AppModel is the live-viewer Bubble Tea model.
type AppModel struct {
	log       LogPanelModel
	statusBar StatusBarModel
	events    <-chan core.Event

	width  int
	height int
}

// NewAppModel creates an AppModel that reads from events until it closes.
// title is shown in the status bar (typically the workspace document's title).
func NewAppModel(title string, events <-chan core.Event) AppModel {
	return AppModel{
		log:       NewLogPanelModel(200),
		statusBar: NewStatusBarModel(title),
		events:    events,
	}
}

// Init implements tea.Model.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(ListenCmd(m.events), TickCmd(250*time.Millisecond))
}

// Update implements tea.Model.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case EventMsg:
		m.log.Append(msg.Event)
		m.statusBar.Observe(msg.Event)
		return m, ListenCmd(m.events)

	case TickMsg:
		return m, TickCmd(250 * time.Millisecond)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	statusHeight := 1
	logHeight := m.height - statusHeight
	if logHeight < 3 {
		logHeight = 3
	}

	m.log.SetSize(m.width, logHeight)
	m.statusBar.SetWidth(m.width)

	var b strings.Builder
	b.WriteString(m.log.View())
	b.WriteString("\n")
	b.WriteString(m.statusBar.View())
	return b.String()
}
