// ABOUTME: Lipgloss style constants for the live viewer's log panel and status bar.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62"))

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	LogTimestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	LogMessageStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	LogServiceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	LogLifecycleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	LogErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	StatusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)
)
