package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/marcin-skalski/actions-status/internal/status"
)

var (
	// Status colors
	colorNoRuns       = lipgloss.Color("240") // gray
	colorOK           = lipgloss.Color("46")  // green
	colorRunningOK    = lipgloss.Color("33")  // blue
	colorRunningFail  = lipgloss.Color("220") // yellow
	colorFailed       = lipgloss.Color("196") // red
	colorDisconnected = lipgloss.Color("208") // orange-red

	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			PaddingLeft(1).
			PaddingRight(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			MarginTop(1).
			MarginBottom(0)

	repoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedRepoStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Background(lipgloss.Color("237"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	noticeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("124")).
			PaddingLeft(1).
			PaddingRight(1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	warnFooterStyle = footerStyle.
			Foreground(lipgloss.Color("214"))

	emptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

func statusColor(s status.Status) lipgloss.Color {
	switch s {
	case status.NoRuns:
		return colorNoRuns
	case status.OK:
		return colorOK
	case status.RunningFromOK:
		return colorRunningOK
	case status.RunningFromFailed:
		return colorRunningFail
	case status.Failed:
		return colorFailed
	case status.Disconnected:
		return colorDisconnected
	default:
		return lipgloss.Color("252")
	}
}
