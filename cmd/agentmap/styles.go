package main

import "github.com/charmbracelet/lipgloss"

// Style palette for run/compile/diagnose summaries, grounded on
// relurpify's app/relurpish/tui/styles.go convention of a flat
// lipgloss.Color palette plus one NewStyle() chain per semantic role
// (the teacher itself declares charmbracelet/lipgloss in go.mod but
// never imports it, so this CLI follows the pack's actual usage
// precedent instead).
var (
	colorSuccess = lipgloss.Color("42")
	colorFailure = lipgloss.Color("196")
	colorSuspend = lipgloss.Color("220")
	colorDim     = lipgloss.Color("241")
	colorAccent  = lipgloss.Color("39")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSuccess)

	failureStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFailure)

	suspendStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSuspend)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "completed-success":
		return successStyle
	case "completed-failure":
		return failureStyle
	case "suspended":
		return suspendStyle
	default:
		return dimStyle
	}
}
