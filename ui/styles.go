package ui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#dddddd"}).
			Bold(true)

	artistStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#AD58B4"})

	currentLineStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF5FD2")).
				Bold(true)

	sungWordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5FD2")).
			Bold(true).
			Underline(true)

	upcomingLineStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"})

	selectedLineStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFDF5D")).
				Bold(true)

	pauseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}).
			Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#4A4A4A", Dark: "#B2B2B2"})

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ED567A")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))
)
