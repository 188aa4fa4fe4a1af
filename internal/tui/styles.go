// Package tui holds terminal detection and the lipgloss styles used when a
// human is watching.
package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red
	ColorMuted   = lipgloss.Color("240") // Dark gray
)

var (
	// BannerStyle frames the destructive-operation warning.
	BannerStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(ColorError).
			Foreground(ColorWarning).
			Bold(true).
			Padding(0, 2)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

const SymbolWarning = "⚠"
