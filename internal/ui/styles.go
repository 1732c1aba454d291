// Package ui renders listings for the terminal.
package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in listings.
var (
	ColorRed    = lipgloss.Color("#FF5F5F")
	ColorGreen  = lipgloss.Color("#5FD75F")
	ColorYellow = lipgloss.Color("#FFD75F")
	ColorCyan   = lipgloss.Color("#5FD7FF")
	ColorGray   = lipgloss.Color("#808080")
)

// Base styles reused by the renderers.
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorCyan)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Underline(true)

	DimStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	KindStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)

	RecordedStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed).
			Bold(true)
)

// CellStyle is the plain style for table body cells
var CellStyle = lipgloss.NewStyle()
