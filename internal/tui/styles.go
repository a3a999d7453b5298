// file: internal/tui/styles.go
// version: 1.0.0
// guid: 9e1b3d5f-7a8c-4e0b-a2d4-6f8b0c2e4a71

package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Accent    = lipgloss.Color("#C2410C")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
	Green     = lipgloss.Color("#10B981")
	Amber     = lipgloss.Color("#F59E0B")
	Red       = lipgloss.Color("#EF4444")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(Accent).
			Bold(true).
			Padding(0, 1)

	ChipStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)

	ActiveChipStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Accent).
			Padding(0, 1)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// statusStyle colours a reading status badge.
func statusStyle(read, reading bool) lipgloss.Style {
	switch {
	case read:
		return lipgloss.NewStyle().Foreground(Green)
	case reading:
		return lipgloss.NewStyle().Foreground(Amber)
	}
	return DimStyle
}
