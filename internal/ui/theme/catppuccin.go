package theme

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha.
var (
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Overlay0 = lipgloss.Color("#6c7086")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Blue     = lipgloss.Color("#89b4fa")
	Mauve    = lipgloss.Color("#cba6f7")
	Yellow   = lipgloss.Color("#f9e2af")
	Green    = lipgloss.Color("#a6e3a1")
	Peach    = lipgloss.Color("#fab387")
	Red      = lipgloss.Color("#f38ba8")

	Pane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Surface1).
		Background(Mantle).
		Foreground(Text).
		Padding(1, 2)

	PaneActive = Pane.BorderForeground(Lavender)

	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
	Error = lipgloss.NewStyle().Foreground(Red)

	// Day and Night color sun-relative values.
	Day   = lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	Night = lipgloss.NewStyle().Foreground(Mauve).Bold(true)
	Bar   = lipgloss.NewStyle().Foreground(Blue)
)
