package ui

import "github.com/charmbracelet/lipgloss"

// Color palette, lime accent on gray.
const (
	ColorLime     = "154"
	ColorLimeDim  = "106"
	ColorWhite    = "255"
	ColorGray     = "245"
	ColorDarkGray = "238"
	ColorRed      = "196"
	ColorYellow   = "220"
)

// Styles holds the styles used by prompts and notices.
type Styles struct {
	Title    lipgloss.Style
	Option   lipgloss.Style
	Selected lipgloss.Style
	Cursor   lipgloss.Style
	Notice   lipgloss.Style
	Warning  lipgloss.Style
	Dim      lipgloss.Style
	Panel    lipgloss.Style
}

// DefaultStyles returns styles for color terminals.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		Option:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Notice:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLimeDim)),
		Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
	}
}

// NoColorStyles returns unstyled components.
func NoColorStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle(),
		Option:   lipgloss.NewStyle(),
		Selected: lipgloss.NewStyle(),
		Cursor:   lipgloss.NewStyle(),
		Notice:   lipgloss.NewStyle(),
		Warning:  lipgloss.NewStyle(),
		Dim:      lipgloss.NewStyle(),
		Panel:    lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
