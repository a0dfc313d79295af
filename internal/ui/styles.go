package ui

import "github.com/charmbracelet/lipgloss"

// Color palette
const (
	ColorLime     = "154" // OK, progress accent
	ColorLimeDim  = "106" // Dimmed lime
	ColorWhite    = "255" // Headers
	ColorGray     = "245" // Labels
	ColorDarkGray = "238" // Rules, separators
	ColorRed      = "196" // FAIL
	ColorYellow   = "220" // WARN
	ColorBlue     = "39"  // FIX
)

// Styles holds the styles used by the report and progress renderers.
type Styles struct {
	Header lipgloss.Style
	OK     lipgloss.Style
	Warn   lipgloss.Style
	Fail   lipgloss.Style
	Fix    lipgloss.Style
	Dim    lipgloss.Style
	Label  lipgloss.Style
	Active lipgloss.Style
}

// DefaultStyles returns colored styles for terminals.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorWhite)),
		OK:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warn:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Fail:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorRed)),
		Fix:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBlue)),
		Dim:    lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Label:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Active: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
	}
}

// NoColorStyles returns unstyled components for plain output.
// Rendering through them leaves text byte-for-byte unchanged.
func NoColorStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle(),
		OK:     lipgloss.NewStyle(),
		Warn:   lipgloss.NewStyle(),
		Fail:   lipgloss.NewStyle(),
		Fix:    lipgloss.NewStyle(),
		Dim:    lipgloss.NewStyle(),
		Label:  lipgloss.NewStyle(),
		Active: lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
