package output

import "github.com/charmbracelet/lipgloss"

// Palette. ANSI-256 codes.
const (
	ColorAccent  = "154"
	ColorDim     = "245"
	ColorBorder  = "238"
	ColorRed     = "196"
	ColorYellow  = "220"
	ColorHeading = "255"
)

// Styles are the lipgloss styles a Writer renders with.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Label   lipgloss.Style
	Border  lipgloss.Style
}

// DefaultStyles returns the coloured styles used on a terminal.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorHeading)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDim)),
		Label:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Border:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder)),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{
		Header: plain, Success: plain, Warning: plain, Error: plain,
		Dim: plain, Label: plain, Border: plain,
	}
}
