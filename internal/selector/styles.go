package selector

import "github.com/charmbracelet/lipgloss"

// Styles contains the lipgloss styles of the selector.
type Styles struct {
	Title  lipgloss.Style
	Cursor lipgloss.Style
	Chosen lipgloss.Style
	Normal lipgloss.Style
	Muted  lipgloss.Style
	Prompt lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() *Styles {
	var (
		primary = lipgloss.Color("#7C3AED")
		success = lipgloss.Color("#A6E3A1")
		muted   = lipgloss.Color("#6C7086")
		warning = lipgloss.Color("#F9E2AF")
	)
	return &Styles{
		Title:  lipgloss.NewStyle().Bold(true).Foreground(primary),
		Cursor: lipgloss.NewStyle().Bold(true).Foreground(primary),
		Chosen: lipgloss.NewStyle().Foreground(success),
		Normal: lipgloss.NewStyle(),
		Muted:  lipgloss.NewStyle().Foreground(muted),
		Prompt: lipgloss.NewStyle().Foreground(warning),
	}
}
