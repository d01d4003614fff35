// Package styles provides lipgloss styling for CLI output.
package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Theme groups the output styles used across subcommands.
type Theme struct {
	Title lipgloss.Style
	Key   lipgloss.Style
	Value lipgloss.Style
	Path  lipgloss.Style
	Good  lipgloss.Style
	Bad   lipgloss.Style
	Muted lipgloss.Style
}

// NewTheme builds the default theme.
func NewTheme() *Theme {
	return &Theme{
		Title: lipgloss.NewStyle().Bold(true),
		Key:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		Value: lipgloss.NewStyle(),
		Path:  lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		Good:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		Bad:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// KV renders one aligned "key: value" line.
func (t *Theme) KV(key string, value any) string {
	return fmt.Sprintf("%s %s", t.Key.Render(fmt.Sprintf("%-12s", key+":")), t.Value.Render(fmt.Sprint(value)))
}
