package delwizard

import (
	"charm.land/lipgloss/v2"

	"github.com/atelierhq/atelier/internal/tui/theme"
)

// renderHintBar renders a hint bar with the given key-description pairs.
// Example: renderHintBar("↑↓", "navigate", "enter", "select", "esc", "back")
// Returns: "↑↓ navigate • enter select • esc back"
func renderHintBar(pairs ...string) string {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return ""
	}
	t := theme.Current()
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgSubtle)).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted))
	sepStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(t.BgSurface2))

	var result string
	for i := 0; i < len(pairs); i += 2 {
		if i > 0 {
			result += " " + sepStyle.Render("•") + " "
		}
		result += keyStyle.Render(pairs[i]) + " " + descStyle.Render(pairs[i+1])
	}
	return result
}

func labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Current().FgSubtle))
}

func errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Current().Error))
}

func selectedStyle() lipgloss.Style {
	t := theme.Current()
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(t.BgBase)).
		Background(lipgloss.Color(t.Secondary)).
		Bold(true)
}

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Current().Primary)).Bold(true)
}

func mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Current().FgMuted))
}
