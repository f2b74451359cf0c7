package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	header lipgloss.Style
	panel  lipgloss.Style
	label  lipgloss.Style
	value  lipgloss.Style
	graph  lipgloss.Style
	help   lipgloss.Style
	status map[string]lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		header: lipgloss.NewStyle().Foreground(t.Accent).Bold(true).MarginBottom(1),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(1, 2).
			Width(46),
		label: lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value: lipgloss.NewStyle().Foreground(t.Text),
		graph: lipgloss.NewStyle().Foreground(t.Primary).Padding(1, 0),
		help:  lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		status: map[string]lipgloss.Style{
			"running":   lipgloss.NewStyle().Bold(true).Foreground(t.Success),
			"paused":    lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
			"completed": lipgloss.NewStyle().Bold(true).Foreground(t.Accent),
			"failed":    lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		},
	}
}

// ProgressBar renders a filled/empty bar for a fraction in [0, 1].
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
