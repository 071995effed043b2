package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/pyspectre/internal/aggregator"
	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/reporter"
)

// Panel colors
var (
	colorLow    = lipgloss.Color("#00FF00")
	colorMedium = lipgloss.Color("#FFFF00")
	colorHigh   = lipgloss.Color("#FF8800")
	colorMuted  = lipgloss.Color("#888888")
	colorAccent = lipgloss.Color("#7B68EE")
	colorBorder = lipgloss.Color("#444444")
)

// Panel styles
var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	styleDetailPanel = lipgloss.NewStyle().
				Padding(0, 1).
				BorderStyle(lipgloss.NormalBorder()).
				BorderTop(true).
				BorderForeground(colorBorder)

	styleFooter = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)

	styleSearchPrompt = lipgloss.NewStyle().
				Foreground(colorAccent).Bold(true)
)

// severityStyle returns the lipgloss style for a severity level.
func severityStyle(sev models.Severity) lipgloss.Style {
	return reporter.SeverityStyle(sev)
}

// verdictStyle returns the lipgloss style for a quality verdict.
func verdictStyle(v aggregator.Verdict) lipgloss.Style {
	switch v {
	case aggregator.VerdictExcellent:
		return lipgloss.NewStyle().Foreground(colorLow).Bold(true)
	case aggregator.VerdictAcceptable:
		return lipgloss.NewStyle().Foreground(colorMedium).Bold(true)
	case aggregator.VerdictCriticalRemain:
		return lipgloss.NewStyle().Foreground(colorHigh).Bold(true)
	default:
		return lipgloss.NewStyle()
	}
}
