package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/pyspectre/internal/models"
)

var tableColumns = []table.Column{
	{Title: "Severity", Width: 10},
	{Title: "Type", Width: 20},
	{Title: "Location", Width: 32},
	{Title: "Description", Width: 44},
}

// buildRows converts findings to table rows.
func buildRows(findings []models.Finding) []table.Row {
	rows := make([]table.Row, 0, len(findings))
	for _, f := range findings {
		rows = append(rows, table.Row{
			severityLabel(f.Severity),
			f.Type,
			truncateLeft(fmt.Sprintf("%s:%d", f.File, f.Line), tableColumns[2].Width),
			truncate(f.Description, tableColumns[3].Width),
		})
	}
	return rows
}

func severityLabel(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return "CRITICAL"
	case models.SeverityHigh:
		return "HIGH"
	case models.SeverityMedium:
		return "MEDIUM"
	case models.SeverityLow:
		return "LOW"
	default:
		return string(s)
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-len(ellipsis)]) + ellipsis
}

// truncateLeft keeps the end of s, where the file name and line are.
func truncateLeft(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	const ellipsis = "..."
	if maxLen <= len(ellipsis) {
		return string(r[len(r)-maxLen:])
	}
	return ellipsis + string(r[len(r)-maxLen+len(ellipsis):])
}

// newTable creates a bubbles table with standard columns and styling.
func newTable(rows []table.Row, height int) table.Model {
	t := table.New(
		table.WithColumns(tableColumns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(colorAccent).
		Bold(false)
	t.SetStyles(s)

	return t
}
