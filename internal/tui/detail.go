package tui

import (
	"fmt"
	"strings"

	"github.com/ppiankov/pyspectre/internal/models"
)

// detailHeight is the fixed number of lines for the detail panel.
const detailHeight = 5

// renderDetail produces the detail view for a selected finding.
func renderDetail(f *models.Finding, width int) string {
	if f == nil {
		return styleDetailPanel.Width(width).Render("No issue selected")
	}

	var b strings.Builder

	sevStyled := severityStyle(f.Severity).Render(strings.ToUpper(string(f.Severity)))
	b.WriteString(fmt.Sprintf("%s  %s\n", sevStyled, f.Type))
	b.WriteString(fmt.Sprintf("Location: %s\n", f.Location()))
	b.WriteString(fmt.Sprintf("%s\n", f.Description))

	if f.Suggestion != "" {
		b.WriteString(fmt.Sprintf("Suggestion: %s", f.Suggestion))
	}

	return styleDetailPanel.Width(width).Render(b.String())
}
