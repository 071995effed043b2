package tui

import (
	"fmt"
	"strings"

	"github.com/ppiankov/pyspectre/internal/aggregator"
	"github.com/ppiankov/pyspectre/internal/models"
)

// headerHeight is the number of terminal lines the header occupies.
const headerHeight = 5

// renderHeader produces the header string from report summary data.
func renderHeader(report *models.Report, verdict aggregator.Verdict, sparkline []int, width int) string {
	var b strings.Builder
	summary := report.Summary()

	// Line 1: title and verdict
	b.WriteString(fmt.Sprintf("pyspectre  %s  %s", report.ScannedPath, verdictStyle(verdict).Render(strings.ToUpper(string(verdict)))))
	b.WriteString("\n")

	// Line 2: counters
	b.WriteString(fmt.Sprintf("Files: %d  Lines: %d  Issues: %d",
		summary.FilesAnalyzed, summary.TotalLines, summary.TotalIssues))
	b.WriteString("\n")

	// Line 3: severity breakdown
	sevParts := make([]string, 0, len(models.Severities))
	for _, sev := range models.Severities {
		if count := summary.IssuesBySeverity[sev]; count > 0 {
			label := fmt.Sprintf("%s:%d", strings.ToUpper(string(sev)[:1]), count)
			sevParts = append(sevParts, severityStyle(sev).Render(label))
		}
	}
	if len(sevParts) > 0 {
		b.WriteString(strings.Join(sevParts, "  "))
	}
	b.WriteString("\n")

	// Line 4: sparkline
	if len(sparkline) > 0 {
		b.WriteString("Trend: ")
		b.WriteString(Sparkline(sparkline))
	}

	return styleHeader.Width(width).Render(b.String())
}

// Sparkline converts an int slice to a unicode sparkline string.
func Sparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}

	bars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	var b strings.Builder
	for _, v := range values {
		if max == min {
			b.WriteRune(bars[len(bars)/2])
		} else {
			normalized := float64(v-min) / float64(max-min)
			idx := int(normalized * float64(len(bars)-1))
			b.WriteRune(bars[idx])
		}
	}

	b.WriteString(fmt.Sprintf(" [%d→%d]", values[0], values[len(values)-1]))
	return b.String()
}
