package reporter

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/ppiankov/pyspectre/internal/aggregator"
	"github.com/ppiankov/pyspectre/internal/models"
)

// maxRecommendations bounds the recommendation section of a scan report.
const maxRecommendations = 5

// Severity colors
var (
	colorCritical = lipgloss.Color("#FF0000")
	colorHigh     = lipgloss.Color("#FF8800")
	colorMedium   = lipgloss.Color("#FFFF00")
	colorLow      = lipgloss.Color("#00FF00")
)

// TextReporter generates human-readable text reports
type TextReporter struct {
	writer io.Writer
	color  bool
}

// NewTextReporter creates a new text reporter. Severity labels are
// coloured only when color is set.
func NewTextReporter(writer io.Writer, color bool) *TextReporter {
	return &TextReporter{
		writer: writer,
		color:  color,
	}
}

// GenerateScan prints the summary of one scan: counters, the severity
// histogram, every critical finding, the top recommendations and, when
// available, the trend against the previous stored run.
func (r *TextReporter) GenerateScan(report *models.Report, recommendations []models.Recommendation, trend *models.Trend) error {
	r.printHeader("pyspectre Scan Report")
	r.printf("Path: %s\n", report.ScannedPath)
	r.printf("Timestamp: %s\n\n", formatTimestamp(report.GeneratedAt))

	r.printf("Summary:\n")
	r.printf("--------------------------------------------------\n")
	r.printf("  Files Analyzed: %d\n", report.FilesAnalyzed)
	r.printf("  Total Lines: %d\n", report.TotalLines)
	r.printf("  Total Issues: %d", len(report.Issues))
	if trend != nil {
		r.printf(" %s %.1f%% from previous run", aggregator.GetTrendIndicator(trend.Direction), trend.ChangePercent)
	}
	r.printf("\n\n")

	r.printf("Issues by Severity:\n")
	histogram := report.IssuesBySeverity()
	for _, sev := range models.Severities {
		r.printf("  %s %d\n", r.severityLabel(sev, 10), histogram[sev])
	}

	r.printCritical(report)

	if len(recommendations) > 0 {
		gen := aggregator.NewRecommendationGenerator()
		r.printRecommendations(gen.GetTopRecommendations(recommendations, maxRecommendations))
	}

	if trend != nil {
		r.printf("\n")
		r.printTrendInfo(trend)
	}

	return nil
}

// GenerateCycle prints the outcome of an iteration run: the improvement
// table between the first and last pass and the final verdict.
func (r *TextReporter) GenerateCycle(history *models.History, maxHigh int) error {
	r.printHeader("pyspectre Improvement Report")

	if len(history.History) == 0 {
		r.printf("No iterations ran.\n")
		return nil
	}

	r.printf("Run: %s\n", history.RunID)
	r.printf("Iterations: %d (%s)\n\n", history.Iterations, outcomeText(history.Outcome))

	first := history.History[0].Summary
	last := history.History[len(history.History)-1].Summary

	r.printf("%-10s %8s %8s %8s %9s\n", "Metric", "Initial", "Final", "Fixed", "Change")
	r.printf("--------------------------------------------------\n")
	for _, d := range aggregator.Compare(first, last) {
		label := fmt.Sprintf("%-10s", d.Metric)
		if sev := models.Severity(d.Metric); sev.Valid() {
			label = r.severityLabel(sev, 10)
		}
		r.printf("%s %8d %8d %8d %8.1f%%\n", label, d.Initial, d.Final, d.Change, d.Percent)
	}

	totalFixes := 0
	for _, rec := range history.History {
		totalFixes += rec.Fixes
	}
	r.printf("\nFixes applied: %d\n", totalFixes)

	verdict := aggregator.Classify(last, maxHigh)
	r.printf("Verdict: %s\n", verdict.Message())
	return nil
}

// printHeader prints the report header
func (r *TextReporter) printHeader(title string) {
	r.printf("╔════════════════════════════════════════════╗\n")
	r.printf("║%s║\n", center(title, 44))
	r.printf("╚════════════════════════════════════════════╝\n\n")
}

// printCritical lists every critical finding with its location
func (r *TextReporter) printCritical(report *models.Report) {
	var critical []models.Finding
	for _, f := range report.Issues {
		if f.Severity == models.SeverityCritical {
			critical = append(critical, f)
		}
	}
	if len(critical) == 0 {
		return
	}

	r.printf("\nCritical Issues:\n")
	r.printf("--------------------------------------------------\n")
	for _, f := range critical {
		r.printf("  %s\n", f.Location())
		r.printf("    %s\n", f.Description)
		if f.Suggestion != "" {
			r.printf("    -> %s\n", f.Suggestion)
		}
	}
}

// printRecommendations prints the recommendations section
func (r *TextReporter) printRecommendations(recommendations []models.Recommendation) {
	r.printf("\n")
	r.printf("Recommended Actions:\n")
	r.printf("--------------------------------------------------\n")

	for i, rec := range recommendations {
		r.printf("  %d. [%s] %s\n", i+1, strings.ToUpper(string(rec.Severity)), rec.Action)
		r.printf("     Impact: %s\n", rec.Impact)
	}
}

// printTrendInfo prints trend information
func (r *TextReporter) printTrendInfo(trend *models.Trend) {
	r.printf("Trend Analysis:\n")
	r.printf("--------------------------------------------------\n")
	r.printf("  Direction: %s %s\n", trend.Direction, aggregator.GetTrendIndicator(trend.Direction))
	r.printf("  Change: %d → %d issues (%.1f%%)\n",
		trend.PreviousIssues,
		trend.CurrentIssues,
		trend.ChangePercent)

	if trend.NewIssues > 0 {
		r.printf("  New Issues: %d\n", trend.NewIssues)
	}
	if trend.ResolvedIssues > 0 {
		r.printf("  Resolved: %d\n", trend.ResolvedIssues)
	}

	r.printf("  Compared With: %s\n", formatTimestamp(trend.ComparedWith))
}

// severityLabel pads the capitalized severity to width and colours it.
func (r *TextReporter) severityLabel(sev models.Severity, width int) string {
	label := fmt.Sprintf("%-*s", width, capitalize(string(sev))+":")
	if !r.color {
		return label
	}
	return SeverityStyle(sev).Render(label)
}

// SeverityStyle returns the lipgloss style for a severity level.
func SeverityStyle(sev models.Severity) lipgloss.Style {
	switch sev {
	case models.SeverityCritical:
		return lipgloss.NewStyle().Foreground(colorCritical).Bold(true)
	case models.SeverityHigh:
		return lipgloss.NewStyle().Foreground(colorHigh).Bold(true)
	case models.SeverityMedium:
		return lipgloss.NewStyle().Foreground(colorMedium)
	case models.SeverityLow:
		return lipgloss.NewStyle().Foreground(colorLow)
	default:
		return lipgloss.NewStyle()
	}
}

// printf is a helper to write formatted output
func (r *TextReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.writer, format, args...)
}

func outcomeText(o models.Outcome) string {
	switch o {
	case models.OutcomeQualityMet:
		return "quality gate passed"
	case models.OutcomeNoProgress:
		return "stopped, no fixes applied"
	case models.OutcomeCapReached:
		return "iteration limit reached"
	case models.OutcomeFailed:
		return "aborted"
	default:
		return string(o)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func center(s string, width int) string {
	pad := width - len([]rune(s))
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}

// formatTimestamp formats a timestamp for display
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}
