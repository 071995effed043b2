package aggregator

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/pyspectre/internal/models"
)

// TrendAnalyzer analyzes trends across multiple stored scan runs
type TrendAnalyzer struct{}

// NewTrendAnalyzer creates a new trend analyzer
func NewTrendAnalyzer() *TrendAnalyzer {
	return &TrendAnalyzer{}
}

// CalculateTrend compares current report with previous one
func (t *TrendAnalyzer) CalculateTrend(current, previous *models.Report) *models.Trend {
	if previous == nil {
		return nil
	}

	trend := &models.Trend{
		PreviousIssues: len(previous.Issues),
		CurrentIssues:  len(current.Issues),
		ComparedWith:   previous.GeneratedAt,
	}

	// Calculate change
	change := trend.CurrentIssues - trend.PreviousIssues

	// Determine direction and percentage
	if trend.PreviousIssues > 0 {
		trend.ChangePercent = float64(change) / float64(trend.PreviousIssues) * 100.0
	}

	if change < 0 {
		trend.Direction = "improving"
		trend.ResolvedIssues = -change
	} else if change > 0 {
		trend.Direction = "degrading"
		trend.NewIssues = change
	} else {
		trend.Direction = "stable"
	}

	return trend
}

// AnalyzeLastNRuns analyzes trends across last N runs, oldest first
func (t *TrendAnalyzer) AnalyzeLastNRuns(runs []*models.Report) *models.TrendSummary {
	if len(runs) == 0 {
		return nil
	}

	summary := &models.TrendSummary{
		RunsAnalyzed: len(runs),
		BySeverity:   make(map[models.Severity]*models.SeverityTrend),
	}

	// Determine time range
	if len(runs) > 1 {
		earliest := runs[0].GeneratedAt
		latest := runs[len(runs)-1].GeneratedAt
		days := int(latest.Sub(earliest).Hours() / 24)
		summary.TimeRange = fmt.Sprintf("Last %d days", days)
	} else {
		summary.TimeRange = "Single run"
	}

	// Build issue sparkline (issue counts over time)
	summary.IssueSparkline = make([]int, len(runs))
	for i, run := range runs {
		summary.IssueSparkline[i] = len(run.Issues)
	}

	if len(runs) >= 2 {
		t.calculateSeverityTrends(runs, summary)
	}

	return summary
}

// calculateSeverityTrends compares each severity between the first and
// last run
func (t *TrendAnalyzer) calculateSeverityTrends(runs []*models.Report, summary *models.TrendSummary) {
	earliest := runs[0].IssuesBySeverity()
	latest := runs[len(runs)-1].IssuesBySeverity()

	for _, sev := range models.Severities {
		previousCount := earliest[sev]
		currentCount := latest[sev]
		change := currentCount - previousCount

		changePercent := 0.0
		if previousCount > 0 {
			changePercent = float64(change) / float64(previousCount) * 100.0
		} else if currentCount > 0 {
			changePercent = 100.0
		}

		summary.BySeverity[sev] = &models.SeverityTrend{
			Severity:       sev,
			CurrentIssues:  currentCount,
			PreviousIssues: previousCount,
			Change:         change,
			ChangePercent:  changePercent,
		}
	}
}

// GenerateComparisonReport creates a detailed comparison between two runs
func (t *TrendAnalyzer) GenerateComparisonReport(current, previous *models.Report) string {
	if previous == nil {
		return "No previous run to compare with"
	}

	trend := t.CalculateTrend(current, previous)

	var b strings.Builder
	fmt.Fprintf(&b, "Comparison: %s vs %s\n\n",
		formatDate(current.GeneratedAt),
		formatDate(previous.GeneratedAt))

	fmt.Fprintf(&b, "Overall: %d → %d issues (%.1f%% %s)\n\n",
		trend.PreviousIssues,
		trend.CurrentIssues,
		trend.ChangePercent,
		trend.Direction)

	prev := previous.IssuesBySeverity()
	curr := current.IssuesBySeverity()
	for _, sev := range models.Severities {
		if prev[sev] == curr[sev] {
			continue // Skip unchanged severities
		}
		fmt.Fprintf(&b, "%s: %d → %d (%+d)\n", sev, prev[sev], curr[sev], curr[sev]-prev[sev])
	}

	if trend.NewIssues > 0 {
		fmt.Fprintf(&b, "\nNew Issues: %d\n", trend.NewIssues)
	}
	if trend.ResolvedIssues > 0 {
		fmt.Fprintf(&b, "\nResolved Issues: %d\n", trend.ResolvedIssues)
	}

	return b.String()
}

// formatDate formats a timestamp for display
func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// GetTrendIndicator returns a visual indicator for trend direction
func GetTrendIndicator(direction string) string {
	switch direction {
	case "improving":
		return "↓"
	case "degrading":
		return "↑"
	case "stable":
		return "→"
	default:
		return "?"
	}
}
