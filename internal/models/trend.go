package models

import "time"

// Trend compares a scan run with the previous one
type Trend struct {
	Direction      string    `json:"direction"` // improving, degrading, stable
	ChangePercent  float64   `json:"change_percent"`
	PreviousIssues int       `json:"previous_issues"`
	CurrentIssues  int       `json:"current_issues"`
	NewIssues      int       `json:"new_issues"`
	ResolvedIssues int       `json:"resolved_issues"`
	ComparedWith   time.Time `json:"compared_with"`
}

// TrendSummary describes issue counts across several stored runs
type TrendSummary struct {
	RunsAnalyzed   int                         `json:"runs_analyzed"`
	TimeRange      string                      `json:"time_range"`
	IssueSparkline []int                       `json:"issue_sparkline"`
	BySeverity     map[Severity]*SeverityTrend `json:"by_severity"`
}

// SeverityTrend is the change of one severity between the first and last run
type SeverityTrend struct {
	Severity       Severity `json:"severity"`
	CurrentIssues  int      `json:"current_issues"`
	PreviousIssues int      `json:"previous_issues"`
	Change         int      `json:"change"`
	ChangePercent  float64  `json:"change_percent"`
}
