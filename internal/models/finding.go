package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Severity is the urgency level of a finding
type Severity string

// Severity levels, most urgent first
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Severities lists every severity in descending order of urgency
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// Valid reports whether s is one of the four defined levels
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Rank returns 0 for critical through 3 for low, 4 for anything else
func (s Severity) Rank() int {
	for i, sev := range Severities {
		if sev == s {
			return i
		}
	}
	return len(Severities)
}

// Finding is one detected issue at a file/line location
type Finding struct {
	File        string   `json:"file"`
	Line        int      `json:"line"` // 1-based, 0 when not line-addressable
	Severity    Severity `json:"severity"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Suggestion  string   `json:"suggestion"`
}

// Location renders the finding position as file:line
func (f Finding) Location() string {
	return fmt.Sprintf("%s:%d", f.File, f.Line)
}

// Histogram maps each severity to its finding count
type Histogram map[Severity]int

// NewHistogram returns a histogram with all four severities set to zero
func NewHistogram() Histogram {
	h := make(Histogram, len(Severities))
	for _, sev := range Severities {
		h[sev] = 0
	}
	return h
}

// Total returns the sum of all counts
func (h Histogram) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// Report is the output of one full scanner run.
//
// The severity histogram is never stored: it is derived from Issues
// whenever it is read or serialized, so the two cannot drift.
type Report struct {
	ScannedPath   string    `json:"scanned_path"`
	GeneratedAt   time.Time `json:"generated_at"`
	FilesAnalyzed int       `json:"files_analyzed"`
	TotalLines    int       `json:"total_lines"`
	Issues        []Finding `json:"issues"`
}

// NewReport creates an empty report for the given root
func NewReport(root string) *Report {
	return &Report{
		ScannedPath: root,
		Issues:      []Finding{},
	}
}

// Add appends findings in order
func (r *Report) Add(findings ...Finding) {
	r.Issues = append(r.Issues, findings...)
}

// IssuesBySeverity tallies the finding list
func (r *Report) IssuesBySeverity() Histogram {
	h := NewHistogram()
	for _, f := range r.Issues {
		h[f.Severity]++
	}
	return h
}

// IssuesByType tallies findings per category tag
func (r *Report) IssuesByType() map[string]int {
	counts := make(map[string]int)
	for _, f := range r.Issues {
		counts[f.Type]++
	}
	return counts
}

// Count returns the number of findings with the given severity
func (r *Report) Count(sev Severity) int {
	n := 0
	for _, f := range r.Issues {
		if f.Severity == sev {
			n++
		}
	}
	return n
}

// Summary condenses the report into its counters
func (r *Report) Summary() Summary {
	return Summary{
		FilesAnalyzed:    r.FilesAnalyzed,
		TotalLines:       r.TotalLines,
		TotalIssues:      len(r.Issues),
		IssuesBySeverity: r.IssuesBySeverity(),
	}
}

// reportDocument is the persisted shape of a Report
type reportDocument struct {
	ScannedPath      string    `json:"scanned_path"`
	GeneratedAt      time.Time `json:"generated_at"`
	FilesAnalyzed    int       `json:"files_analyzed"`
	TotalLines       int       `json:"total_lines"`
	IssuesBySeverity Histogram `json:"issues_by_severity"`
	Issues           []Finding `json:"issues"`
}

// MarshalJSON writes the report with its derived histogram
func (r Report) MarshalJSON() ([]byte, error) {
	issues := r.Issues
	if issues == nil {
		issues = []Finding{}
	}
	return json.Marshal(reportDocument{
		ScannedPath:      r.ScannedPath,
		GeneratedAt:      r.GeneratedAt,
		FilesAnalyzed:    r.FilesAnalyzed,
		TotalLines:       r.TotalLines,
		IssuesBySeverity: r.IssuesBySeverity(),
		Issues:           issues,
	})
}

// DecodeReport parses a persisted report document. The stored histogram is
// returned separately so callers can check it against the finding list.
func DecodeReport(data []byte) (*Report, Histogram, error) {
	var doc reportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, err
	}
	report := &Report{
		ScannedPath:   doc.ScannedPath,
		GeneratedAt:   doc.GeneratedAt,
		FilesAnalyzed: doc.FilesAnalyzed,
		TotalLines:    doc.TotalLines,
		Issues:        doc.Issues,
	}
	if report.Issues == nil {
		report.Issues = []Finding{}
	}
	return report, doc.IssuesBySeverity, nil
}

// Summary holds the counters of one report
type Summary struct {
	FilesAnalyzed    int       `json:"files_analyzed"`
	TotalLines       int       `json:"total_lines"`
	TotalIssues      int       `json:"total_issues"`
	IssuesBySeverity Histogram `json:"issues_by_severity"`
}

// Recommendation is an actionable item derived from one finding category
type Recommendation struct {
	Severity Severity `json:"severity"`
	Type     string   `json:"type"`
	Action   string   `json:"action"`
	Impact   string   `json:"impact"`
	Count    int      `json:"count"`
}
