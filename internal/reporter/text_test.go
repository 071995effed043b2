package reporter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/pyspectre/internal/models"
)

func TestTextReporterGenerateScan(t *testing.T) {
	var buf bytes.Buffer
	r := NewTextReporter(&buf, false)

	if err := r.GenerateScan(sampleReport(), sampleRecommendations(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"pyspectre Scan Report",
		"Files Analyzed: 3",
		"Total Lines: 120",
		"Total Issues: 2",
		"Critical:  1",
		"Low:       1",
		"Critical Issues:",
		"/src/a.py:4",
		"-> Avoid eval()",
		"1. [CRITICAL] Remove 1 eval() call(s)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "Trend Analysis") {
		t.Error("no trend section expected without a trend")
	}
}

func TestTextReporterSeverityOrder(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextReporter(&buf, false).GenerateScan(sampleReport(), nil, nil); err != nil {
		t.Fatal(err)
	}
	output := buf.String()

	prev := -1
	for _, label := range []string{"Critical:", "High:", "Medium:", "Low:"} {
		idx := strings.Index(output, label)
		if idx < prev {
			t.Errorf("%s printed out of order", label)
		}
		prev = idx
	}
}

func TestTextReporterNoCriticalSection(t *testing.T) {
	report := models.NewReport("/src")
	report.Add(models.Finding{File: "a.py", Line: 1, Severity: models.SeverityLow, Type: "print_usage"})

	var buf bytes.Buffer
	if err := NewTextReporter(&buf, false).GenerateScan(report, nil, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Critical Issues:") {
		t.Error("critical section printed without critical findings")
	}
}

func TestTextReporterTrend(t *testing.T) {
	trend := &models.Trend{
		Direction:      "improving",
		ChangePercent:  -50,
		PreviousIssues: 4,
		CurrentIssues:  2,
		ResolvedIssues: 2,
		ComparedWith:   time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	if err := NewTextReporter(&buf, false).GenerateScan(sampleReport(), nil, trend); err != nil {
		t.Fatal(err)
	}
	output := buf.String()
	for _, want := range []string{"Trend Analysis:", "Change: 4 → 2 issues (-50.0%)", "Resolved: 2", "2026-02-14 10:00:00"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestTextReporterGenerateCycle(t *testing.T) {
	var buf bytes.Buffer
	if err := NewTextReporter(&buf, false).GenerateCycle(sampleHistory(), 10); err != nil {
		t.Fatal(err)
	}

	output := buf.String()
	for _, want := range []string{
		"pyspectre Improvement Report",
		"Iterations: 2 (quality gate passed)",
		"total",
		"Critical:",
		"Fixes applied: 5",
		"Verdict: Excellent code quality reached",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	// total: 8 -> 3, 5 fixed, 62.5%
	if !strings.Contains(output, "62.5%") {
		t.Errorf("expected total improvement percent, got:\n%s", output)
	}
}

func TestTextReporterEmptyCycle(t *testing.T) {
	var buf bytes.Buffer
	h := &models.History{Outcome: models.OutcomeFailed}
	if err := NewTextReporter(&buf, false).GenerateCycle(h, 10); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No iterations ran.") {
		t.Errorf("expected empty-history message, got:\n%s", buf.String())
	}
	if strings.Contains(buf.String(), "Verdict") {
		t.Error("no verdict expected for an empty history")
	}
}

func TestTextReporterVerdicts(t *testing.T) {
	h := sampleHistory()
	h.History[1].Summary.IssuesBySeverity[models.SeverityCritical] = 2

	var buf bytes.Buffer
	if err := NewTextReporter(&buf, false).GenerateCycle(h, 10); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Critical issues remain") {
		t.Errorf("expected critical verdict, got:\n%s", buf.String())
	}
}

func TestCenter(t *testing.T) {
	if got := center("ab", 6); got != "  ab  " {
		t.Errorf("center = %q", got)
	}
	if got := center("toolong", 3); got != "toolong" {
		t.Errorf("center = %q", got)
	}
}
