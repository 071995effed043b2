package models

import (
	"encoding/json"
	"testing"
)

func sampleFindings() []Finding {
	return []Finding{
		{File: "a.py", Line: 3, Severity: SeverityCritical, Type: "eval_usage"},
		{File: "a.py", Line: 9, Severity: SeverityLow, Type: "print_usage"},
		{File: "b.py", Line: 1, Severity: SeverityLow, Type: "missing_docstring"},
		{File: "b.py", Line: 0, Severity: SeverityMedium, Type: "invalid_encoding"},
	}
}

func TestSeverityValid(t *testing.T) {
	for _, sev := range Severities {
		if !sev.Valid() {
			t.Errorf("expected %s to be valid", sev)
		}
	}
	for _, bad := range []Severity{"", "info", "CRITICAL", "critico"} {
		if bad.Valid() {
			t.Errorf("expected %q to be invalid", bad)
		}
	}
}

func TestSeverityRank(t *testing.T) {
	if SeverityCritical.Rank() >= SeverityHigh.Rank() {
		t.Error("critical should rank before high")
	}
	if SeverityLow.Rank() != 3 {
		t.Errorf("expected low rank 3, got %d", SeverityLow.Rank())
	}
	if Severity("bogus").Rank() != 4 {
		t.Errorf("expected unknown rank 4, got %d", Severity("bogus").Rank())
	}
}

func TestHistogramMatchesIssues(t *testing.T) {
	r := NewReport(".")
	r.Add(sampleFindings()...)

	h := r.IssuesBySeverity()
	if h.Total() != len(r.Issues) {
		t.Fatalf("histogram total %d != issues %d", h.Total(), len(r.Issues))
	}
	if h[SeverityLow] != 2 || h[SeverityCritical] != 1 || h[SeverityMedium] != 1 || h[SeverityHigh] != 0 {
		t.Errorf("unexpected histogram: %v", h)
	}
	if r.Count(SeverityLow) != 2 {
		t.Errorf("expected 2 low, got %d", r.Count(SeverityLow))
	}
}

func TestEmptyReportHistogramHasAllSeverities(t *testing.T) {
	h := NewReport(".").IssuesBySeverity()
	if len(h) != 4 {
		t.Fatalf("expected 4 severities, got %d", len(h))
	}
	if h.Total() != 0 {
		t.Errorf("expected 0 total, got %d", h.Total())
	}
}

func TestReportMarshalIncludesDerivedHistogram(t *testing.T) {
	r := NewReport("/src")
	r.FilesAnalyzed = 2
	r.TotalLines = 40
	r.Add(sampleFindings()...)

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"files_analyzed", "total_lines", "issues_by_severity", "issues"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing key %q", key)
		}
	}

	decoded, stored, err := DecodeReport(data)
	if err != nil {
		t.Fatalf("DecodeReport: %v", err)
	}
	if stored[SeverityLow] != 2 {
		t.Errorf("expected stored low=2, got %d", stored[SeverityLow])
	}
	if len(decoded.Issues) != 4 || decoded.FilesAnalyzed != 2 {
		t.Errorf("unexpected decoded report: %+v", decoded)
	}
}

func TestMarshalNilIssuesAsEmptyList(t *testing.T) {
	data, err := json.Marshal(&Report{})
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if string(raw["issues"]) != "[]" {
		t.Errorf("expected empty issues list, got %s", raw["issues"])
	}
}

func TestSummary(t *testing.T) {
	r := NewReport(".")
	r.FilesAnalyzed = 5
	r.Add(sampleFindings()...)

	s := r.Summary()
	if s.TotalIssues != 4 || s.FilesAnalyzed != 5 {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.IssuesBySeverity.Total() != s.TotalIssues {
		t.Error("summary histogram must match total")
	}
}

func TestOutcomeTerminal(t *testing.T) {
	if OutcomeRunning.Terminal() {
		t.Error("running must not be terminal")
	}
	for _, o := range []Outcome{OutcomeQualityMet, OutcomeNoProgress, OutcomeCapReached} {
		if !o.Terminal() {
			t.Errorf("%s should be terminal", o)
		}
	}
}
