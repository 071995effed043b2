package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/storage"
)

func exportSample() []*models.Report {
	return []*models.Report{sampleStoredReport(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		finding("/proj/z.py", 2, models.SeverityLow, "print_usage", "print() call"),
		finding("/proj/b.py", 9, models.SeverityCritical, "eval_usage", "eval() executes arbitrary code"),
		finding("/proj/a.py", 0, models.SeverityHigh, "duplicate_code", "duplicated block"),
		finding("/proj/b.py", 4, models.SeverityCritical, "exec_usage", "exec() executes arbitrary code"),
	)}
}

func TestBuildExportOrder(t *testing.T) {
	now := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	export := buildExport(exportSample(), now)

	if export.RunCount != 1 || export.IssueCount != 4 {
		t.Errorf("unexpected counts: runs=%d issues=%d", export.RunCount, export.IssueCount)
	}
	if export.ExportedAt != "2026-03-02T00:00:00Z" {
		t.Errorf("unexpected exported_at %s", export.ExportedAt)
	}

	var got []string
	for _, r := range export.Records {
		got = append(got, r.File+":"+r.Type)
	}
	want := "b.py:exec_usage,b.py:eval_usage,a.py:duplicate_code,z.py:print_usage"
	if strings.Join(got, ",") != want {
		t.Errorf("order = %v, want %s", got, want)
	}
}

func TestBuildExportEmpty(t *testing.T) {
	export := buildExport(nil, time.Now())
	if export.Records == nil || len(export.Records) != 0 {
		t.Errorf("expected empty non-nil records, got %v", export.Records)
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := writeCSV(&buf, buildExport(exportSample(), time.Now())); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "run_timestamp,file,line,severity,type,description,suggestion" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][1] != "b.py" || rows[1][2] != "4" || rows[1][3] != "critical" {
		t.Errorf("unexpected first row %v", rows[1])
	}
}

func TestWriteExportJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeExportJSON(&buf, buildExport(exportSample(), time.Now())); err != nil {
		t.Fatal(err)
	}

	var decoded FindingExport
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.IssueCount != 4 || len(decoded.Records) != 4 {
		t.Errorf("unexpected export %+v", decoded)
	}
}

func TestWriteSARIF(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSARIF(&buf, exportSample()); err != nil {
		t.Fatal(err)
	}

	var doc sarifLog
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid SARIF: %v", err)
	}
	if doc.Version != "2.1.0" || len(doc.Runs) != 1 {
		t.Fatalf("unexpected SARIF header %+v", doc)
	}

	run := doc.Runs[0]
	if run.Tool.Driver.Name != "pyspectre" {
		t.Errorf("driver = %s", run.Tool.Driver.Name)
	}
	if len(run.Tool.Driver.Rules) != 4 || run.Tool.Driver.Rules[0].ID != "duplicate_code" {
		t.Errorf("expected 4 sorted rules, got %+v", run.Tool.Driver.Rules)
	}
	if run.Tool.Driver.Rules[0].ShortDescription.Text != "Duplicate code" {
		t.Errorf("rule description = %q", run.Tool.Driver.Rules[0].ShortDescription.Text)
	}
	if len(run.Results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(run.Results))
	}

	for _, r := range run.Results {
		loc := r.Locations[0].PhysicalLocation
		switch r.RuleID {
		case "duplicate_code":
			if loc.Region != nil {
				t.Error("file-level finding should carry no region")
			}
		case "eval_usage":
			if loc.Region == nil || loc.Region.StartLine != 9 || loc.ArtifactLocation.URI != "b.py" {
				t.Errorf("unexpected eval location %+v", loc)
			}
			if r.Level != "error" {
				t.Errorf("critical should map to error, got %s", r.Level)
			}
		case "print_usage":
			if r.Level != "note" {
				t.Errorf("low should map to note, got %s", r.Level)
			}
		}
	}
}

func TestSarifLevel(t *testing.T) {
	tests := map[models.Severity]string{
		models.SeverityCritical: "error",
		models.SeverityHigh:     "error",
		models.SeverityMedium:   "warning",
		models.SeverityLow:      "note",
	}
	for sev, want := range tests {
		if got := sarifLevel(sev); got != want {
			t.Errorf("sarifLevel(%s) = %s, want %s", sev, got, want)
		}
	}
}

func TestExportSourceFallsBackToReport(t *testing.T) {
	c := testConfig(t)
	withTestConfig(t, c)
	oldReport, oldLast := exportReport, exportLastN
	exportReport, exportLastN = "", 1
	t.Cleanup(func() { exportReport, exportLastN = oldReport, oldLast })

	reports, err := exportSource()
	if err != nil || reports != nil {
		t.Fatalf("expected nothing to export, got %v, %v", reports, err)
	}

	if err := storage.WriteReport(c.ReportPath, exportSample()[0]); err != nil {
		t.Fatal(err)
	}
	reports, err = exportSource()
	if err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 || len(reports[0].Issues) != 4 {
		t.Errorf("expected report document, got %v", reports)
	}
}

func TestRunExportInvalidFormat(t *testing.T) {
	withTestConfig(t, testConfig(t))
	old := exportFormat
	exportFormat = "xml"
	t.Cleanup(func() { exportFormat = old })

	if err := runExport(nil, nil); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
