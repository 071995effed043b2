package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/validator"
)

func TestWriteAndReadReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "pyspectre-report.json")
	report := sampleReport(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	if err := WriteReport(path, report); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}

	loaded, err := ReadReport(path)
	if err != nil {
		t.Fatalf("ReadReport: %v", err)
	}
	if len(loaded.Issues) != 2 || loaded.Issues[0].Type != "eval_usage" {
		t.Errorf("unexpected issues: %+v", loaded.Issues)
	}
}

func TestReadReportRejectsDrift(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	doc := `{"files_analyzed":1,"total_lines":1,"issues_by_severity":{"critical":5,"high":0,"medium":0,"low":0},"issues":[]}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadReport(path)
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestReadReportMissing(t *testing.T) {
	if _, err := ReadReport(filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Fatal("expected error")
	}
}

func TestWriteAndReadHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pyspectre-history.json")
	history := &models.History{
		RunID:      "run-1",
		Outcome:    models.OutcomeQualityMet,
		Iterations: 1,
		History: []models.IterationRecord{
			{Iteration: 1, Fixes: 2, Summary: models.Summary{TotalIssues: 0, IssuesBySeverity: models.NewHistogram()}},
		},
	}

	if err := WriteHistory(path, history); err != nil {
		t.Fatalf("WriteHistory: %v", err)
	}
	loaded, err := ReadHistory(path)
	if err != nil {
		t.Fatalf("ReadHistory: %v", err)
	}
	if loaded.RunID != "run-1" || loaded.Outcome != models.OutcomeQualityMet || len(loaded.History) != 1 {
		t.Errorf("unexpected history: %+v", loaded)
	}
}
