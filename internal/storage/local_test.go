package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/pyspectre/internal/models"
)

func sampleReport(ts time.Time) *models.Report {
	r := models.NewReport("/src")
	r.GeneratedAt = ts
	r.FilesAnalyzed = 3
	r.TotalLines = 120
	r.Add(
		models.Finding{File: "/src/a.py", Line: 4, Severity: models.SeverityCritical, Type: "eval_usage"},
		models.Finding{File: "/src/b.py", Line: 9, Severity: models.SeverityLow, Type: "print_usage"},
	)
	return r
}

func TestNewLocal(t *testing.T) {
	s := NewLocal("/tmp/test")
	if s.baseDir != "/tmp/test" {
		t.Errorf("expected baseDir=/tmp/test, got %s", s.baseDir)
	}
}

func TestGetStoragePath(t *testing.T) {
	s := NewLocal("/tmp/pyspectre")
	if s.GetStoragePath() != "/tmp/pyspectre" {
		t.Errorf("expected /tmp/pyspectre, got %s", s.GetStoragePath())
	}
}

func TestEnsureDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	baseDir := filepath.Join(dir, "nested", "pyspectre")
	s := NewLocal(baseDir)

	if err := s.EnsureDirectoryExists(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runsDir := filepath.Join(baseDir, "runs")
	if _, err := os.Stat(runsDir); err != nil {
		t.Fatalf("expected runs directory to exist: %v", err)
	}
}

func TestSaveAndLoadReport(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(dir)

	ts := time.Date(2026, 2, 15, 10, 30, 0, 0, time.UTC)
	if err := s.SaveReport(sampleReport(ts)); err != nil {
		t.Fatalf("SaveReport: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "runs", "2026-02-15T10-30-00-report.json")); err != nil {
		t.Fatalf("expected stored run file: %v", err)
	}

	loaded, err := s.LoadReport(ts)
	if err != nil {
		t.Fatalf("LoadReport: %v", err)
	}
	if len(loaded.Issues) != 2 || loaded.FilesAnalyzed != 3 {
		t.Errorf("unexpected report: %+v", loaded)
	}
	if loaded.Count(models.SeverityCritical) != 1 {
		t.Errorf("expected 1 critical, got %d", loaded.Count(models.SeverityCritical))
	}
}

func TestLoadReportNotFound(t *testing.T) {
	s := NewLocal(t.TempDir())

	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := s.LoadReport(ts); err == nil {
		t.Fatal("expected error for missing report")
	}
}

func TestListRunsEmpty(t *testing.T) {
	s := NewLocal(t.TempDir())

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}
}

func saveRuns(t *testing.T, s *LocalStorage, stamps ...time.Time) {
	t.Helper()
	for _, ts := range stamps {
		if err := s.SaveReport(sampleReport(ts)); err != nil {
			t.Fatalf("SaveReport: %v", err)
		}
	}
}

func TestListRunsMultiple(t *testing.T) {
	s := NewLocal(t.TempDir())

	ts1 := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	ts2 := time.Date(2026, 2, 12, 10, 0, 0, 0, time.UTC)
	ts3 := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)
	saveRuns(t, s, ts2, ts1, ts3)

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if !runs[0].Before(runs[1]) || !runs[1].Before(runs[2]) {
		t.Error("runs should be sorted chronologically")
	}
}

func TestGetLatestRun(t *testing.T) {
	s := NewLocal(t.TempDir())

	ts1 := time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
	ts2 := time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)
	saveRuns(t, s, ts2, ts1)

	latest, err := s.GetLatestRun()
	if err != nil {
		t.Fatalf("GetLatestRun: %v", err)
	}
	if !latest.GeneratedAt.Equal(ts2) {
		t.Errorf("expected %v, got %v", ts2, latest.GeneratedAt)
	}
}

func TestGetLatestRunEmpty(t *testing.T) {
	s := NewLocal(t.TempDir())
	if _, err := s.GetLatestRun(); err == nil {
		t.Fatal("expected error when no runs exist")
	}
}

func TestGetLastNRuns(t *testing.T) {
	s := NewLocal(t.TempDir())

	var stamps []time.Time
	for day := 1; day <= 5; day++ {
		stamps = append(stamps, time.Date(2026, 2, day, 9, 0, 0, 0, time.UTC))
	}
	saveRuns(t, s, stamps...)

	reports, err := s.GetLastNRuns(3)
	if err != nil {
		t.Fatalf("GetLastNRuns: %v", err)
	}
	if len(reports) != 3 {
		t.Fatalf("expected 3 reports, got %d", len(reports))
	}
	if !reports[0].GeneratedAt.Equal(stamps[2]) || !reports[2].GeneratedAt.Equal(stamps[4]) {
		t.Error("expected the three most recent runs, oldest first")
	}

	all, err := s.GetLastNRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 {
		t.Errorf("expected 5 reports, got %d", len(all))
	}
}

func TestGetLastNRunsEmpty(t *testing.T) {
	s := NewLocal(t.TempDir())
	if _, err := s.GetLastNRuns(3); err == nil {
		t.Fatal("expected error when no runs exist")
	}
}

func TestListRunsIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(dir)
	saveRuns(t, s, time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC))

	runsDir := filepath.Join(dir, "runs")
	for _, name := range []string{"notes.txt", "garbage-report.json", "2026-02-11T10-00-00-history.json"} {
		if err := os.WriteFile(filepath.Join(runsDir, name), []byte("{}"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(runsDir, "subdir"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestGetLastNRunsSkipsCorruptRuns(t *testing.T) {
	dir := t.TempDir()
	s := NewLocal(dir)
	saveRuns(t, s, time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC))

	corrupt := filepath.Join(dir, "runs", "2026-02-11T10-00-00-report.json")
	if err := os.WriteFile(corrupt, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}

	reports, err := s.GetLastNRuns(5)
	if err != nil {
		t.Fatalf("GetLastNRuns: %v", err)
	}
	if len(reports) != 1 {
		t.Errorf("expected corrupt run to be skipped, got %d reports", len(reports))
	}
}

func TestFormatAndParseTimestamp(t *testing.T) {
	s := NewLocal("/tmp")
	ts := time.Date(2026, 2, 15, 14, 30, 45, 0, time.UTC)

	formatted := s.formatTimestamp(ts)
	if formatted != "2026-02-15T14-30-45" {
		t.Errorf("expected 2026-02-15T14-30-45, got %s", formatted)
	}

	parsed, err := s.parseTimestamp(formatted)
	if err != nil {
		t.Fatalf("parseTimestamp: %v", err)
	}
	if !parsed.Equal(ts) {
		t.Errorf("expected %v, got %v", ts, parsed)
	}
}

func TestParseTimestampInvalid(t *testing.T) {
	s := NewLocal("/tmp")
	if _, err := s.parseTimestamp("not-a-timestamp"); err == nil {
		t.Error("expected error for invalid timestamp")
	}
}
