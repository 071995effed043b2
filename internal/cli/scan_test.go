package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/pyspectre/internal/storage"
)

func resetScanFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		scanFormat, scanOutput, scanReport, scanStorageDir = "", "", "", ""
		scanStore, scanQuiet, scanGate = false, false, false
		scanSkip = nil
	}
	reset()
	t.Cleanup(reset)
}

func TestRunScanWritesDocument(t *testing.T) {
	c := testConfig(t)
	withTestConfig(t, c)
	resetScanFlags(t)
	scanQuiet = true

	root := t.TempDir()
	src := "def greet(name):\n    \"\"\"Greet.\"\"\"\n    return 'hi ' + name\n"
	if err := os.WriteFile(filepath.Join(root, "greet.py"), []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	if err := runScan(nil, []string{root}); err != nil {
		t.Fatalf("runScan: %v", err)
	}

	report, err := storage.ReadReport(c.ReportPath)
	if err != nil {
		t.Fatalf("report document: %v", err)
	}
	if report.FilesAnalyzed != 1 {
		t.Errorf("expected 1 file analyzed, got %d", report.FilesAnalyzed)
	}
}

func TestRunScanUnknownSkip(t *testing.T) {
	withTestConfig(t, testConfig(t))
	resetScanFlags(t)
	scanSkip = []string{"nope"}

	if err := runScan(nil, []string{t.TempDir()}); HandleError(err) != ExitInvalidInput {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
