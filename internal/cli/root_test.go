package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/ppiankov/pyspectre/internal/config"
	"github.com/ppiankov/pyspectre/internal/validator"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// --- Test helpers ---

// captureStdout runs fn and returns whatever it printed to os.Stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// withTestConfig sets the global cfg for the duration of the test.
func withTestConfig(t *testing.T, c *config.Config) {
	t.Helper()
	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
}

// withTestLogger routes the package logger to an in-memory sink.
func withTestLogger(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	old := logger
	logger = zap.New(core).Sugar()
	t.Cleanup(func() { logger = old })
	return logs
}

// testConfig returns the defaults with storage and documents under a
// temporary directory.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	c := config.DefaultConfig()
	c.StorageDir = dir + "/store"
	c.ReportPath = dir + "/pyspectre-report.json"
	c.HistoryPath = dir + "/pyspectre-history.json"
	return c
}

// --- HandleError tests ---

func TestHandleErrorNil(t *testing.T) {
	if code := HandleError(nil); code != ExitOK {
		t.Errorf("HandleError(nil) = %d, want %d", code, ExitOK)
	}
}

func TestHandleErrorValidation(t *testing.T) {
	err := &ValidationError{Message: "bad input"}
	if code := HandleError(err); code != ExitInvalidInput {
		t.Errorf("HandleError(ValidationError) = %d, want %d", code, ExitInvalidInput)
	}
}

func TestHandleErrorThreshold(t *testing.T) {
	err := &ThresholdExceededError{IssueCount: 10, Threshold: 5}
	if code := HandleError(err); code != ExitPolicyFail {
		t.Errorf("HandleError(ThresholdExceededError) = %d, want %d", code, ExitPolicyFail)
	}
}

func TestHandleErrorSchema(t *testing.T) {
	err := &validator.ValidationError{Document: "report", Errors: []string{"Missing required field: 'issues'"}}
	if code := HandleError(err); code != ExitInvalidInput {
		t.Errorf("HandleError(validator.ValidationError) = %d, want %d", code, ExitInvalidInput)
	}
}

func TestHandleErrorWrappedThreshold(t *testing.T) {
	err := fmt.Errorf("cycle: %w", &ThresholdExceededError{IssueCount: 3})
	if code := HandleError(err); code != ExitPolicyFail {
		t.Errorf("HandleError(wrapped threshold) = %d, want %d", code, ExitPolicyFail)
	}
}

func TestHandleErrorNotExist(t *testing.T) {
	if code := HandleError(os.ErrNotExist); code != ExitRuntimeError {
		t.Errorf("HandleError(ErrNotExist) = %d, want %d", code, ExitRuntimeError)
	}
}

func TestHandleErrorPermission(t *testing.T) {
	if code := HandleError(os.ErrPermission); code != ExitRuntimeError {
		t.Errorf("HandleError(ErrPermission) = %d, want %d", code, ExitRuntimeError)
	}
}

func TestHandleErrorGeneric(t *testing.T) {
	if code := HandleError(errors.New("something went wrong")); code != ExitRuntimeError {
		t.Errorf("HandleError(generic) = %d, want %d", code, ExitRuntimeError)
	}
}

// --- Error type tests ---

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Message: "invalid schema"}
	if err.Error() != "invalid schema" {
		t.Errorf("ValidationError.Error() = %q, want %q", err.Error(), "invalid schema")
	}
}

func TestThresholdExceededErrorMessage(t *testing.T) {
	err := &ThresholdExceededError{IssueCount: 15, Threshold: 10}
	want := "issue count (15) exceeds threshold (10)"
	if err.Error() != want {
		t.Errorf("ThresholdExceededError.Error() = %q, want %q", err.Error(), want)
	}
}

// --- SetVersion tests ---

func TestSetVersion(t *testing.T) {
	old := buildVersion
	t.Cleanup(func() { buildVersion = old })

	SetVersion("1.2.3")
	if buildVersion != "1.2.3" {
		t.Errorf("buildVersion = %q, want %q", buildVersion, "1.2.3")
	}
}

func TestSetVersionDev(t *testing.T) {
	// Default should be "dev"
	old := buildVersion
	t.Cleanup(func() { buildVersion = old })

	buildVersion = "dev"
	if buildVersion != "dev" {
		t.Errorf("default buildVersion = %q, want %q", buildVersion, "dev")
	}
}

// --- Logging tests ---

func TestLogVerbose(t *testing.T) {
	logs := withTestLogger(t, zapcore.InfoLevel)

	logVerbose("test %s", "message")

	entries := logs.FilterMessage("test message").All()
	if len(entries) != 1 || entries[0].Level != zapcore.InfoLevel {
		t.Errorf("expected one info entry, got %+v", logs.All())
	}
}

func TestLogDebugFiltered(t *testing.T) {
	logs := withTestLogger(t, zapcore.InfoLevel)

	logDebug("debug %d", 42)

	if logs.Len() != 0 {
		t.Errorf("debug entry should be filtered at info level, got %+v", logs.All())
	}
}

func TestLogDebugEnabled(t *testing.T) {
	logs := withTestLogger(t, zapcore.DebugLevel)

	logDebug("debug %d", 42)

	if logs.FilterMessage("debug 42").Len() != 1 {
		t.Errorf("expected debug entry, got %+v", logs.All())
	}
}

func TestLogErrorUsesLogger(t *testing.T) {
	logs := withTestLogger(t, zapcore.ErrorLevel)

	logError("fail %s", "now")

	if logs.FilterMessage("fail now").Len() != 1 {
		t.Errorf("expected error entry, got %+v", logs.All())
	}
}

func TestLogErrorWithoutLogger(t *testing.T) {
	old := logger
	logger = nil
	t.Cleanup(func() { logger = old })

	oldErr := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	logError("fail %s", "now")
	logVerbose("should not appear")

	_ = w.Close()
	os.Stderr = oldErr

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)

	if buf.String() != "[ERROR] fail now\n" {
		t.Errorf("logError output = %q, want %q", buf.String(), "[ERROR] fail now\n")
	}
}

func TestCommandContextNil(t *testing.T) {
	if ctx := commandContext(nil); ctx == nil {
		t.Error("commandContext(nil) returned nil")
	}
}
