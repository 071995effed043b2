package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/pyspectre/internal/aggregator"
	"github.com/ppiankov/pyspectre/internal/detector"
	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/policy"
	"github.com/ppiankov/pyspectre/internal/reporter"
	"github.com/ppiankov/pyspectre/internal/scanner"
	"github.com/ppiankov/pyspectre/internal/storage"
	"github.com/spf13/afero"
	"golang.org/x/term"
)

// PipelineConfig holds options for the shared scan pipeline.
type PipelineConfig struct {
	Root       string
	Format     string
	Output     string
	ReportPath string
	Store      bool
	StorageDir string
	Skip       []string
	Quiet      bool
	Gate       bool
	Fs         afero.Fs
}

// RunPipeline scans a tree and reports on it:
// scan → report document → trend → recommendations → store → output → gate.
func RunPipeline(ctx context.Context, pcfg PipelineConfig) (*models.Report, error) {
	detectors, err := detector.Select(pcfg.Skip)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}

	fs := pcfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	var progress io.Writer = os.Stdout
	if pcfg.Quiet {
		progress = io.Discard
	}

	// Step 1: Scan
	s := scanner.New(fs, log(), scanner.WithDetectors(detectors), scanner.WithProgress(progress))
	report, err := s.Scan(ctx, pcfg.Root)
	if err != nil {
		logError("Scan failed: %v", err)
		return nil, err
	}

	logVerbose("Found %d issues in %d files", len(report.Issues), report.FilesAnalyzed)

	// Step 2: Report document
	if pcfg.ReportPath != "" {
		if err := storage.WriteReport(pcfg.ReportPath, report); err != nil {
			logError("Failed to write report: %v", err)
			return nil, err
		}
		logVerbose("Report written to: %s", pcfg.ReportPath)
	}

	// Step 3: Trend against the previous stored run
	var trend *models.Trend
	if pcfg.Store {
		store, err := openStore(pcfg.StorageDir)
		if err != nil {
			logError("Failed to get storage path: %v", err)
			return nil, err
		}

		if previous, err := store.GetLatestRun(); err == nil {
			logVerbose("Found previous run from %s", previous.GeneratedAt)
			trend = aggregator.NewTrendAnalyzer().CalculateTrend(report, previous)
		} else {
			logDebug("No previous run found: %v", err)
		}
	}

	// Step 4: Recommendations
	recGen := aggregator.NewRecommendationGenerator()
	recommendations := recGen.GenerateRecommendations(report)

	logVerbose("Generated %d recommendations", len(recommendations))

	// Step 5: Store
	if pcfg.Store {
		store, err := openStore(pcfg.StorageDir)
		if err != nil {
			return nil, err
		}

		if err := store.EnsureDirectoryExists(); err != nil {
			logError("Failed to create storage directory: %v", err)
			return nil, err
		}

		if err := store.SaveReport(report); err != nil {
			logError("Failed to store report: %v", err)
			return nil, err
		}

		logVerbose("Stored report in: %s", store.GetStoragePath())
	}

	// Step 6: Output
	if !pcfg.Quiet {
		if err := generateOutput(report, recommendations, trend, pcfg.Format, pcfg.Output); err != nil {
			logError("Failed to generate output: %v", err)
			return nil, err
		}
	}

	// Step 7: Quality gate
	if pcfg.Gate {
		pol, err := loadPolicy()
		if err != nil {
			return nil, err
		}

		result := pol.Evaluate(report)
		if !result.Pass {
			for _, v := range result.Violations {
				logError("Policy violation [%s]: %s", v.Rule, v.Message)
			}
			return report, &ThresholdExceededError{
				IssueCount: len(result.Violations),
				Threshold:  0,
			}
		}
		logVerbose("Policy check passed")
	}

	return report, nil
}

// loadPolicy reads the nearest policy file, or the built-in gate when none
// exists.
func loadPolicy() (*policy.Policy, error) {
	policyPath := policy.FindPolicyFile()
	if policyPath == "" {
		return policy.Default(), nil
	}

	logVerbose("Found policy file: %s", policyPath)
	pol, err := policy.LoadFromFile(policyPath)
	if err != nil {
		logError("Failed to load policy: %v", err)
		return nil, &ValidationError{Message: err.Error()}
	}
	return pol, nil
}

// generateOutput generates the output in the specified format(s).
func generateOutput(report *models.Report, recommendations []models.Recommendation, trend *models.Trend, format, outputPath string) error {
	var writer *os.File
	if outputPath == "" {
		writer = os.Stdout
	} else {
		var err error
		writer, err = os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = writer.Close() }()
	}

	color := outputPath == "" && term.IsTerminal(int(os.Stdout.Fd()))

	switch format {
	case "text":
		return reporter.NewTextReporter(writer, color).GenerateScan(report, recommendations, trend)

	case "json":
		return reporter.NewJSONReporter(writer, true).GenerateScan(report, recommendations, trend)

	case "both":
		if err := reporter.NewTextReporter(writer, color).GenerateScan(report, recommendations, trend); err != nil {
			return err
		}

		if _, err := fmt.Fprintf(writer, "\n=== JSON Output ===\n\n"); err != nil {
			return err
		}

		return reporter.NewJSONReporter(writer, true).GenerateScan(report, recommendations, trend)

	default:
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use text, json, or both)", format)}
	}
}

// openStore resolves the storage directory and opens the run store there.
func openStore(storageDir string) (*storage.LocalStorage, error) {
	storagePath, err := getStoragePath(storageDir)
	if err != nil {
		return nil, err
	}
	return storage.NewLocal(storagePath), nil
}

// getStoragePath resolves the storage path, expanding ~ and converting to absolute.
func getStoragePath(storageDir string) (string, error) {
	if storageDir == "" && cfg != nil {
		storageDir = cfg.StorageDir
	}
	if len(storageDir) >= 2 && storageDir[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		storageDir = filepath.Join(home, storageDir[2:])
	}

	absPath, err := filepath.Abs(storageDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}
