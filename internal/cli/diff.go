package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/pyspectre/internal/aggregator"
	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/storage"
	"github.com/spf13/cobra"
)

var (
	diffFormat   string
	diffOutput   string
	diffBaseline string
	diffCurrent  string
	diffFailNew  bool
)

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show what changed between two scan runs",
	Long: `Compare the latest scan run against a baseline to show drift.

Shows new findings, resolved findings, and summary deltas between two runs.
Findings are matched by file, type and description, so a finding that only
moved to another line is neither new nor resolved.

By default compares the two most recent stored runs. Use --baseline to
specify a report document as the comparison target, and --current to
compare a report document instead of the latest stored run.

Exit codes:
  0  No new findings (or --fail-new not set)
  1  New findings detected (with --fail-new)

Example:
  pyspectre diff
  pyspectre diff --fail-new
  pyspectre diff --baseline ./baseline.json --current pyspectre-report.json`,
	RunE: runDiff,
}

func init() {
	diffCmd.Flags().StringVarP(&diffFormat, "format", "f", "text",
		"output format: text or json")
	diffCmd.Flags().StringVarP(&diffOutput, "output", "o", "",
		"write output to file instead of stdout")
	diffCmd.Flags().StringVar(&diffBaseline, "baseline", "",
		"path to baseline report document (default: previous stored run)")
	diffCmd.Flags().StringVar(&diffCurrent, "current", "",
		"path to current report document (default: latest stored run)")
	diffCmd.Flags().BoolVar(&diffFailNew, "fail-new", false,
		"exit 1 if new findings are found (for CI gating)")
}

// DiffResult is the structured output of a diff operation.
type DiffResult struct {
	Baseline       string           `json:"baseline"`
	Current        string           `json:"current"`
	NewIssues      []models.Finding `json:"new_issues"`
	ResolvedIssues []models.Finding `json:"resolved_issues"`
	Summary        DiffSummary      `json:"summary"`
}

// DiffSummary holds aggregate counts for a diff.
type DiffSummary struct {
	BaselineTotal int                     `json:"baseline_total"`
	CurrentTotal  int                     `json:"current_total"`
	NewCount      int                     `json:"new_count"`
	ResolvedCount int                     `json:"resolved_count"`
	Delta         int                     `json:"delta"` // positive = more issues
	NewBySeverity map[models.Severity]int `json:"new_by_severity"`
	NewByType     map[string]int          `json:"new_by_type"`
}

func runDiff(cmd *cobra.Command, args []string) error {
	store, err := openStore(cfg.StorageDir)
	if err != nil {
		logError("Failed to get storage path: %v", err)
		return err
	}

	// Load current run.
	var current *models.Report
	if diffCurrent != "" {
		current, err = storage.ReadReport(diffCurrent)
		if err != nil {
			logError("Failed to load current report: %v", err)
			return err
		}
	} else {
		current, err = store.GetLatestRun()
		if err != nil {
			logError("No current run found: %v", err)
			fmt.Println("No stored runs found. Run 'pyspectre scan --store' first.")
			return err
		}
	}

	// Load baseline.
	var baseline *models.Report
	if diffBaseline != "" {
		baseline, err = storage.ReadReport(diffBaseline)
		if err != nil {
			logError("Failed to load baseline: %v", err)
			return err
		}
	} else {
		reports, err := store.GetLastNRuns(2)
		if err != nil || len(reports) < 2 {
			fmt.Println("Need at least 2 stored runs for diff.")
			fmt.Println("Run 'pyspectre scan --store' to generate more runs.")
			return nil
		}
		baseline = reports[0]
	}

	logVerbose("Comparing %s (current) vs %s (baseline)",
		current.GeneratedAt.Format("2006-01-02 15:04"),
		baseline.GeneratedAt.Format("2006-01-02 15:04"))

	result := computeDiff(baseline, current)

	// Output.
	if err := outputDiff(result, diffFormat, diffOutput); err != nil {
		return err
	}

	// CI gate.
	if diffFailNew && result.Summary.NewCount > 0 {
		return &ThresholdExceededError{
			IssueCount: result.Summary.NewCount,
			Threshold:  0,
		}
	}

	return nil
}

// computeDiff calculates new and resolved findings between baseline and
// current. Identical fingerprints are matched one for one, so a second copy
// of an existing finding still counts as new.
func computeDiff(baseline, current *models.Report) *DiffResult {
	baseNorm := aggregator.NewNormalizer(baseline.ScannedPath)
	currNorm := aggregator.NewNormalizer(current.ScannedPath)

	baseCount := make(map[string]int, len(baseline.Issues))
	for _, f := range baseline.Issues {
		baseCount[baseNorm.Fingerprint(f)]++
	}
	currCount := make(map[string]int, len(current.Issues))
	for _, f := range current.Issues {
		currCount[currNorm.Fingerprint(f)]++
	}

	newIssues := unmatched(current.Issues, currNorm, baseCount)
	resolvedIssues := unmatched(baseline.Issues, baseNorm, currCount)

	// Build summary maps.
	newBySeverity := map[models.Severity]int{}
	newByType := map[string]int{}
	for _, f := range newIssues {
		newBySeverity[f.Severity]++
		newByType[f.Type]++
	}

	return &DiffResult{
		Baseline:       baseline.GeneratedAt.Format("2006-01-02 15:04:05"),
		Current:        current.GeneratedAt.Format("2006-01-02 15:04:05"),
		NewIssues:      newIssues,
		ResolvedIssues: resolvedIssues,
		Summary: DiffSummary{
			BaselineTotal: len(baseline.Issues),
			CurrentTotal:  len(current.Issues),
			NewCount:      len(newIssues),
			ResolvedCount: len(resolvedIssues),
			Delta:         len(current.Issues) - len(baseline.Issues),
			NewBySeverity: newBySeverity,
			NewByType:     newByType,
		},
	}
}

// unmatched returns the findings left over once each fingerprint in other
// has consumed one occurrence. Paths are normalized in the result.
func unmatched(findings []models.Finding, norm *aggregator.Normalizer, other map[string]int) []models.Finding {
	remaining := make(map[string]int, len(other))
	for k, v := range other {
		remaining[k] = v
	}

	out := []models.Finding{}
	for _, f := range findings {
		key := norm.Fingerprint(f)
		if remaining[key] > 0 {
			remaining[key]--
			continue
		}
		f.File = norm.Path(f.File)
		out = append(out, f)
	}
	return out
}

// outputDiff renders the diff result to the chosen format.
func outputDiff(result *DiffResult, format, outputPath string) error {
	var writer *os.File
	if outputPath != "" {
		var err error
		writer, err = os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = writer.Close() }()
	} else {
		writer = os.Stdout
	}

	switch format {
	case "json":
		enc := json.NewEncoder(writer)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "text":
		return printDiffText(writer, result)
	default:
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use text or json)", format)}
	}
}

func printDiffText(w io.Writer, r *DiffResult) error {
	p := func(format string, args ...interface{}) {
		_, _ = fmt.Fprintf(w, format, args...)
	}

	p("╔════════════════════════════════════════════╗\n")
	p("║           pyspectre Drift Delta            ║\n")
	p("╚════════════════════════════════════════════╝\n\n")

	p("Baseline: %s\n", r.Baseline)
	p("Current:  %s\n\n", r.Current)

	// Summary line.
	deltaSign := "+"
	if r.Summary.Delta < 0 {
		deltaSign = ""
	}
	p("Issues: %d → %d (%s%d)\n", r.Summary.BaselineTotal, r.Summary.CurrentTotal, deltaSign, r.Summary.Delta)
	p("New: %d   Resolved: %d\n\n", r.Summary.NewCount, r.Summary.ResolvedCount)

	// New findings.
	if len(r.NewIssues) > 0 {
		p("New Issues:\n")
		p("--------------------------------------------------\n")
		for _, f := range r.NewIssues {
			p("  [%s] %s %s: %s\n", strings.ToUpper(string(f.Severity)), f.Location(), f.Type, f.Description)
			if f.Suggestion != "" {
				p("         %s\n", f.Suggestion)
			}
		}
		p("\n")
	}

	// Resolved findings.
	if len(r.ResolvedIssues) > 0 {
		p("Resolved Issues:\n")
		p("--------------------------------------------------\n")
		for _, f := range r.ResolvedIssues {
			p("  ✓ %s %s: %s\n", f.Location(), f.Type, f.Description)
		}
		p("\n")
	}

	// Breakdown tables.
	if len(r.Summary.NewBySeverity) > 0 {
		p("New by Severity:\n")
		for _, sev := range models.Severities {
			if count := r.Summary.NewBySeverity[sev]; count > 0 {
				p("  %s: %d\n", strings.ToUpper(string(sev)), count)
			}
		}
		p("\n")
	}

	if len(r.Summary.NewByType) > 0 {
		types := make([]string, 0, len(r.Summary.NewByType))
		for typ := range r.Summary.NewByType {
			types = append(types, typ)
		}
		sort.Strings(types)

		p("New by Type:\n")
		for _, typ := range types {
			p("  %s: %d\n", typ, r.Summary.NewByType[typ])
		}
		p("\n")
	}

	if r.Summary.NewCount == 0 && r.Summary.ResolvedCount == 0 {
		p("No drift detected.\n")
	} else if r.Summary.NewCount == 0 {
		p("No new issues — only improvements.\n")
	}

	return nil
}
