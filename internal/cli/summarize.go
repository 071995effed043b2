package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ppiankov/pyspectre/internal/aggregator"
	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/storage"
	"github.com/ppiankov/pyspectre/internal/tui"
	"github.com/spf13/cobra"
)

var (
	// Summarize command flags
	summarizeLastN   int
	summarizeCompare bool
	summarizeFormat  string
)

// summarizeCmd represents the summarize command
var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Show summary and trends from stored scan runs",
	Long: `Analyze stored scan runs and show trends over time.

This command displays:
- Latest run summary
- Trend analysis across last N runs
- Issue sparklines showing changes over time
- Per-severity trend comparison

Example:
  pyspectre summarize
  pyspectre summarize --last 7
  pyspectre summarize --compare
  pyspectre summarize --format json`,
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().IntVarP(&summarizeLastN, "last", "n", 0,
		"number of runs to analyze (default from config)")
	summarizeCmd.Flags().BoolVarP(&summarizeCompare, "compare", "c", false,
		"compare latest run with previous")
	summarizeCmd.Flags().StringVarP(&summarizeFormat, "format", "f", "text",
		"output format: text or json")
}

// trendOutput is the JSON shape of the trend report.
type trendOutput struct {
	Latest models.Summary          `json:"latest"`
	Trend  *models.TrendSummary    `json:"trend"`
	Top    []models.Recommendation `json:"recommendations"`
}

func runSummarize(cmd *cobra.Command, args []string) error {
	lastN := summarizeLastN
	if lastN == 0 {
		lastN = cfg.LastRuns
	}
	if lastN < 0 {
		return &ValidationError{Message: fmt.Sprintf("--last must be positive, got %d", lastN)}
	}

	store, err := openStore(cfg.StorageDir)
	if err != nil {
		logError("Failed to get storage path: %v", err)
		return err
	}

	logVerbose("Loading runs from: %s", store.GetStoragePath())

	runs, err := store.ListRuns()
	if err != nil {
		logError("Failed to list runs: %v", err)
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No stored runs found.")
		fmt.Println("Run 'pyspectre scan --store' to record your first run.")
		return nil
	}

	logVerbose("Found %d stored runs", len(runs))

	if summarizeCompare {
		return runComparisonReport(store)
	}
	return runTrendReport(store, lastN)
}

// runComparisonReport compares the latest run with the previous one
func runComparisonReport(store storage.Storage) error {
	reports, err := store.GetLastNRuns(2)
	if err != nil {
		logError("Failed to load runs: %v", err)
		return err
	}

	if len(reports) < 2 {
		fmt.Println("Need at least 2 runs for comparison.")
		fmt.Println("Run 'pyspectre scan --store' to record more runs.")
		return nil
	}

	previous := reports[0]
	current := reports[1]

	logVerbose("Comparing %s vs %s", current.GeneratedAt, previous.GeneratedAt)

	analyzer := aggregator.NewTrendAnalyzer()
	fmt.Print(analyzer.GenerateComparisonReport(current, previous))

	return nil
}

// runTrendReport generates a trend report across last N runs
func runTrendReport(store storage.Storage, lastN int) error {
	reports, err := store.GetLastNRuns(lastN)
	if err != nil {
		logError("Failed to load runs: %v", err)
		return err
	}

	if len(reports) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	logVerbose("Analyzing trends across %d runs", len(reports))

	trendSummary := aggregator.NewTrendAnalyzer().AnalyzeLastNRuns(reports)
	if trendSummary == nil {
		fmt.Println("Unable to generate trend summary.")
		return nil
	}

	latest := reports[len(reports)-1]
	recGen := aggregator.NewRecommendationGenerator()
	top := recGen.GetTopRecommendations(recGen.GenerateRecommendations(latest), 5)

	switch summarizeFormat {
	case "text":
		printTrendSummaryText(os.Stdout, trendSummary, reports, top)
		return nil
	case "json":
		if top == nil {
			top = []models.Recommendation{}
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(trendOutput{Latest: latest.Summary(), Trend: trendSummary, Top: top})
	default:
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s", summarizeFormat)}
	}
}

// printTrendSummaryText prints trend summary in human-readable format
func printTrendSummaryText(w io.Writer, summary *models.TrendSummary, reports []*models.Report, top []models.Recommendation) {
	p := func(format string, args ...interface{}) {
		_, _ = fmt.Fprintf(w, format, args...)
	}

	p("╔════════════════════════════════════════════╗\n")
	p("║          pyspectre Trend Summary           ║\n")
	p("╚════════════════════════════════════════════╝\n\n")

	p("Time Range: %s\n", summary.TimeRange)
	p("Runs Analyzed: %d\n\n", summary.RunsAnalyzed)

	latestReport := reports[len(reports)-1]
	p("Latest Run: %s\n", latestReport.GeneratedAt.Format("2006-01-02 15:04:05"))
	p("Path: %s\n", latestReport.ScannedPath)
	p("Total Issues: %d", len(latestReport.Issues))

	if len(reports) >= 2 {
		previous := reports[len(reports)-2]
		trend := aggregator.NewTrendAnalyzer().CalculateTrend(latestReport, previous)
		p(" (%s %s %.1f%%)\n", aggregator.GetTrendIndicator(trend.Direction), trend.Direction, trend.ChangePercent)
	} else {
		p("\n")
	}
	p("\n")

	if len(summary.IssueSparkline) > 0 {
		values := summary.IssueSparkline
		p("Issue Trend (over time):\n")
		p("  %s [%d → %d]\n\n", tui.Sparkline(values), values[0], values[len(values)-1])
	}

	if len(summary.BySeverity) > 0 {
		p("By Severity:\n")
		p("--------------------------------------------------\n")

		for _, sev := range models.Severities {
			st, ok := summary.BySeverity[sev]
			if !ok {
				continue
			}
			indicator := "→"
			if st.Change < 0 {
				indicator = "↓"
			} else if st.Change > 0 {
				indicator = "↑"
			}

			p("  %-9s %d issues (%s %+d, %.1f%%)\n",
				capitalizeWord(string(sev))+":",
				st.CurrentIssues,
				indicator,
				st.Change,
				st.ChangePercent)
		}
		p("\n")
	}

	if len(top) > 0 {
		p("Top Recommendations:\n")
		p("--------------------------------------------------\n")
		for i, rec := range top {
			p("  %d. [%s] %s\n", i+1, rec.Severity, rec.Action)
		}
		p("\n")
	}

	p("Run 'pyspectre scan --store' to update data\n")
}

func capitalizeWord(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
