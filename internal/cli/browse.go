package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/pyspectre/internal/aggregator"
	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/storage"
	"github.com/ppiankov/pyspectre/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var browseReport string

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse findings interactively",
	Long: `Browse opens an interactive finding browser on the latest stored run,
or on the report document of the last scan when nothing is stored.

Keys: / search, t filter by type, v filter by severity, s sort,
c copy the selected finding, esc clear filters, q quit.

Example:
  pyspectre browse
  pyspectre browse --report pyspectre-report.json`,
	RunE: runBrowse,
}

func init() {
	browseCmd.Flags().StringVar(&browseReport, "report", "",
		"browse this report document instead of the latest stored run")
}

func runBrowse(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return &ValidationError{Message: "browse needs an interactive terminal; use 'pyspectre export' instead"}
	}

	report, trend, err := loadBrowseReport()
	if err != nil {
		return err
	}

	pol, err := loadPolicy()
	if err != nil {
		return err
	}

	return tui.Run(report, trend, pol.MaxHigh())
}

// loadBrowseReport picks the report to browse and, for stored runs, the
// trend across the configured window.
func loadBrowseReport() (*models.Report, *models.TrendSummary, error) {
	if browseReport != "" {
		report, err := storage.ReadReport(browseReport)
		return report, nil, err
	}

	store, err := openStore(cfg.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	if runs, err := store.GetLastNRuns(cfg.LastRuns); err == nil && len(runs) > 0 {
		return runs[len(runs)-1], aggregator.NewTrendAnalyzer().AnalyzeLastNRuns(runs), nil
	}

	if _, err := os.Stat(cfg.ReportPath); err != nil {
		return nil, nil, fmt.Errorf("no scan results found, run 'pyspectre scan' first")
	}
	report, err := storage.ReadReport(cfg.ReportPath)
	return report, nil, err
}
