package cli

import (
	"fmt"
	"strings"

	"github.com/ppiankov/pyspectre/internal/collector"
	"github.com/spf13/cobra"
)

var (
	// Collect command flags
	collectStorageDir  string
	collectConcurrency int
	collectDryRun      bool
)

// collectCmd represents the collect command
var collectCmd = &cobra.Command{
	Use:   "collect <path>...",
	Short: "Import report documents into run storage",
	Long: `Collect report documents written by earlier scans, for example CI
artifacts, and add them to run storage so summarize, diff and export see
them as stored runs.

The command will:
1. Search the path(s) for JSON files
2. Keep report documents, skipping history documents
3. Validate each report against its severity histogram
4. Store every valid report under its generation time

Example:
  pyspectre collect ./artifacts
  pyspectre collect reports/*.json --storage-dir .pyspectre
  pyspectre collect ./artifacts --dry-run`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCollect,
}

func init() {
	collectCmd.Flags().StringVar(&collectStorageDir, "storage-dir", "",
		"storage directory (default from config)")
	collectCmd.Flags().IntVar(&collectConcurrency, "concurrency", 10,
		"number of files read in parallel")
	collectCmd.Flags().BoolVar(&collectDryRun, "dry-run", false,
		"list what would be imported without storing")
}

func runCollect(cmd *cobra.Command, args []string) error {
	logVerbose("Collecting reports from: %s", strings.Join(args, ", "))

	c := collector.New(collector.Config{
		MaxConcurrency: collectConcurrency,
		Timeout:        cfg.Timeout,
	}, log())

	result, err := c.CollectFromPaths(commandContext(cmd), args)
	if err != nil {
		logError("Failed to collect reports: %v", err)
		return err
	}

	for _, f := range result.Failures {
		fmt.Printf("  ✗ %s: %v\n", f.Path, f.Err)
	}
	for _, path := range result.Skipped {
		fmt.Printf("  - %s (not a report)\n", path)
	}

	if len(result.Reports) == 0 {
		return &ValidationError{Message: "no valid reports found"}
	}

	if collectDryRun {
		for _, r := range result.Reports {
			fmt.Printf("  + %s  %s (%d issues)\n",
				r.GeneratedAt.Format("2006-01-02 15:04:05"), r.ScannedPath, len(r.Issues))
		}
		fmt.Printf("\nDry run: %d report(s) would be stored\n", len(result.Reports))
		return nil
	}

	store, err := openStore(collectStorageDir)
	if err != nil {
		logError("Failed to get storage path: %v", err)
		return err
	}

	for _, r := range result.Reports {
		if err := store.SaveReport(r); err != nil {
			logError("Failed to store report: %v", err)
			return err
		}
		fmt.Printf("  ✓ %s  %s (%d issues)\n",
			r.GeneratedAt.Format("2006-01-02 15:04:05"), r.ScannedPath, len(r.Issues))
	}

	fmt.Printf("\nStored %d report(s) in %s\n", len(result.Reports), store.GetStoragePath())
	return nil
}
