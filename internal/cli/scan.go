package cli

import (
	"github.com/spf13/cobra"
)

var (
	scanFormat     string
	scanOutput     string
	scanReport     string
	scanStore      bool
	scanStorageDir string
	scanSkip       []string
	scanQuiet      bool
	scanGate       bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a Python source tree and write the report document",
	Long: `Scan walks the given directory (default: current directory), runs every
detector over the Python files it finds, and writes the report document.

A console summary with issue counts by severity, the critical findings
and the top recommendations is printed unless --quiet is set.

Examples:
  pyspectre scan ./src
  pyspectre scan --format json --output report.json
  pyspectre scan --store --gate
  pyspectre scan --skip duplicate,line-length`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanFormat, "format", "",
		"output format: text, json, or both (default from config)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "",
		"write the console summary to file")
	scanCmd.Flags().StringVar(&scanReport, "report", "",
		"report document path (default from config)")
	scanCmd.Flags().BoolVar(&scanStore, "store", false,
		"persist the run for trend analysis")
	scanCmd.Flags().StringVar(&scanStorageDir, "storage-dir", "",
		"storage directory (default from config)")
	scanCmd.Flags().StringSliceVar(&scanSkip, "skip", nil,
		"detectors to skip (comma-separated)")
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false,
		"only write the report document")
	scanCmd.Flags().BoolVar(&scanGate, "gate", false,
		"exit 1 when the quality gate fails")
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	format := scanFormat
	if format == "" {
		format = cfg.Format
	}
	reportPath := scanReport
	if reportPath == "" {
		reportPath = cfg.ReportPath
	}

	_, err := RunPipeline(commandContext(cmd), PipelineConfig{
		Root:       root,
		Format:     format,
		Output:     scanOutput,
		ReportPath: reportPath,
		Store:      scanStore,
		StorageDir: scanStorageDir,
		Skip:       scanSkip,
		Quiet:      scanQuiet,
		Gate:       scanGate,
	})
	return err
}
