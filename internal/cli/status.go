package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/storage"
	"github.com/spf13/cobra"
)

var statusFormat string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest scan, gate status, and configuration",
	Long: `Status displays the current pyspectre configuration, the latest scan
result with its quality gate status, and the outcome of the last cycle.

The latest scan is the newest stored run, or the report document when
nothing is stored.

Example:
  pyspectre status
  pyspectre status --format json`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "text",
		"output format: text or json")
}

type statusResult struct {
	Scan       *statusScan  `json:"scan,omitempty"`
	Cycle      *statusCycle `json:"cycle,omitempty"`
	Config     statusConfig `json:"config"`
	ConfigFile string       `json:"config_file"`
}

type statusScan struct {
	Source      string         `json:"source"`
	Path        string         `json:"path"`
	GeneratedAt string         `json:"generated_at"`
	Summary     models.Summary `json:"summary"`
	GatePassed  bool           `json:"gate_passed"`
	Violations  []string       `json:"violations,omitempty"`
	StoredRuns  int            `json:"stored_runs"`
}

type statusCycle struct {
	RunID      string         `json:"run_id"`
	Outcome    models.Outcome `json:"outcome"`
	Iterations int            `json:"iterations"`
	StartedAt  string         `json:"started_at"`
}

type statusConfig struct {
	StorageDir    string `json:"storage_dir"`
	ReportPath    string `json:"report_path"`
	HistoryPath   string `json:"history_path"`
	Format        string `json:"format"`
	MaxIterations int    `json:"max_iterations"`
	HasFixer      bool   `json:"has_fixer_command"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	result := statusResult{
		Config: statusConfig{
			StorageDir:    cfg.StorageDir,
			ReportPath:    cfg.ReportPath,
			HistoryPath:   cfg.HistoryPath,
			Format:        cfg.Format,
			MaxIterations: cfg.MaxIterations,
			HasFixer:      cfg.FixerCommand != "",
		},
		ConfigFile: configFile,
	}

	scan, err := latestScanStatus()
	if err != nil {
		return err
	}
	result.Scan = scan

	if history, err := storage.ReadHistory(cfg.HistoryPath); err == nil {
		result.Cycle = &statusCycle{
			RunID:      history.RunID,
			Outcome:    history.Outcome,
			Iterations: history.Iterations,
			StartedAt:  history.StartedAt.Format("2006-01-02 15:04:05"),
		}
	} else {
		logDebug("No history document: %v", err)
	}

	if statusFormat == "json" {
		return writeStatusJSON(result)
	}

	return writeStatusText(result)
}

// latestScanStatus summarizes the newest stored run, falling back to the
// report document. Nil means no scan has run yet.
func latestScanStatus() (*statusScan, error) {
	report, source, err := loadLatestReport()
	if err != nil || report == nil {
		return nil, err
	}

	store, err := openStore(cfg.StorageDir)
	if err != nil {
		return nil, err
	}
	runs, err := store.ListRuns()
	if err != nil {
		return nil, err
	}

	pol, err := loadPolicy()
	if err != nil {
		return nil, err
	}
	gate := pol.Evaluate(report)

	scan := &statusScan{
		Source:      source,
		Path:        report.ScannedPath,
		GeneratedAt: report.GeneratedAt.Format("2006-01-02 15:04:05"),
		Summary:     report.Summary(),
		GatePassed:  gate.Pass,
		StoredRuns:  len(runs),
	}
	for _, v := range gate.Violations {
		scan.Violations = append(scan.Violations, v.Message)
	}
	return scan, nil
}

func writeStatusJSON(result statusResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeStatusText(result statusResult) error {
	if s := result.Scan; s != nil {
		h := s.Summary.IssuesBySeverity
		fmt.Printf("Last scan: %s (%s)\n", s.GeneratedAt, s.Source)
		fmt.Printf("Path:      %s\n", s.Path)
		fmt.Printf("Issues:    %d (critical %d, high %d, medium %d, low %d)\n",
			s.Summary.TotalIssues,
			h[models.SeverityCritical], h[models.SeverityHigh],
			h[models.SeverityMedium], h[models.SeverityLow])
		if s.GatePassed {
			fmt.Println("Gate:      passed")
		} else {
			fmt.Println("Gate:      failed")
			for _, v := range s.Violations {
				fmt.Printf("           - %s\n", v)
			}
		}
		fmt.Printf("Stored:    %d run(s)\n", s.StoredRuns)
	} else {
		fmt.Println("Last scan: none. Run: pyspectre scan")
	}

	if c := result.Cycle; c != nil {
		fmt.Printf("Cycle:     %s after %d iteration(s) (%s)\n", c.Outcome, c.Iterations, c.StartedAt)
	}

	fmt.Printf("Storage:   %s\n", result.Config.StorageDir)
	if !result.Config.HasFixer {
		fmt.Println("Fixer:     not configured (set fixer_command or PYSPECTRE_FIXER_COMMAND)")
	}

	return nil
}
