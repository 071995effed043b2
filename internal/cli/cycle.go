package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/ppiankov/pyspectre/internal/cycle"
	"github.com/ppiankov/pyspectre/internal/discovery"
	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/reporter"
	"github.com/ppiankov/pyspectre/internal/runner"
	"github.com/ppiankov/pyspectre/internal/storage"
	"github.com/spf13/cobra"
)

var (
	cycleMaxIterations int
	cycleTimeout       time.Duration
	cyclePause         time.Duration
	cycleFixer         string
	cycleFixLabel      string
	cycleScanner       string
	cycleFormat        string
	cycleDryRun        bool
)

var cycleCmd = &cobra.Command{
	Use:   "cycle [path]",
	Short: "Alternate scanning and fixing until the quality gate is met",
	Long: `Cycle runs the iteration controller over a source tree:

  1. Scan    — run the scanner as a subprocess and load its report
  2. Gate    — stop when there are no critical and few enough high issues
  3. Fix     — run the fixer and read "Fixes applied: N" from its output
  4. Review  — list the critical findings left for manual review
  5. Repeat  — until the gate passes, nothing was fixed, or the cap is hit

Every subprocess is bounded by --timeout; a timeout aborts the run.
The iteration history is written to the history document and an
improvement table with a final verdict is printed.

Exit status is 0 only when the quality gate was met.

Use --dry-run to see the resolved scanner and fixer commands.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCycle,
}

func init() {
	cycleCmd.Flags().IntVar(&cycleMaxIterations, "max-iterations", 0,
		"iteration cap (default from config)")
	cycleCmd.Flags().DurationVar(&cycleTimeout, "timeout", 0,
		"per-process timeout (default from config)")
	cycleCmd.Flags().DurationVar(&cyclePause, "pause", -1,
		"pause between iterations (default from config)")
	cycleCmd.Flags().StringVar(&cycleFixer, "fixer", "",
		"fixer command line (default: $PYSPECTRE_FIXER_COMMAND or pyfixer)")
	cycleCmd.Flags().StringVar(&cycleFixLabel, "fix-label", "",
		"label preceding the fix count in fixer output")
	cycleCmd.Flags().StringVar(&cycleScanner, "scanner", "",
		"scanner command line (default: this executable)")
	cycleCmd.Flags().StringVar(&cycleFormat, "format", "",
		"final report format: text or json (default from config)")
	cycleCmd.Flags().BoolVar(&cycleDryRun, "dry-run", false,
		"show the resolved commands without running them")
}

// cycleSettings are the effective cycle options after flags and config.
type cycleSettings struct {
	root          string
	maxIterations int
	timeout       time.Duration
	pause         time.Duration
	fixLabel      string
	format        string
	reportPath    string
	historyPath   string
}

func resolveCycleSettings(args []string) (cycleSettings, error) {
	s := cycleSettings{
		root:          ".",
		maxIterations: cfg.MaxIterations,
		timeout:       cfg.Timeout,
		pause:         cfg.Pause,
		fixLabel:      cfg.FixLabel,
		format:        cfg.Format,
		reportPath:    cfg.ReportPath,
		historyPath:   cfg.HistoryPath,
	}
	// Scan's "both" has no cycle equivalent; the transcript stays text.
	if s.format == "both" {
		s.format = "text"
	}
	if len(args) > 0 {
		s.root = args[0]
	}
	if cycleMaxIterations != 0 {
		s.maxIterations = cycleMaxIterations
	}
	if cycleTimeout != 0 {
		s.timeout = cycleTimeout
	}
	if cyclePause >= 0 {
		s.pause = cyclePause
	}
	if cycleFixLabel != "" {
		s.fixLabel = cycleFixLabel
	}
	if cycleFormat != "" {
		s.format = cycleFormat
	}

	switch {
	case s.maxIterations <= 0:
		return s, &ValidationError{Message: fmt.Sprintf("max-iterations must be positive, got %d", s.maxIterations)}
	case s.timeout <= 0:
		return s, &ValidationError{Message: fmt.Sprintf("timeout must be positive, got %s", s.timeout)}
	case s.format != "text" && s.format != "json":
		return s, &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use text or json)", s.format)}
	}

	info, err := os.Stat(s.root)
	if err != nil || !info.IsDir() {
		return s, &ValidationError{Message: fmt.Sprintf("not a directory: %s", s.root)}
	}
	return s, nil
}

// cycleOverrides picks the command lines given on the command line or in
// config. The scanner defaults to this very executable.
func cycleOverrides() map[discovery.Role]string {
	overrides := map[discovery.Role]string{
		discovery.RoleScanner: cycleScanner,
		discovery.RoleFixer:   cycleFixer,
	}
	if overrides[discovery.RoleScanner] == "" {
		if self, err := os.Executable(); err == nil {
			overrides[discovery.RoleScanner] = self
		}
	}
	if overrides[discovery.RoleFixer] == "" {
		overrides[discovery.RoleFixer] = cfg.FixerCommand
	}
	return overrides
}

// cycleCommands resolves the scanner and fixer invocations.
func cycleCommands(plan *discovery.DiscoveryPlan, s cycleSettings) (scan, fix runner.Command, err error) {
	scan, err = plan.Command(discovery.RoleScanner)
	if err != nil {
		return scan, fix, &ValidationError{Message: err.Error()}
	}
	fix, err = plan.Command(discovery.RoleFixer)
	if err != nil {
		return scan, fix, &ValidationError{Message: err.Error()}
	}

	scan.Args = append(scan.Args, "scan", s.root, "--report", s.reportPath, "--quiet")
	scan.Timeout = s.timeout
	fix.Timeout = s.timeout
	return scan, fix, nil
}

func runCycle(cmd *cobra.Command, args []string) error {
	settings, err := resolveCycleSettings(args)
	if err != nil {
		return err
	}

	// Step 1: Resolve the external commands
	d := discovery.New(exec.LookPath, os.Getenv)
	plan := d.Discover(cycleOverrides())

	scanCommand, fixCommand, err := cycleCommands(plan, settings)
	if err != nil {
		return err
	}

	logVerbose("scanner: %s", scanCommand)
	logVerbose("fixer: %s", fixCommand)

	if cycleDryRun {
		fmt.Printf("Dry run — would alternate, at most %d time(s):\n\n", settings.maxIterations)
		fmt.Printf("  %s\n", scanCommand)
		fmt.Printf("  %s\n", fixCommand)
		return nil
	}

	pol, err := loadPolicy()
	if err != nil {
		return err
	}

	// Step 2: Iterate. A JSON report keeps stdout for itself.
	var transcript io.Writer = os.Stdout
	if settings.format == "json" {
		transcript = os.Stderr
	}

	r := runner.New(runner.ExecCommand)
	controller := cycle.New(
		cycle.NewProcessAnalyzer(r, scanCommand, settings.reportPath),
		cycle.NewProcessFixer(r, fixCommand, settings.fixLabel),
		cycle.NewManualReview(transcript),
		log(),
		cycle.WithPolicy(pol),
		cycle.WithMaxIterations(settings.maxIterations),
		cycle.WithPause(settings.pause),
		cycle.WithOutput(transcript),
	)

	history, runErr := controller.Run(commandContext(cmd))

	// Step 3: Persist and report whatever ran, even after a failure
	if err := finishCycle(history, settings, pol.MaxHigh()); err != nil {
		if runErr != nil {
			logError("%v", err)
			return runErr
		}
		return err
	}

	if runErr != nil {
		var timeout *runner.TimeoutError
		if errors.As(runErr, &timeout) {
			logError("%s timed out after %s", timeout.Name, timeout.Timeout)
		}
		return runErr
	}

	if history.Outcome != models.OutcomeQualityMet && len(history.History) > 0 {
		final := history.History[len(history.History)-1].Summary
		return &ThresholdExceededError{
			IssueCount: final.TotalIssues,
			Threshold:  pol.MaxHigh(),
		}
	}
	return nil
}

// finishCycle writes the history document and prints the improvement
// report. An empty history is reported but not written.
func finishCycle(history *models.History, s cycleSettings, maxHigh int) error {
	if history == nil {
		return nil
	}

	if len(history.History) > 0 {
		if err := storage.WriteHistory(s.historyPath, history); err != nil {
			return fmt.Errorf("failed to write history: %w", err)
		}
		logVerbose("History written to: %s", s.historyPath)
	}

	if s.format == "json" {
		return reporter.NewJSONReporter(os.Stdout, true).GenerateCycle(history, maxHigh)
	}
	return reporter.NewTextReporter(os.Stdout, false).GenerateCycle(history, maxHigh)
}
