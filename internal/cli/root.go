package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/pyspectre/internal/config"
	"github.com/ppiankov/pyspectre/internal/logging"
	"github.com/ppiankov/pyspectre/internal/validator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	ExitOK           = 0 // Success
	ExitPolicyFail   = 1 // Quality gate not met
	ExitInvalidInput = 2 // Schema validation or parse error
	ExitRuntimeError = 3 // I/O, process, or runtime error
)

var (
	// Global config instance
	cfg *config.Config

	// Process-wide logger, built once the config is known
	logger *zap.SugaredLogger

	// Global flags
	configFile string
	verbose    bool
	debug      bool

	buildVersion = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pyspectre",
	Short: "pyspectre - Python code quality scanner",
	Long: `pyspectre scans a Python source tree for code-quality, security and
maintainability problems, and can drive an external fixer until the
quality gate is met.

It provides:
- Fifteen detectors (syntax, duplicates, complexity, security, secrets, ...)
- A severity-graded JSON report and a console summary
- An iteration controller that alternates scanning and fixing
- Trend analysis across stored scan runs
- CI/CD integration with exit codes

Quick start:
  pyspectre doctor
  pyspectre scan ./src --store
  pyspectre cycle ./src --fixer "python3 tools/fixer.py"
  pyspectre status

Other commands:
  pyspectre browse
  pyspectre diff --last 2
  pyspectre export --format sarif
  pyspectre summarize --last 7`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Load configuration
		var err error
		cfg, err = config.LoadFromFile(configFile)
		if err != nil {
			return &ValidationError{Message: fmt.Sprintf("failed to load config: %v", err)}
		}

		// Override config with flags if provided
		if verbose {
			cfg.Verbose = true
		}
		if debug {
			cfg.Debug = true
		}

		logger, err = logging.New(cfg.Verbose, cfg.Debug)
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// Execute runs the root command and exits with the mapped exit code
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logError("%v", err)
	}
	os.Exit(HandleError(err))
}

// SetVersion records the version injected at build time
func SetVersion(v string) {
	buildVersion = v
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default: ./pyspectre.yaml or ~/pyspectre.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"debug mode (very verbose)")

	// Add subcommands
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cycleCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("pyspectre %s\n", buildVersion)
		fmt.Println("Python code quality scanner and fix loop")
	},
}

// HandleError determines the appropriate exit code for an error
func HandleError(err error) int {
	if err == nil {
		return ExitOK
	}

	var validationErr *ValidationError
	var schemaErr *validator.ValidationError
	var thresholdErr *ThresholdExceededError
	switch {
	case errors.As(err, &thresholdErr):
		return ExitPolicyFail
	case errors.As(err, &validationErr), errors.As(err, &schemaErr):
		return ExitInvalidInput
	default:
		return ExitRuntimeError
	}
}

// ValidationError represents invalid user input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ThresholdExceededError represents a quality gate failure
type ThresholdExceededError struct {
	IssueCount int
	Threshold  int
}

func (e *ThresholdExceededError) Error() string {
	return fmt.Sprintf("issue count (%d) exceeds threshold (%d)", e.IssueCount, e.Threshold)
}

// commandContext returns the command's context, or a background context
// when the handler is called outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// log returns the process logger, or a no-op one before PersistentPreRunE
func log() *zap.SugaredLogger {
	if logger == nil {
		return logging.Nop()
	}
	return logger
}

// logVerbose logs at info level, shown with --verbose
func logVerbose(format string, args ...interface{}) {
	log().Infof(format, args...)
}

// logDebug logs at debug level, shown with --debug
func logDebug(format string, args ...interface{}) {
	log().Debugf(format, args...)
}

// logError always reaches stderr, even before the logger exists
func logError(format string, args ...interface{}) {
	if logger == nil {
		fmt.Fprintf(os.Stderr, "[ERROR] "+format+"\n", args...)
		return
	}
	logger.Errorf(format, args...)
}
