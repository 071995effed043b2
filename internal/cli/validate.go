package cli

import (
	"fmt"
	"os"

	"github.com/ppiankov/pyspectre/internal/collector"
	"github.com/ppiankov/pyspectre/internal/validator"
	"github.com/spf13/cobra"
)

var validateKind string

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a report or history document",
	Long: `Validate checks that a JSON document is a well-formed pyspectre report
(as written by scan) or iteration history (as written by cycle).

The document kind is detected from its fields unless --kind is given.
A report whose severity counts disagree with its findings is invalid.

Returns exit 0 if valid, exit 2 if invalid with details on stderr.

Example:
  pyspectre validate pyspectre-report.json
  pyspectre validate --kind history pyspectre-history.json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateKind, "kind", "auto",
		"document kind: auto, report, or history")
}

func runValidate(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	kind := validateKind
	if kind == "auto" {
		kind = documentKind(data)
	}

	v := validator.New()
	switch kind {
	case "report":
		err = v.ValidateReport(data)
	case "history":
		err = v.ValidateHistory(data)
	default:
		return &ValidationError{Message: fmt.Sprintf("unsupported kind: %s (use auto, report, or history)", kind)}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "INVALID: %v\n", err)
		return &ValidationError{Message: fmt.Sprintf("%s is not a valid %s document", filePath, kind)}
	}

	fmt.Printf("VALID: pyspectre %s document\n", kind)
	return nil
}

// documentKind detects the kind from the document's fields. Anything that
// is not recognisably a history is validated as a report, so the report
// validator explains what is missing.
func documentKind(data []byte) string {
	if collector.DetectKind(data) == collector.KindHistory {
		return string(collector.KindHistory)
	}
	return string(collector.KindReport)
}
