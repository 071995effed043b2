package cycle

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/runner"
	"github.com/ppiankov/pyspectre/internal/storage"
)

// DefaultFixLabel is the fixer output label preceding the fix count.
const DefaultFixLabel = "Fixes applied"

// ProcessAnalyzer runs the scanner as a child process and reads the report
// document it writes.
type ProcessAnalyzer struct {
	runner     *runner.Runner
	cmd        runner.Command
	reportPath string
}

// NewProcessAnalyzer creates an analyzer for cmd, which must write its
// report to reportPath.
func NewProcessAnalyzer(r *runner.Runner, cmd runner.Command, reportPath string) *ProcessAnalyzer {
	return &ProcessAnalyzer{runner: r, cmd: cmd, reportPath: reportPath}
}

// Analyze runs the scanner and loads its report.
func (a *ProcessAnalyzer) Analyze(ctx context.Context) (*models.Report, error) {
	if _, err := a.runner.Run(ctx, a.cmd); err != nil {
		return nil, err
	}
	report, err := storage.ReadReport(a.reportPath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", a.reportPath, err)
	}
	return report, nil
}

// ProcessFixer runs an external fixer and parses its fix count.
type ProcessFixer struct {
	runner *runner.Runner
	cmd    runner.Command
	label  string
}

// NewProcessFixer creates a fixer for cmd. An empty label means
// DefaultFixLabel.
func NewProcessFixer(r *runner.Runner, cmd runner.Command, label string) *ProcessFixer {
	if label == "" {
		label = DefaultFixLabel
	}
	return &ProcessFixer{runner: r, cmd: cmd, label: label}
}

// Fix runs the fixer.
func (f *ProcessFixer) Fix(ctx context.Context) (int, error) {
	res, err := f.runner.Run(ctx, f.cmd)
	if err != nil {
		return 0, err
	}
	return ParseFixCount(string(res.Stdout), f.label), nil
}

// ParseFixCount extracts n from the last "<label>: n" in output. Output
// without such a line counts as zero fixes.
func ParseFixCount(output, label string) int {
	re := regexp.MustCompile(regexp.QuoteMeta(label) + `\s*:\s*(\d+)`)
	matches := re.FindAllStringSubmatch(output, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		if n, err := strconv.Atoi(matches[i][1]); err == nil {
			return n
		}
	}
	return 0
}
