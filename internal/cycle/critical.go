package cycle

import (
	"context"
	"fmt"
	"io"

	"github.com/ppiankov/pyspectre/internal/models"
)

// maxListed bounds how many critical findings are printed per pass.
const maxListed = 10

// ManualReview lists the critical findings that need a human. It never
// changes the code, so it always contributes zero fixes.
type ManualReview struct {
	out io.Writer
}

// NewManualReview creates the manual critical step writing to w.
func NewManualReview(w io.Writer) *ManualReview {
	return &ManualReview{out: w}
}

// FixCritical prints the remaining critical findings.
func (m *ManualReview) FixCritical(_ context.Context, report *models.Report) (int, error) {
	var critical []models.Finding
	for _, f := range report.Issues {
		if f.Severity == models.SeverityCritical {
			critical = append(critical, f)
		}
	}
	if len(critical) == 0 {
		return 0, nil
	}

	fmt.Fprintf(m.out, "%d critical issue(s) need manual review:\n", len(critical))
	for i, f := range critical {
		if i == maxListed {
			fmt.Fprintf(m.out, "  ... and %d more\n", len(critical)-maxListed)
			break
		}
		fmt.Fprintf(m.out, "  %s  %s: %s\n", f.Location(), f.Type, f.Description)
	}
	return 0, nil
}
