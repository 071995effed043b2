package detector

import (
	"context"
	"fmt"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/pyparse"
	"github.com/ppiankov/pyspectre/internal/source"
)

// MaxComplexity is the highest cyclomatic complexity a function may have.
const MaxComplexity = 10

// Complexity reports functions whose cyclomatic complexity is too high.
type Complexity struct{}

func (Complexity) Name() string { return "complexity" }

func (Complexity) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	err := eachModule(ctx, set, func(path string, m *pyparse.Module) {
		for _, fn := range m.Functions() {
			score := m.Complexity(fn)
			if score <= MaxComplexity {
				continue
			}
			findings = append(findings, models.Finding{
				File:        path,
				Line:        fn.Line,
				Severity:    models.SeverityHigh,
				Type:        "complexity_high",
				Description: fmt.Sprintf("Function '%s' has complexity %d", fn.Name, score),
				Suggestion:  "Simplify the logic or split it into smaller functions",
			})
		}
	})
	return findings, err
}
