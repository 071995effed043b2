package detector

import (
	"context"
	"fmt"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/pyparse"
	"github.com/ppiankov/pyspectre/internal/source"
)

const (
	maxParams  = 7
	maxMethods = 20
)

// Smells reports functions with too many parameters and classes with too
// many methods.
type Smells struct{}

func (Smells) Name() string { return "smells" }

func (Smells) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	err := eachModule(ctx, set, func(path string, m *pyparse.Module) {
		for _, def := range definitions(m) {
			switch {
			case def.kind == kindFunction && def.fn.Params > maxParams:
				findings = append(findings, models.Finding{
					File:        path,
					Line:        def.line,
					Severity:    models.SeverityMedium,
					Type:        "too_many_arguments",
					Description: fmt.Sprintf("Function '%s' takes %d arguments", def.name, def.fn.Params),
					Suggestion:  "Group related arguments into a dataclass or dictionary",
				})
			case def.kind == kindClass && def.class.Methods > maxMethods:
				findings = append(findings, models.Finding{
					File:        path,
					Line:        def.line,
					Severity:    models.SeverityMedium,
					Type:        "class_too_large",
					Description: fmt.Sprintf("Class '%s' has %d methods", def.name, def.class.Methods),
					Suggestion:  "Split it into smaller classes with a single responsibility",
				})
			}
		}
	})
	return findings, err
}
