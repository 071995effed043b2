package detector

import (
	"context"
	"errors"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/pyparse"
	"github.com/ppiankov/pyspectre/internal/source"
)

// Syntax reports files that do not parse.
type Syntax struct{}

func (Syntax) Name() string { return "syntax" }

func (Syntax) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	for _, path := range set.Paths() {
		if err := ctx.Err(); err != nil {
			return findings, err
		}

		_, err := set.Module(ctx, path)
		if err == nil {
			continue
		}

		var perr *pyparse.ParseError
		if errors.As(err, &perr) {
			findings = append(findings, models.Finding{
				File:        path,
				Line:        perr.Line,
				Severity:    models.SeverityCritical,
				Type:        "syntax_error",
				Description: "Syntax error: " + perr.Msg,
				Suggestion:  "Fix the syntax error",
			})
			continue
		}
		if !source.IsFileLocal(err) {
			return findings, err
		}
	}
	return findings, nil
}
