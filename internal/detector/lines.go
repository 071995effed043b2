package detector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/source"
)

// Prints reports print() calls outside comment lines.
type Prints struct{}

func (Prints) Name() string { return "prints" }

func (Prints) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	err := eachFile(ctx, set, func(file *source.File) {
		for i, line := range file.Lines {
			if !strings.Contains(line, "print(") || strings.HasPrefix(strings.TrimSpace(line), "#") {
				continue
			}
			findings = append(findings, models.Finding{
				File:        file.Path,
				Line:        i + 1,
				Severity:    models.SeverityLow,
				Type:        "print_usage",
				Description: "Use logging instead of print()",
				Suggestion:  "Replace with logger.info() or logger.debug()",
			})
		}
	})
	return findings, err
}

// MaxLineLength is the longest line, in characters after trimming trailing
// whitespace, that passes.
const MaxLineLength = 120

// LineLength reports lines longer than MaxLineLength.
type LineLength struct{}

func (LineLength) Name() string { return "line-length" }

func (LineLength) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	err := eachFile(ctx, set, func(file *source.File) {
		for i, line := range file.Lines {
			n := utf8.RuneCountInString(strings.TrimRightFunc(line, unicode.IsSpace))
			if n <= MaxLineLength {
				continue
			}
			findings = append(findings, models.Finding{
				File:        file.Path,
				Line:        i + 1,
				Severity:    models.SeverityLow,
				Type:        "line_too_long",
				Description: fmt.Sprintf("Line is %d characters long", n),
				Suggestion:  "Split it over several lines",
			})
		}
	})
	return findings, err
}

// Encoding reports files that are not valid UTF-8.
type Encoding struct{}

func (Encoding) Name() string { return "encoding" }

func (Encoding) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	for _, path := range set.Paths() {
		if err := ctx.Err(); err != nil {
			return findings, err
		}

		_, err := set.Load(path)
		var decodeErr *source.DecodeError
		switch {
		case err == nil:
		case errors.As(err, &decodeErr):
			findings = append(findings, models.Finding{
				File:        path,
				Line:        0,
				Severity:    models.SeverityMedium,
				Type:        "invalid_encoding",
				Description: "File is not valid UTF-8",
				Suggestion:  "Convert the file to UTF-8",
			})
		case source.IsFileLocal(err):
		default:
			return findings, err
		}
	}
	return findings, nil
}
