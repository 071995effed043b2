package detector

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/pyparse"
	"github.com/ppiankov/pyspectre/internal/source"
)

// Unused reports plain local assignments whose name is never read in the
// function. Names starting with an underscore are exempt.
type Unused struct{}

func (Unused) Name() string { return "unused-variables" }

func (Unused) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	err := eachModule(ctx, set, func(path string, m *pyparse.Module) {
		for _, fn := range m.Functions() {
			assigned, read := m.Locals(fn)
			for _, name := range assigned {
				if read[name] || strings.HasPrefix(name, "_") {
					continue
				}
				findings = append(findings, models.Finding{
					File:        path,
					Line:        fn.Line,
					Severity:    models.SeverityLow,
					Type:        "unused_variable",
					Description: fmt.Sprintf("Variable '%s' is assigned but never used", name),
					Suggestion:  "Remove the variable or use it",
				})
			}
		}
	})
	return findings, err
}

// Naming reports classes that do not start with an uppercase letter and
// functions other than dunder names that contain one.
type Naming struct{}

func (Naming) Name() string { return "naming" }

func (Naming) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	err := eachModule(ctx, set, func(path string, m *pyparse.Module) {
		for _, def := range definitions(m) {
			switch def.kind {
			case kindClass:
				if r, _ := utf8.DecodeRuneInString(def.name); unicode.IsUpper(r) {
					continue
				}
				findings = append(findings, models.Finding{
					File:        path,
					Line:        def.line,
					Severity:    models.SeverityLow,
					Type:        "naming_convention",
					Description: fmt.Sprintf("Class '%s' should use CamelCase", def.name),
					Suggestion:  "Rename it to CamelCase (e.g. MyClass)",
				})
			case kindFunction:
				if strings.HasPrefix(def.name, "__") || !strings.ContainsFunc(def.name, unicode.IsUpper) {
					continue
				}
				findings = append(findings, models.Finding{
					File:        path,
					Line:        def.line,
					Severity:    models.SeverityLow,
					Type:        "naming_convention",
					Description: fmt.Sprintf("Function '%s' should use snake_case", def.name),
					Suggestion:  "Rename it to snake_case (e.g. my_function)",
				})
			}
		}
	})
	return findings, err
}

// MaxFunctionLines is the longest span, end line minus start line, a
// function may have.
const MaxFunctionLines = 50

// FunctionLength reports functions spanning too many lines.
type FunctionLength struct{}

func (FunctionLength) Name() string { return "function-length" }

func (FunctionLength) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	err := eachModule(ctx, set, func(path string, m *pyparse.Module) {
		for _, fn := range m.Functions() {
			span := fn.EndLine - fn.Line
			if span <= MaxFunctionLines {
				continue
			}
			findings = append(findings, models.Finding{
				File:        path,
				Line:        fn.Line,
				Severity:    models.SeverityMedium,
				Type:        "function_too_long",
				Description: fmt.Sprintf("Function '%s' is %d lines long", fn.Name, span),
				Suggestion:  "Split it into smaller functions",
			})
		}
	})
	return findings, err
}

// Docstrings reports functions and classes without a docstring.
type Docstrings struct{}

func (Docstrings) Name() string { return "docstrings" }

func (Docstrings) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	err := eachModule(ctx, set, func(path string, m *pyparse.Module) {
		for _, def := range definitions(m) {
			if def.docstring {
				continue
			}
			findings = append(findings, models.Finding{
				File:        path,
				Line:        def.line,
				Severity:    models.SeverityLow,
				Type:        "missing_docstring",
				Description: fmt.Sprintf("%s '%s' has no docstring", def.kind, def.name),
				Suggestion:  "Add a docstring describing it",
			})
		}
	})
	return findings, err
}

// Exceptions reports except clauses that catch everything.
type Exceptions struct{}

func (Exceptions) Name() string { return "exceptions" }

func (Exceptions) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	err := eachModule(ctx, set, func(path string, m *pyparse.Module) {
		for _, h := range m.Handlers() {
			if !h.Bare {
				continue
			}
			findings = append(findings, models.Finding{
				File:        path,
				Line:        h.Line,
				Severity:    models.SeverityMedium,
				Type:        "bare_except",
				Description: "Bare except catches every exception",
				Suggestion:  "Name the exception type (e.g. except ValueError:)",
			})
		}
	})
	return findings, err
}
