package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/pyspectre/internal/models"
)

// ValidationError represents a validation failure
type ValidationError struct {
	Document string
	Errors   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Invalid %s:\n  - %s", e.Document, strings.Join(e.Errors, "\n  - "))
}

// requiredReportFields are the keys every report document must carry
var requiredReportFields = []string{"files_analyzed", "total_lines", "issues_by_severity", "issues"}

// Validator validates persisted pyspectre documents
type Validator struct{}

// New creates a new validator
func New() *Validator {
	return &Validator{}
}

// ValidateReport checks a scan report document: required fields, the
// four severities, per-finding fields, and that the stored histogram
// matches the finding list.
func (v *Validator) ValidateReport(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return &ValidationError{
			Document: "report",
			Errors:   []string{fmt.Sprintf("Failed to parse JSON: %v", err)},
		}
	}

	var errors []string
	for _, key := range requiredReportFields {
		if _, ok := raw[key]; !ok {
			errors = append(errors, fmt.Sprintf("Missing required field: '%s'", key))
		}
	}
	if len(errors) > 0 {
		return &ValidationError{Document: "report", Errors: errors}
	}

	report, stored, err := models.DecodeReport(data)
	if err != nil {
		return &ValidationError{
			Document: "report",
			Errors:   []string{fmt.Sprintf("Failed to decode report: %v", err)},
		}
	}

	if report.FilesAnalyzed < 0 {
		errors = append(errors, "Field 'files_analyzed' must be non-negative")
	}
	if report.TotalLines < 0 {
		errors = append(errors, "Field 'total_lines' must be non-negative")
	}

	for i, f := range report.Issues {
		if !f.Severity.Valid() {
			errors = append(errors, fmt.Sprintf("Issue %d has invalid severity: '%s'", i, f.Severity))
		}
		if f.File == "" {
			errors = append(errors, fmt.Sprintf("Issue %d is missing 'file'", i))
		}
		if f.Type == "" {
			errors = append(errors, fmt.Sprintf("Issue %d is missing 'type'", i))
		}
		if f.Line < 0 {
			errors = append(errors, fmt.Sprintf("Issue %d has negative line %d", i, f.Line))
		}
	}

	for sev := range stored {
		if !sev.Valid() {
			errors = append(errors, fmt.Sprintf("Field 'issues_by_severity' has unknown severity: '%s'", sev))
		}
	}
	derived := report.IssuesBySeverity()
	for _, sev := range models.Severities {
		if stored[sev] != derived[sev] {
			errors = append(errors, fmt.Sprintf("Field 'issues_by_severity.%s' is %d but issues contain %d", sev, stored[sev], derived[sev]))
		}
	}

	if len(errors) > 0 {
		return &ValidationError{Document: "report", Errors: errors}
	}

	return nil
}

// ValidateHistory checks a controller history document
func (v *Validator) ValidateHistory(data []byte) error {
	var history models.History
	if err := json.Unmarshal(data, &history); err != nil {
		return &ValidationError{
			Document: "history",
			Errors:   []string{fmt.Sprintf("Failed to parse JSON: %v", err)},
		}
	}

	var errors []string
	if history.Iterations != len(history.History) {
		errors = append(errors, fmt.Sprintf("Field 'iterations' is %d but history has %d entries", history.Iterations, len(history.History)))
	}
	switch history.Outcome {
	case models.OutcomeQualityMet, models.OutcomeNoProgress, models.OutcomeCapReached, models.OutcomeFailed:
	default:
		errors = append(errors, fmt.Sprintf("Field 'outcome' has invalid value: '%s'", history.Outcome))
	}
	for i, rec := range history.History {
		if rec.Iteration != i+1 {
			errors = append(errors, fmt.Sprintf("History entry %d has iteration %d", i, rec.Iteration))
		}
		if rec.Summary.IssuesBySeverity.Total() != rec.Summary.TotalIssues {
			errors = append(errors, fmt.Sprintf("History entry %d: severity counts do not add up to %d", i, rec.Summary.TotalIssues))
		}
	}

	if len(errors) > 0 {
		return &ValidationError{Document: "history", Errors: errors}
	}

	return nil
}
