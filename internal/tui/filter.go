package tui

import (
	"sort"
	"strings"

	"github.com/ppiankov/pyspectre/internal/models"
)

// filterState holds current active filters.
type filterState struct {
	Type       string
	Severity   models.Severity
	SearchText string
}

// sortField enumerates columns that can be sorted.
type sortField int

const (
	sortBySeverity sortField = iota
	sortByType
	sortByFile
	sortByLine
)

// sortFieldCount is the total number of sortable columns.
const sortFieldCount = 4

// applyFilters returns findings matching all active filters.
func applyFilters(findings []models.Finding, f filterState) []models.Finding {
	result := make([]models.Finding, 0, len(findings))
	searchLower := strings.ToLower(f.SearchText)

	for _, finding := range findings {
		if f.Type != "" && finding.Type != f.Type {
			continue
		}
		if f.Severity != "" && finding.Severity != f.Severity {
			continue
		}
		if searchLower != "" && !matchesSearch(finding, searchLower) {
			continue
		}
		result = append(result, finding)
	}
	return result
}

func matchesSearch(f models.Finding, searchLower string) bool {
	return strings.Contains(strings.ToLower(f.File), searchLower) ||
		strings.Contains(strings.ToLower(f.Type), searchLower) ||
		strings.Contains(strings.ToLower(string(f.Severity)), searchLower) ||
		strings.Contains(strings.ToLower(f.Description), searchLower) ||
		strings.Contains(strings.ToLower(f.Suggestion), searchLower)
}

// sortFindings sorts findings in place by the given field. Ties keep
// report order.
func sortFindings(findings []models.Finding, field sortField) {
	sort.SliceStable(findings, func(i, j int) bool {
		switch field {
		case sortBySeverity:
			return findings[i].Severity.Rank() < findings[j].Severity.Rank()
		case sortByType:
			return findings[i].Type < findings[j].Type
		case sortByFile:
			return findings[i].File < findings[j].File
		case sortByLine:
			if findings[i].File != findings[j].File {
				return findings[i].File < findings[j].File
			}
			return findings[i].Line < findings[j].Line
		default:
			return false
		}
	})
}

// uniqueTypes returns deduplicated, sorted category tags.
func uniqueTypes(findings []models.Finding) []string {
	seen := make(map[string]bool)
	var types []string
	for _, f := range findings {
		if !seen[f.Type] {
			seen[f.Type] = true
			types = append(types, f.Type)
		}
	}
	sort.Strings(types)
	return types
}

// nextSeverity cycles all -> critical -> high -> medium -> low -> all.
func nextSeverity(current models.Severity) models.Severity {
	if current == "" {
		return models.Severities[0]
	}
	for i, sev := range models.Severities {
		if sev == current && i+1 < len(models.Severities) {
			return models.Severities[i+1]
		}
	}
	return ""
}

// sortFieldName returns a human-readable name for the sort field.
func sortFieldName(f sortField) string {
	switch f {
	case sortBySeverity:
		return "severity"
	case sortByType:
		return "type"
	case sortByFile:
		return "file"
	case sortByLine:
		return "location"
	default:
		return "unknown"
	}
}
