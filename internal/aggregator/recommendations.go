package aggregator

import (
	"fmt"
	"sort"

	"github.com/ppiankov/pyspectre/internal/models"
)

// issueGroup represents a group of findings by category and severity
type issueGroup struct {
	category   string
	severity   models.Severity
	suggestion string
	count      int
}

// RecommendationGenerator creates actionable recommendations from a report
type RecommendationGenerator struct{}

// NewRecommendationGenerator creates a new recommendation generator
func NewRecommendationGenerator() *RecommendationGenerator {
	return &RecommendationGenerator{}
}

// GenerateRecommendations groups findings by (category, severity) and
// orders the groups by severity, then count, then category.
func (r *RecommendationGenerator) GenerateRecommendations(report *models.Report) []models.Recommendation {
	groups := make(map[string]*issueGroup)

	for _, f := range report.Issues {
		key := fmt.Sprintf("%s:%s", f.Type, f.Severity)
		if g, exists := groups[key]; exists {
			g.count++
		} else {
			groups[key] = &issueGroup{
				category:   f.Type,
				severity:   f.Severity,
				suggestion: f.Suggestion,
				count:      1,
			}
		}
	}

	recommendations := make([]models.Recommendation, 0, len(groups))
	for _, group := range groups {
		recommendations = append(recommendations, models.Recommendation{
			Severity: group.severity,
			Type:     group.category,
			Action:   r.generateAction(group),
			Impact:   r.generateImpact(group),
			Count:    group.count,
		})
	}

	sort.Slice(recommendations, func(i, j int) bool {
		a, b := recommendations[i], recommendations[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Type < b.Type
	})

	return recommendations
}

// generateAction creates actionable text based on category and count
func (r *RecommendationGenerator) generateAction(group *issueGroup) string {
	switch group.category {
	case "syntax_error":
		return fmt.Sprintf("Fix %d file(s) that do not parse", group.count)
	case "hardcoded_secret":
		return fmt.Sprintf("Move %d hardcoded secret(s) out of the source", group.count)
	case "sql_injection":
		return fmt.Sprintf("Parameterize %d SQL query(ies)", group.count)
	case "eval_usage", "exec_usage", "pickle_usage", "command_injection", "shell_injection":
		return fmt.Sprintf("Replace %d unsafe %s call(s)", group.count, group.category)
	case "duplicate_code":
		return fmt.Sprintf("Deduplicate %d repeated block(s)", group.count)
	default:
		if group.suggestion != "" {
			return fmt.Sprintf("%s (%d %s)", group.suggestion, group.count, group.category)
		}
		return fmt.Sprintf("Address %d %s issue(s)", group.count, group.category)
	}
}

// generateImpact describes the potential impact based on severity
func (r *RecommendationGenerator) generateImpact(group *issueGroup) string {
	switch group.severity {
	case models.SeverityCritical:
		return "Blocks the quality gate and may be exploitable"
	case models.SeverityHigh:
		return "Counts against the high-issue limit of the quality gate"
	case models.SeverityMedium:
		return "Makes the code harder to change safely"
	case models.SeverityLow:
		return "Minor cleanup to improve maintainability"
	default:
		return "Review and address as needed"
	}
}

// GetTopRecommendations returns the top N most critical recommendations
func (r *RecommendationGenerator) GetTopRecommendations(recommendations []models.Recommendation, n int) []models.Recommendation {
	if n >= len(recommendations) {
		return recommendations
	}
	return recommendations[:n]
}

// GroupBySeverity groups recommendations by severity level
func (r *RecommendationGenerator) GroupBySeverity(recommendations []models.Recommendation) map[models.Severity][]models.Recommendation {
	grouped := make(map[models.Severity][]models.Recommendation)

	for _, rec := range recommendations {
		grouped[rec.Severity] = append(grouped[rec.Severity], rec)
	}

	return grouped
}
