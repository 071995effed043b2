package aggregator

import (
	"strings"
	"testing"

	"github.com/ppiankov/pyspectre/internal/models"
)

func recommendationReport() *models.Report {
	r := models.NewReport("/src")
	r.Add(
		models.Finding{File: "a.py", Line: 1, Severity: models.SeverityLow, Type: "print_usage", Suggestion: "Use logging"},
		models.Finding{File: "a.py", Line: 2, Severity: models.SeverityLow, Type: "print_usage", Suggestion: "Use logging"},
		models.Finding{File: "a.py", Line: 3, Severity: models.SeverityLow, Type: "line_too_long", Suggestion: "Split it"},
		models.Finding{File: "b.py", Line: 4, Severity: models.SeverityCritical, Type: "hardcoded_secret"},
		models.Finding{File: "b.py", Line: 9, Severity: models.SeverityHigh, Type: "complexity_high", Suggestion: "Simplify"},
	)
	return r
}

func TestGenerateRecommendations(t *testing.T) {
	gen := NewRecommendationGenerator()
	recs := gen.GenerateRecommendations(recommendationReport())

	if len(recs) != 4 {
		t.Fatalf("expected 4 recommendations, got %d", len(recs))
	}

	wantOrder := []string{"hardcoded_secret", "complexity_high", "print_usage", "line_too_long"}
	for i, typ := range wantOrder {
		if recs[i].Type != typ {
			t.Errorf("position %d: expected %s, got %s", i, typ, recs[i].Type)
		}
	}
	if recs[2].Count != 2 {
		t.Errorf("expected 2 print findings, got %d", recs[2].Count)
	}
	if !strings.Contains(recs[0].Action, "secret") {
		t.Errorf("unexpected action: %s", recs[0].Action)
	}
	if !strings.Contains(recs[2].Action, "Use logging") {
		t.Errorf("expected suggestion in action, got %s", recs[2].Action)
	}
	for _, rec := range recs {
		if rec.Impact == "" {
			t.Errorf("%s: missing impact", rec.Type)
		}
	}
}

func TestGenerateRecommendationsEmpty(t *testing.T) {
	recs := NewRecommendationGenerator().GenerateRecommendations(models.NewReport("."))
	if len(recs) != 0 {
		t.Errorf("expected none, got %d", len(recs))
	}
}

func TestGetTopRecommendations(t *testing.T) {
	gen := NewRecommendationGenerator()
	recs := gen.GenerateRecommendations(recommendationReport())

	if top := gen.GetTopRecommendations(recs, 2); len(top) != 2 {
		t.Errorf("expected 2, got %d", len(top))
	}
	if top := gen.GetTopRecommendations(recs, 10); len(top) != len(recs) {
		t.Errorf("expected all %d, got %d", len(recs), len(top))
	}
}

func TestGroupBySeverity(t *testing.T) {
	gen := NewRecommendationGenerator()
	grouped := gen.GroupBySeverity(gen.GenerateRecommendations(recommendationReport()))

	if len(grouped[models.SeverityLow]) != 2 {
		t.Errorf("expected 2 low groups, got %d", len(grouped[models.SeverityLow]))
	}
	if len(grouped[models.SeverityMedium]) != 0 {
		t.Errorf("expected no medium groups, got %d", len(grouped[models.SeverityMedium]))
	}
}
