package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/ppiankov/pyspectre/internal/models"
	"gopkg.in/yaml.v3"
)

// Default quality gate limits.
const (
	DefaultMaxCritical = 0
	DefaultMaxHigh     = 10
)

// FileNames are the policy file names searched for, in order.
var FileNames = []string{".pyspectre-policy.yaml", ".pyspectre-policy.yml"}

// Policy defines the quality gate a report must satisfy.
type Policy struct {
	Version string `yaml:"version"`
	Rules   Rules  `yaml:"rules"`
}

// Rules contains all configurable gate rules. Nil limits are not enforced.
type Rules struct {
	MaxIssues        *int     `yaml:"max_issues,omitempty"`
	MaxCritical      *int     `yaml:"max_critical,omitempty"`
	MaxHigh          *int     `yaml:"max_high,omitempty"`
	MaxMedium        *int     `yaml:"max_medium,omitempty"`
	ForbidCategories []string `yaml:"forbid_categories,omitempty"`
}

// Violation is a single policy failure.
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Result holds the outcome of a policy check.
type Result struct {
	Pass       bool        `json:"pass"`
	Violations []Violation `json:"violations"`
}

// Default returns the built-in gate: no critical findings and at most ten
// high findings.
func Default() *Policy {
	maxCritical, maxHigh := DefaultMaxCritical, DefaultMaxHigh
	return &Policy{
		Version: "1",
		Rules: Rules{
			MaxCritical: &maxCritical,
			MaxHigh:     &maxHigh,
		},
	}
}

// LoadFromFile reads a policy file on top of the defaults, so a file only
// needs the rules it changes. A missing file yields the defaults.
func LoadFromFile(path string) (*Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return nil, fmt.Errorf("read policy: %w", err)
	}

	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse policy: %w", err)
	}

	return p, nil
}

// FindPolicyFile searches for a policy file in the current directory
// and parent directories up to the filesystem root.
func FindPolicyFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return findFrom(dir)
}

func findFrom(dir string) string {
	for {
		for _, name := range FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// MaxHigh returns the enforced high limit, or the default when unset.
func (p *Policy) MaxHigh() int {
	if p == nil || p.Rules.MaxHigh == nil {
		return DefaultMaxHigh
	}
	return *p.Rules.MaxHigh
}

// Evaluate checks a scan report against the policy rules.
func (p *Policy) Evaluate(report *models.Report) *Result {
	if p == nil {
		return &Result{Pass: true}
	}

	var violations []Violation
	counts := report.IssuesBySeverity()

	// max_issues
	if p.Rules.MaxIssues != nil {
		if total := len(report.Issues); total > *p.Rules.MaxIssues {
			violations = append(violations, Violation{
				Rule:    "max_issues",
				Message: fmt.Sprintf("total issues %d exceeds limit %d", total, *p.Rules.MaxIssues),
			})
		}
	}

	limits := []struct {
		rule  string
		sev   models.Severity
		limit *int
	}{
		{"max_critical", models.SeverityCritical, p.Rules.MaxCritical},
		{"max_high", models.SeverityHigh, p.Rules.MaxHigh},
		{"max_medium", models.SeverityMedium, p.Rules.MaxMedium},
	}
	for _, l := range limits {
		if l.limit == nil {
			continue
		}
		if count := counts[l.sev]; count > *l.limit {
			violations = append(violations, Violation{
				Rule:    l.rule,
				Message: fmt.Sprintf("%s issues %d exceeds limit %d", l.sev, count, *l.limit),
			})
		}
	}

	// forbid_categories
	if len(p.Rules.ForbidCategories) > 0 {
		byType := report.IssuesByType()
		forbidden := append([]string(nil), p.Rules.ForbidCategories...)
		sort.Strings(forbidden)
		for _, cat := range forbidden {
			if count := byType[cat]; count > 0 {
				violations = append(violations, Violation{
					Rule:    "forbid_categories",
					Message: fmt.Sprintf("forbidden category %q has %d issues", cat, count),
				})
			}
		}
	}

	return &Result{
		Pass:       len(violations) == 0,
		Violations: violations,
	}
}
