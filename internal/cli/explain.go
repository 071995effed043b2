package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/pyspectre/internal/aggregator"
	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/policy"
	"github.com/ppiankov/pyspectre/internal/storage"
	"github.com/spf13/cobra"
)

var explainFormat string

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Show how the quality gate and verdict were decided",
	Long: `Explain loads the latest scan and shows step by step how it was judged:

  1. Findings per severity
  2. Each gate rule: its limit, the actual count, pass or fail
  3. The verdict formula and where the scan lands
  4. The finding types contributing most issues

The latest scan is the newest stored run, or the report document when
nothing is stored.`,
	RunE: runExplain,
}

func init() {
	explainCmd.Flags().StringVar(&explainFormat, "format", "text",
		"output format: text or json")
}

// explainResult holds the structured explanation.
type explainResult struct {
	Source           string           `json:"source"`
	Path             string           `json:"path"`
	TotalIssues      int              `json:"total_issues"`
	IssuesBySeverity models.Histogram `json:"issues_by_severity"`
	Rules            []ruleCheck      `json:"rules"`
	GatePassed       bool             `json:"gate_passed"`
	MaxHigh          int              `json:"max_high"`
	Verdict          string           `json:"verdict"`
	Formula          string           `json:"formula"`
	TopTypes         []typeCount      `json:"top_types"`
}

type ruleCheck struct {
	Rule   string `json:"rule"`
	Limit  string `json:"limit"`
	Actual int    `json:"actual"`
	Pass   bool   `json:"pass"`
}

type typeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

func runExplain(cmd *cobra.Command, args []string) error {
	if explainFormat != "text" && explainFormat != "json" {
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use text or json)", explainFormat)}
	}

	report, source, err := loadLatestReport()
	if err != nil {
		return err
	}
	if report == nil {
		return fmt.Errorf("no scan found. Run 'pyspectre scan' first")
	}

	pol, err := loadPolicy()
	if err != nil {
		return err
	}

	result := buildExplanation(report, pol)
	result.Source = source

	if explainFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	return writeExplainText(result)
}

// loadLatestReport returns the newest stored run, else the report document.
// A nil report without error means no scan has run yet.
func loadLatestReport() (*models.Report, string, error) {
	store, err := openStore(cfg.StorageDir)
	if err != nil {
		return nil, "", err
	}

	runs, err := store.ListRuns()
	if err != nil {
		return nil, "", err
	}
	if len(runs) > 0 {
		report, err := store.GetLatestRun()
		if err == nil {
			return report, "stored run", nil
		}
		logVerbose("Latest stored run unreadable: %v", err)
	}

	report, err := storage.ReadReport(cfg.ReportPath)
	if err != nil {
		logDebug("No report document: %v", err)
		return nil, "", nil
	}
	return report, "report document", nil
}

func buildExplanation(report *models.Report, pol *policy.Policy) explainResult {
	summary := report.Summary()
	counts := summary.IssuesBySeverity
	gate := pol.Evaluate(report)

	failed := make(map[string]bool, len(gate.Violations))
	for _, v := range gate.Violations {
		failed[v.Rule] = true
	}

	result := explainResult{
		Path:             report.ScannedPath,
		TotalIssues:      summary.TotalIssues,
		IssuesBySeverity: counts,
		GatePassed:       gate.Pass,
		MaxHigh:          pol.MaxHigh(),
	}

	addLimit := func(rule string, limit *int, actual int) {
		if limit == nil {
			return
		}
		result.Rules = append(result.Rules, ruleCheck{
			Rule:   rule,
			Limit:  fmt.Sprintf("<= %d", *limit),
			Actual: actual,
			Pass:   !failed[rule],
		})
	}
	addLimit("max_issues", pol.Rules.MaxIssues, summary.TotalIssues)
	addLimit("max_critical", pol.Rules.MaxCritical, counts[models.SeverityCritical])
	addLimit("max_high", pol.Rules.MaxHigh, counts[models.SeverityHigh])
	addLimit("max_medium", pol.Rules.MaxMedium, counts[models.SeverityMedium])

	if len(pol.Rules.ForbidCategories) > 0 {
		byType := report.IssuesByType()
		actual := 0
		for _, c := range pol.Rules.ForbidCategories {
			actual += byType[c]
		}
		result.Rules = append(result.Rules, ruleCheck{
			Rule:   "forbid_categories",
			Limit:  "none of " + strings.Join(pol.Rules.ForbidCategories, ", "),
			Actual: actual,
			Pass:   !failed["forbid_categories"],
		})
	}

	verdict := aggregator.Classify(summary, result.MaxHigh)
	result.Verdict = string(verdict)
	result.Formula = fmt.Sprintf("critical = %d, high = %d (excellent below %d)",
		counts[models.SeverityCritical], counts[models.SeverityHigh], result.MaxHigh)

	for typ, n := range report.IssuesByType() {
		result.TopTypes = append(result.TopTypes, typeCount{Type: typ, Count: n})
	}
	sort.Slice(result.TopTypes, func(i, j int) bool {
		if result.TopTypes[i].Count != result.TopTypes[j].Count {
			return result.TopTypes[i].Count > result.TopTypes[j].Count
		}
		return result.TopTypes[i].Type < result.TopTypes[j].Type
	})
	if len(result.TopTypes) > 5 {
		result.TopTypes = result.TopTypes[:5]
	}

	return result
}

func writeExplainText(result explainResult) error {
	fmt.Println("Quality Gate Breakdown")
	fmt.Println("======================")
	fmt.Println()
	fmt.Printf("Scan: %s (%s)\n\n", result.Path, result.Source)

	// Step 1: Severity counts
	fmt.Printf("1. Findings: %d total\n", result.TotalIssues)
	for _, sev := range models.Severities {
		fmt.Printf("   %-10s  %d\n", sev, result.IssuesBySeverity[sev])
	}
	fmt.Println()

	// Step 2: Gate rules
	fmt.Println("2. Gate rules:")
	for _, r := range result.Rules {
		mark := "✓"
		if !r.Pass {
			mark = "✗"
		}
		fmt.Printf("   %s %-18s %-12s actual %d\n", mark, r.Rule, r.Limit, r.Actual)
	}
	if result.GatePassed {
		fmt.Println("   gate: passed")
	} else {
		fmt.Println("   gate: failed")
	}
	fmt.Println()

	// Step 3: Verdict
	fmt.Println("3. Verdict:")
	fmt.Printf("   excellent   critical == 0 and high < %d\n", result.MaxHigh)
	fmt.Printf("   acceptable  critical == 0\n")
	fmt.Printf("   otherwise   critical issues remain\n")
	fmt.Printf("   here: %s\n", result.Formula)
	fmt.Println()

	// Step 4: Top types
	if len(result.TopTypes) > 0 {
		fmt.Println("4. Top finding types:")
		for _, tc := range result.TopTypes {
			fmt.Printf("   %-24s  %d\n", tc.Type, tc.Count)
		}
		fmt.Println()
	}

	fmt.Printf("Result: %s\n", strings.ToUpper(strings.ReplaceAll(result.Verdict, "_", " ")))
	return nil
}
