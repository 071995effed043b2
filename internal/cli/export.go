package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/pyspectre/internal/aggregator"
	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
	exportLastN  int
	exportReport string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export findings for code scanning and spreadsheets",
	Long: `Export findings from stored scan runs, or from a report document.

Supported formats:
  csv    Tabular format for spreadsheets
  json   Structured JSON for programmatic consumption
  sarif  SARIF 2.1.0 for GitHub code scanning

Without stored runs the report document of the last scan is exported.

Example:
  pyspectre export --format csv -o findings.csv
  pyspectre export --format sarif -o results.sarif
  pyspectre export --format json --last 30 -o history.json
  pyspectre export --report pyspectre-report.json --format sarif`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv",
		"output format: csv, json, or sarif")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "",
		"write output to file (default: stdout)")
	exportCmd.Flags().IntVarP(&exportLastN, "last", "n", 1,
		"number of recent stored runs to include")
	exportCmd.Flags().StringVar(&exportReport, "report", "",
		"export this report document instead of stored runs")
}

// ExportRecord is a single row in the export.
type ExportRecord struct {
	RunTimestamp string `json:"run_timestamp"`
	File         string `json:"file"`
	Line         int    `json:"line"`
	Severity     string `json:"severity"`
	Type         string `json:"type"`
	Description  string `json:"description"`
	Suggestion   string `json:"suggestion"`
}

// FindingExport is the full export payload.
type FindingExport struct {
	ExportedAt string         `json:"exported_at"`
	RunCount   int            `json:"run_count"`
	IssueCount int            `json:"issue_count"`
	Records    []ExportRecord `json:"records"`
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "csv" && exportFormat != "json" && exportFormat != "sarif" {
		return &ValidationError{Message: fmt.Sprintf("unsupported format: %s (use csv, json, or sarif)", exportFormat)}
	}

	reports, err := exportSource()
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("No scan results found. Run 'pyspectre scan' first.")
		return nil
	}

	logVerbose("Exporting %d runs", len(reports))

	var writer *os.File
	if exportOutput != "" {
		writer, err = os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = writer.Close() }()
	} else {
		writer = os.Stdout
	}

	switch exportFormat {
	case "csv":
		return writeCSV(writer, buildExport(reports, time.Now()))
	case "json":
		return writeExportJSON(writer, buildExport(reports, time.Now()))
	default:
		return writeSARIF(writer, reports)
	}
}

// exportSource loads the reports to export: an explicit document, else the
// last stored runs, else the report document of the last scan.
func exportSource() ([]*models.Report, error) {
	if exportReport != "" {
		report, err := storage.ReadReport(exportReport)
		if err != nil {
			logError("Failed to load report: %v", err)
			return nil, err
		}
		return []*models.Report{report}, nil
	}

	store, err := openStore(cfg.StorageDir)
	if err != nil {
		logError("Failed to get storage path: %v", err)
		return nil, err
	}
	if reports, err := store.GetLastNRuns(exportLastN); err == nil && len(reports) > 0 {
		return reports, nil
	}

	if _, err := os.Stat(cfg.ReportPath); err != nil {
		return nil, nil
	}
	report, err := storage.ReadReport(cfg.ReportPath)
	if err != nil {
		return nil, err
	}
	return []*models.Report{report}, nil
}

func buildExport(reports []*models.Report, now time.Time) *FindingExport {
	records := []ExportRecord{}

	for _, report := range reports {
		ts := report.GeneratedAt.Format(time.RFC3339)
		norm := aggregator.NewNormalizer(report.ScannedPath)

		for _, f := range report.Issues {
			records = append(records, ExportRecord{
				RunTimestamp: ts,
				File:         norm.Path(f.File),
				Line:         f.Line,
				Severity:     string(f.Severity),
				Type:         f.Type,
				Description:  f.Description,
				Suggestion:   f.Suggestion,
			})
		}
	}

	// Sort by severity (critical first), then file, then line.
	sort.SliceStable(records, func(i, j int) bool {
		si := models.Severity(records[i].Severity).Rank()
		sj := models.Severity(records[j].Severity).Rank()
		if si != sj {
			return si < sj
		}
		if records[i].File != records[j].File {
			return records[i].File < records[j].File
		}
		return records[i].Line < records[j].Line
	})

	return &FindingExport{
		ExportedAt: now.UTC().Format(time.RFC3339),
		RunCount:   len(reports),
		IssueCount: len(records),
		Records:    records,
	}
}

func writeCSV(w io.Writer, export *FindingExport) error {
	writer := csv.NewWriter(w)

	header := []string{
		"run_timestamp", "file", "line", "severity",
		"type", "description", "suggestion",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range export.Records {
		row := []string{
			r.RunTimestamp, r.File, strconv.Itoa(r.Line), r.Severity,
			r.Type, r.Description, r.Suggestion,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeExportJSON(w io.Writer, export *FindingExport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export)
}

// SARIF 2.1.0 output for GitHub code scanning.
// Minimal structures, only what's needed for valid SARIF.

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string             `json:"id"`
	ShortDescription sarifMessage       `json:"shortDescription"`
	Help             *sarifMessage      `json:"help,omitempty"`
	DefaultConfig    sarifDefaultConfig `json:"defaultConfiguration"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysical `json:"physicalLocation"`
}

type sarifPhysical struct {
	ArtifactLocation sarifArtifact `json:"artifactLocation"`
	Region           *sarifRegion  `json:"region,omitempty"`
}

type sarifArtifact struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func writeSARIF(w io.Writer, reports []*models.Report) error {
	rulesMap := map[string]sarifRule{}
	results := []sarifResult{}

	for _, report := range reports {
		norm := aggregator.NewNormalizer(report.ScannedPath)

		for _, f := range report.Issues {
			if _, exists := rulesMap[f.Type]; !exists {
				rule := sarifRule{
					ID:               f.Type,
					ShortDescription: sarifMessage{Text: ruleDescription(f.Type)},
					DefaultConfig:    sarifDefaultConfig{Level: sarifLevel(f.Severity)},
				}
				if f.Suggestion != "" {
					rule.Help = &sarifMessage{Text: f.Suggestion}
				}
				rulesMap[f.Type] = rule
			}

			physical := sarifPhysical{
				ArtifactLocation: sarifArtifact{URI: norm.Path(f.File)},
			}
			// SARIF regions are 1-based; file-level findings carry none.
			if f.Line > 0 {
				physical.Region = &sarifRegion{StartLine: f.Line}
			}

			results = append(results, sarifResult{
				RuleID:    f.Type,
				Level:     sarifLevel(f.Severity),
				Message:   sarifMessage{Text: f.Description},
				Locations: []sarifLocation{{PhysicalLocation: physical}},
			})
		}
	}

	rules := make([]sarifRule, 0, len(rulesMap))
	for _, r := range rulesMap {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	doc := sarifLog{
		Schema:  "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{
				Driver: sarifDriver{
					Name:    "pyspectre",
					Version: buildVersion,
					Rules:   rules,
				},
			},
			Results: results,
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func sarifLevel(severity models.Severity) string {
	switch severity {
	case models.SeverityCritical, models.SeverityHigh:
		return "error"
	case models.SeverityMedium:
		return "warning"
	default:
		return "note"
	}
}

// ruleDescription turns a finding type tag into a short sentence.
func ruleDescription(findingType string) string {
	text := strings.ReplaceAll(findingType, "_", " ")
	if text == "" {
		return text
	}
	return strings.ToUpper(text[:1]) + text[1:]
}
