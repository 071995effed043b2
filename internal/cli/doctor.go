package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ppiankov/pyspectre/internal/detector"
	"github.com/ppiankov/pyspectre/internal/discovery"
	"github.com/ppiankov/pyspectre/internal/policy"
	"github.com/ppiankov/pyspectre/internal/pyparse"
	"github.com/ppiankov/pyspectre/internal/validator"
	"github.com/spf13/cobra"
)

var doctorFormat string

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check environment readiness and diagnose common problems",
	Long: `Doctor validates your pyspectre setup end-to-end:

  1. Config file — found and readable?
  2. Policy — quality gate file valid?
  3. Parser — Python grammar loaded?
  4. Scanner and fixer — executables found for the cycle command?
  5. Storage — directory writable?
  6. Report — last report document well-formed?

Fix the issues it reports, then run 'pyspectre cycle' with confidence.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFormat, "format", "text",
		"output format: text or json")
}

type doctorCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"` // "ok", "warn", "fail"
	Detail string `json:"detail,omitempty"`
}

type doctorResult struct {
	Checks  []doctorCheck `json:"checks"`
	Summary string        `json:"summary"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	var checks []doctorCheck

	// 1. Config file
	checks = append(checks, checkConfig())

	// 2. Policy file
	checks = append(checks, checkPolicy())

	// 3. Parser and detectors
	checks = append(checks, checkParser())

	// 4. Scanner and fixer
	checks = append(checks, checkTools()...)

	// 5. Storage directory
	checks = append(checks, checkStorage())

	// 6. Report document
	checks = append(checks, checkReport())

	// Build summary
	fails, warns := 0, 0
	for _, c := range checks {
		switch c.Status {
		case "fail":
			fails++
		case "warn":
			warns++
		}
	}

	summary := "all checks passed"
	if fails > 0 {
		summary = fmt.Sprintf("%d issue(s) found", fails)
	} else if warns > 0 {
		summary = fmt.Sprintf("ok with %d warning(s)", warns)
	}

	result := doctorResult{Checks: checks, Summary: summary}

	if doctorFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	return writeDoctorText(result)
}

func writeDoctorText(result doctorResult) error {
	icons := map[string]string{
		"ok":   "✓",
		"warn": "△",
		"fail": "✗",
	}

	for _, c := range result.Checks {
		icon := icons[c.Status]
		if c.Detail != "" {
			fmt.Printf("  %s %-20s %s\n", icon, c.Name, c.Detail)
		} else {
			fmt.Printf("  %s %s\n", icon, c.Name)
		}
	}

	fmt.Printf("\n%s\n", result.Summary)
	return nil
}

func checkConfig() doctorCheck {
	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return doctorCheck{
				Name:   "config",
				Status: "fail",
				Detail: fmt.Sprintf("%s not readable: %v", configFile, err),
			}
		}
		return doctorCheck{Name: "config", Status: "ok", Detail: configFile}
	}

	plan := discovery.New(exec.LookPath, os.Getenv).Discover(nil)
	for _, c := range plan.Configs {
		if c.Exists && strings.HasSuffix(c.Path, "pyspectre.yaml") {
			return doctorCheck{Name: "config", Status: "ok", Detail: c.Path}
		}
	}

	return doctorCheck{
		Name:   "config",
		Status: "warn",
		Detail: "no config file found (using defaults)",
	}
}

func checkPolicy() doctorCheck {
	path := policy.FindPolicyFile()
	if path == "" {
		return doctorCheck{
			Name:   "policy",
			Status: "ok",
			Detail: fmt.Sprintf("built-in gate (critical <= %d, high <= %d)", policy.DefaultMaxCritical, policy.DefaultMaxHigh),
		}
	}

	if _, err := policy.LoadFromFile(path); err != nil {
		return doctorCheck{
			Name:   "policy",
			Status: "fail",
			Detail: fmt.Sprintf("%s: %v", path, err),
		}
	}

	return doctorCheck{Name: "policy", Status: "ok", Detail: path}
}

func checkParser() doctorCheck {
	if _, err := pyparse.Parse(context.Background(), []byte("def ok():\n    return 1\n")); err != nil {
		return doctorCheck{
			Name:   "parser",
			Status: "fail",
			Detail: fmt.Sprintf("python grammar unusable: %v", err),
		}
	}

	return doctorCheck{
		Name:   "parser",
		Status: "ok",
		Detail: fmt.Sprintf("%d detectors ready", len(detector.Registry)),
	}
}

func checkTools() []doctorCheck {
	d := discovery.New(exec.LookPath, os.Getenv)
	plan := d.Discover(cycleOverrides())

	var checks []doctorCheck

	for _, td := range plan.Tools {
		c := doctorCheck{Name: string(td.Role)}

		switch {
		case td.Available:
			c.Status = "ok"
			c.Detail = fmt.Sprintf("%s (%s)", td.BinaryPath, td.Source)
		case td.Binary == "":
			c.Status = "warn"
			c.Detail = "empty command line"
		default:
			info := discovery.Registry[td.Role]
			c.Status = "warn"
			c.Detail = fmt.Sprintf("%q not found. Set %s or pass --%s to cycle", td.Binary, info.EnvVar, td.Role)
		}

		checks = append(checks, c)
	}

	if missing := plan.Missing(); len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for _, td := range missing {
			names = append(names, string(td.Role))
		}
		checks = append(checks, doctorCheck{
			Name:   "cycle",
			Status: "warn",
			Detail: fmt.Sprintf("cycle unavailable (missing: %s); scan still works", joinMax(names, 3)),
		})
	}

	return checks
}

func checkStorage() doctorCheck {
	storagePath := cfg.StorageDir
	if storagePath == "" {
		storagePath = ".pyspectre"
	}

	// Check if directory exists and is writable
	info, err := os.Stat(storagePath)
	if err != nil {
		// Not created yet; the first --store creates it
		return doctorCheck{
			Name:   "storage",
			Status: "ok",
			Detail: fmt.Sprintf("%s (will be created on first --store)", storagePath),
		}
	}

	if !info.IsDir() {
		return doctorCheck{
			Name:   "storage",
			Status: "fail",
			Detail: fmt.Sprintf("%s exists but is not a directory", storagePath),
		}
	}

	// Try writing a temp file to check write access
	tmpFile := filepath.Join(storagePath, ".doctor-check")
	if err := os.WriteFile(tmpFile, []byte("ok"), 0600); err != nil {
		return doctorCheck{
			Name:   "storage",
			Status: "fail",
			Detail: fmt.Sprintf("%s not writable: %v", storagePath, err),
		}
	}
	_ = os.Remove(tmpFile)

	return doctorCheck{
		Name:   "storage",
		Status: "ok",
		Detail: storagePath,
	}
}

func checkReport() doctorCheck {
	data, err := os.ReadFile(cfg.ReportPath)
	if err != nil {
		return doctorCheck{
			Name:   "report",
			Status: "ok",
			Detail: fmt.Sprintf("%s (written by the first scan)", cfg.ReportPath),
		}
	}

	if err := validator.New().ValidateReport(data); err != nil {
		return doctorCheck{
			Name:   "report",
			Status: "fail",
			Detail: fmt.Sprintf("%s is malformed. Run: pyspectre validate %s", cfg.ReportPath, cfg.ReportPath),
		}
	}

	return doctorCheck{Name: "report", Status: "ok", Detail: cfg.ReportPath}
}

// joinMax joins up to n strings with ", ".
func joinMax(s []string, n int) string {
	if len(s) <= n {
		return strings.Join(s, ", ")
	}
	return fmt.Sprintf("%s +%d more", strings.Join(s[:n], ", "), len(s)-n)
}
