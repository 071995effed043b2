package detector

import (
	"context"
	"regexp"
	"strings"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/source"
)

type linePattern struct {
	re          *regexp.Regexp
	category    string
	description string
}

var insecurePatterns = []linePattern{
	{regexp.MustCompile(`\beval\s*\(`), "eval_usage", "eval() executes arbitrary code"},
	{regexp.MustCompile(`\bexec\s*\(`), "exec_usage", "exec() executes arbitrary code"},
	{regexp.MustCompile(`\bpickle\.loads?\s*\(`), "pickle_usage", "pickle can execute arbitrary code while loading"},
	{regexp.MustCompile(`\bos\.system\s*\(`), "command_injection", "os.system() is open to command injection"},
	{regexp.MustCompile(`\bsubprocess\.\w+\s*\(.*\bshell\s*=\s*True\b`), "shell_injection", "subprocess with shell=True is open to command injection"},
}

// Security reports dynamic evaluation, unsafe deserialization and shell
// command execution, one finding per pattern per line.
type Security struct{}

func (Security) Name() string { return "security" }

func (Security) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	err := eachFile(ctx, set, func(file *source.File) {
		for i, line := range file.Lines {
			for _, p := range insecurePatterns {
				if !p.re.MatchString(line) {
					continue
				}
				findings = append(findings, models.Finding{
					File:        file.Path,
					Line:        i + 1,
					Severity:    models.SeverityCritical,
					Type:        p.category,
					Description: p.description,
					Suggestion:  "Use a safer alternative",
				})
			}
		}
	})
	return findings, err
}

var (
	sqlKeywords      = []string{"SELECT", "INSERT", "UPDATE", "DELETE"}
	sqlInterpolation = []string{`f"`, `f'`, `".format(`, `'.format(`, `% `}
)

// SQLInjection reports execute calls whose query is built by string
// formatting.
type SQLInjection struct{}

func (SQLInjection) Name() string { return "sql-injection" }

func (SQLInjection) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	err := eachFile(ctx, set, func(file *source.File) {
		for i, line := range file.Lines {
			if !isInjectableQuery(line) {
				continue
			}
			findings = append(findings, models.Finding{
				File:        file.Path,
				Line:        i + 1,
				Severity:    models.SeverityCritical,
				Type:        "sql_injection",
				Description: "Possible SQL injection: query built with string formatting",
				Suggestion:  "Use a parameterized query with placeholders",
			})
		}
	})
	return findings, err
}

func isInjectableQuery(line string) bool {
	if !strings.Contains(strings.ToLower(line), "execute") {
		return false
	}
	if !containsAny(line, sqlInterpolation) {
		return false
	}
	return containsAny(line, sqlKeywords)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)password\s*=\s*["'][^"']+["']`),
	regexp.MustCompile(`(?i)api_key\s*=\s*["'][^"']+["']`),
	regexp.MustCompile(`(?i)secret\s*=\s*["'][^"']+["']`),
	regexp.MustCompile(`(?i)token\s*=\s*["'][^"']+["']`),
}

// Secrets reports string literals assigned to credential-like names.
type Secrets struct{}

func (Secrets) Name() string { return "secrets" }

func (Secrets) Detect(ctx context.Context, set *source.Set) ([]models.Finding, error) {
	var findings []models.Finding
	err := eachFile(ctx, set, func(file *source.File) {
		for i, line := range file.Lines {
			for _, re := range secretPatterns {
				if !re.MatchString(line) {
					continue
				}
				findings = append(findings, models.Finding{
					File:        file.Path,
					Line:        i + 1,
					Severity:    models.SeverityCritical,
					Type:        "hardcoded_secret",
					Description: "Possible hardcoded secret",
					Suggestion:  "Read it from an environment variable or a config file",
				})
			}
		}
	})
	return findings, err
}
