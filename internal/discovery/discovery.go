package discovery

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/pyspectre/internal/runner"
)

// LookPathFunc matches the signature of exec.LookPath.
type LookPathFunc func(file string) (string, error)

// GetenvFunc matches the signature of os.Getenv.
type GetenvFunc func(key string) string

// Discoverer probes the local environment to find the scanner and fixer
// executables. Injectable deps make it fully testable.
type Discoverer struct {
	lookPath LookPathFunc
	getenv   GetenvFunc
}

// New creates a Discoverer with the given dependency functions.
func New(lookPath LookPathFunc, getenv GetenvFunc) *Discoverer {
	return &Discoverer{
		lookPath: lookPath,
		getenv:   getenv,
	}
}

// Source says where a tool's command line came from.
type Source string

const (
	SourceFlag    Source = "flag"
	SourceEnv     Source = "env"
	SourceDefault Source = "default"
)

// ToolDiscovery describes what was found for a single role.
type ToolDiscovery struct {
	Role       Role     `json:"role"`
	Command    string   `json:"command"`
	Source     Source   `json:"source"`
	Binary     string   `json:"binary"`
	Args       []string `json:"args,omitempty"`
	BinaryPath string   `json:"binary_path"`
	Available  bool     `json:"available"`
	Required   bool     `json:"required"`
}

// ConfigStatus tracks whether a config file exists.
type ConfigStatus struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// DiscoveryPlan is the complete result of a discovery scan.
type DiscoveryPlan struct {
	Tools      []ToolDiscovery `json:"tools"`
	Configs    []ConfigStatus  `json:"configs"`
	TotalFound int             `json:"total_found"`
}

// Discover resolves a command line for every role and checks that its
// executable exists. A non-empty override for a role wins over the role's
// env var, which wins over the default binary name. No process is started.
func (d *Discoverer) Discover(overrides map[Role]string) *DiscoveryPlan {
	plan := &DiscoveryPlan{}

	for role, info := range Registry {
		td := ToolDiscovery{
			Role:     role,
			Required: info.Required,
		}

		switch {
		case strings.TrimSpace(overrides[role]) != "":
			td.Command, td.Source = overrides[role], SourceFlag
		case info.EnvVar != "" && strings.TrimSpace(d.getenv(info.EnvVar)) != "":
			td.Command, td.Source = d.getenv(info.EnvVar), SourceEnv
		default:
			td.Command, td.Source = info.Binary, SourceDefault
		}

		if bin, args, err := runner.ParseCommandLine(td.Command); err == nil {
			td.Binary, td.Args = bin, args
			// Check if binary exists in PATH
			if path, err := d.lookPath(bin); err == nil {
				td.Available = true
				td.BinaryPath = path
			}
		}

		plan.Tools = append(plan.Tools, td)
		if td.Available {
			plan.TotalFound++
		}
	}

	for _, cfgPath := range ConfigFiles {
		plan.Configs = append(plan.Configs, ConfigStatus{
			Path:   cfgPath,
			Exists: fileExists(expandHome(cfgPath)),
		})
	}

	// Sort tools by role name for deterministic output
	sort.Slice(plan.Tools, func(i, j int) bool {
		return plan.Tools[i].Role < plan.Tools[j].Role
	})

	return plan
}

// Tool returns the discovery result for role.
func (p *DiscoveryPlan) Tool(role Role) (ToolDiscovery, bool) {
	for _, t := range p.Tools {
		if t.Role == role {
			return t, true
		}
	}
	return ToolDiscovery{}, false
}

// Missing returns the required tools whose executable was not found.
func (p *DiscoveryPlan) Missing() []ToolDiscovery {
	var missing []ToolDiscovery
	for _, t := range p.Tools {
		if t.Required && !t.Available {
			missing = append(missing, t)
		}
	}
	return missing
}

// Command builds a runnable command for role.
func (p *DiscoveryPlan) Command(role Role) (runner.Command, error) {
	t, ok := p.Tool(role)
	if !ok {
		return runner.Command{}, fmt.Errorf("unknown tool role %q", role)
	}
	if !t.Available {
		return runner.Command{}, fmt.Errorf("%s not found: %q (set %s or pass a command)", role, t.Binary, Registry[role].EnvVar)
	}
	return runner.Command{
		Name:   string(role),
		Binary: t.BinaryPath,
		Args:   append([]string(nil), t.Args...),
	}, nil
}

// expandHome replaces a leading ~/ with the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// fileExists checks if a file exists (not a directory).
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
