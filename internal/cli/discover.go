package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/ppiankov/pyspectre/internal/discovery"
	"github.com/spf13/cobra"
)

var (
	discoverFormat string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Show the scanner and fixer commands the cycle would run",
	Long: `Discover resolves the command line for each external tool the cycle
command drives, checks that its executable is installed, and lists the
config files pyspectre would read.

Command lines come from, in order: the cycle flags or config file, the
PYSPECTRE_SCANNER / PYSPECTRE_FIXER_COMMAND environment variables, and
the default executable names.

This is a read-only operation — no tools are executed.`,
	RunE: runDiscover,
}

func init() {
	discoverCmd.Flags().StringVar(&discoverFormat, "format", "text",
		"output format: text or json")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	d := discovery.New(exec.LookPath, os.Getenv)
	plan := d.Discover(cycleOverrides())

	switch discoverFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	case "text":
		printDiscoveryText(plan)
		return nil
	default:
		return &ValidationError{Message: fmt.Sprintf("invalid format: %s (must be text or json)", discoverFormat)}
	}
}

func printDiscoveryText(plan *discovery.DiscoveryPlan) {
	fmt.Printf("Discovered %d of %d tool(s)\n\n", plan.TotalFound, len(plan.Tools))

	for _, td := range plan.Tools {
		status := "✗ not found"
		if td.Available {
			status = "✓ ready"
		}

		fmt.Printf("  %-10s  %s\n", td.Role, status)
		fmt.Printf("              command: %s (%s)\n", td.Command, td.Source)

		if td.Available {
			fmt.Printf("              path: %s\n", td.BinaryPath)
		} else if info, ok := discovery.Registry[td.Role]; ok {
			fmt.Printf("              set: %s\n", info.EnvVar)
		}

		fmt.Println()
	}

	var found []string
	for _, c := range plan.Configs {
		if c.Exists {
			found = append(found, c.Path)
		}
	}
	if len(found) > 0 {
		fmt.Printf("Config files: %s\n", strings.Join(found, ", "))
	} else {
		fmt.Println("Config files: none (using defaults)")
	}

	if missing := plan.Missing(); len(missing) > 0 {
		fmt.Println()
		fmt.Println("The cycle command needs every tool above. 'pyspectre scan' works without them.")
	}
}
