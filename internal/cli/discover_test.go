package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/pyspectre/internal/discovery"
)

// fakeLookPath resolves only the named binaries, under /usr/bin.
func fakeLookPath(found ...string) discovery.LookPathFunc {
	return func(file string) (string, error) {
		for _, f := range found {
			if f == file {
				return "/usr/bin/" + file, nil
			}
		}
		return "", errors.New("not found")
	}
}

func noEnv(string) string { return "" }

func TestPrintDiscoveryTextReady(t *testing.T) {
	plan := discovery.New(fakeLookPath("pyspectre", "pyfixer"), noEnv).Discover(nil)

	output := captureStdout(t, func() {
		printDiscoveryText(plan)
	})

	if !strings.Contains(output, "Discovered 2 of 2 tool(s)") {
		t.Errorf("missing summary line:\n%s", output)
	}
	if !strings.Contains(output, "✓ ready") {
		t.Error("missing ready status")
	}
	if !strings.Contains(output, "path: /usr/bin/pyfixer") {
		t.Error("missing fixer path")
	}
	if strings.Contains(output, "needs every tool") {
		t.Error("unexpected missing-tools note")
	}
}

func TestPrintDiscoveryTextMissing(t *testing.T) {
	plan := discovery.New(fakeLookPath("pyspectre"), noEnv).Discover(nil)

	output := captureStdout(t, func() {
		printDiscoveryText(plan)
	})

	if !strings.Contains(output, "✗ not found") {
		t.Error("missing not-found status")
	}
	if !strings.Contains(output, "set: PYSPECTRE_FIXER_COMMAND") {
		t.Error("missing env var hint")
	}
	if !strings.Contains(output, "'pyspectre scan' works without them") {
		t.Error("missing note about scan")
	}
}

func TestPrintDiscoveryTextOverride(t *testing.T) {
	plan := discovery.New(fakeLookPath("python3"), noEnv).Discover(map[discovery.Role]string{
		discovery.RoleFixer: "python3 tools/fix.py --all",
	})

	output := captureStdout(t, func() {
		printDiscoveryText(plan)
	})

	if !strings.Contains(output, "command: python3 tools/fix.py --all (flag)") {
		t.Errorf("missing override command:\n%s", output)
	}
}

func TestRunDiscoverInvalidFormat(t *testing.T) {
	withTestConfig(t, testConfig(t))
	old := discoverFormat
	discoverFormat = "xml"
	t.Cleanup(func() { discoverFormat = old })

	err := runDiscover(nil, nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
