package discovery

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

// mockLookPath returns a function that resolves only the listed binaries.
func mockLookPath(available map[string]string) LookPathFunc {
	return func(file string) (string, error) {
		if path, ok := available[file]; ok {
			return path, nil
		}
		return "", errors.New("not found")
	}
}

// mockGetenv returns a function that resolves only the listed env vars.
func mockGetenv(vars map[string]string) GetenvFunc {
	return func(key string) string {
		return vars[key]
	}
}

func TestDiscover_NoBinaries(t *testing.T) {
	d := New(mockLookPath(nil), mockGetenv(nil))
	plan := d.Discover(nil)

	if plan.TotalFound != 0 {
		t.Errorf("expected 0 found, got %d", plan.TotalFound)
	}
	if len(plan.Tools) != len(Registry) {
		t.Errorf("expected %d tools, got %d", len(Registry), len(plan.Tools))
	}
	if len(plan.Missing()) != len(Registry) {
		t.Errorf("expected every required tool missing, got %d", len(plan.Missing()))
	}
	for _, td := range plan.Tools {
		if td.Source != SourceDefault {
			t.Errorf("tool %s should use its default binary, got %s", td.Role, td.Source)
		}
	}
}

func TestDiscover_DefaultBinaries(t *testing.T) {
	binaries := map[string]string{
		"pyspectre": "/usr/local/bin/pyspectre",
		"pyfixer":   "/usr/local/bin/pyfixer",
	}
	plan := New(mockLookPath(binaries), mockGetenv(nil)).Discover(nil)

	if plan.TotalFound != 2 {
		t.Errorf("expected 2 found, got %d", plan.TotalFound)
	}
	if len(plan.Missing()) != 0 {
		t.Errorf("expected nothing missing, got %v", plan.Missing())
	}

	cmd, err := plan.Command(RoleFixer)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Binary != "/usr/local/bin/pyfixer" || cmd.Name != "fixer" {
		t.Errorf("unexpected command: %+v", cmd)
	}
}

func TestDiscover_EnvOverride(t *testing.T) {
	binaries := map[string]string{"python3": "/usr/bin/python3"}
	env := map[string]string{"PYSPECTRE_FIXER_COMMAND": "python3 tools/fix.py --apply"}

	plan := New(mockLookPath(binaries), mockGetenv(env)).Discover(nil)
	fixer, ok := plan.Tool(RoleFixer)
	if !ok {
		t.Fatal("fixer missing from plan")
	}
	if fixer.Source != SourceEnv || !fixer.Available {
		t.Errorf("unexpected fixer discovery: %+v", fixer)
	}

	cmd, err := plan.Command(RoleFixer)
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Binary != "/usr/bin/python3" || strings.Join(cmd.Args, " ") != "tools/fix.py --apply" {
		t.Errorf("unexpected command: %+v", cmd)
	}
}

func TestDiscover_FlagBeatsEnv(t *testing.T) {
	binaries := map[string]string{
		"/opt/pyspectre": "/opt/pyspectre",
		"pyfixer":        "/usr/local/bin/pyfixer",
	}
	env := map[string]string{"PYSPECTRE_SCANNER": "other-scanner"}

	plan := New(mockLookPath(binaries), mockGetenv(env)).Discover(map[Role]string{
		RoleScanner: "/opt/pyspectre",
	})
	scanner, _ := plan.Tool(RoleScanner)
	if scanner.Source != SourceFlag || scanner.BinaryPath != "/opt/pyspectre" {
		t.Errorf("unexpected scanner discovery: %+v", scanner)
	}
}

func TestCommand_MissingTool(t *testing.T) {
	plan := New(mockLookPath(nil), mockGetenv(nil)).Discover(nil)

	_, err := plan.Command(RoleFixer)
	if err == nil {
		t.Fatal("expected error for missing fixer")
	}
	if !strings.Contains(err.Error(), "PYSPECTRE_FIXER_COMMAND") {
		t.Errorf("error should name the env var, got %v", err)
	}

	if _, err := plan.Command(Role("linter")); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestDiscover_SortedAndSerializable(t *testing.T) {
	plan := New(mockLookPath(nil), mockGetenv(nil)).Discover(nil)

	for i := 1; i < len(plan.Tools); i++ {
		if plan.Tools[i-1].Role > plan.Tools[i].Role {
			t.Errorf("tools not sorted: %s before %s", plan.Tools[i-1].Role, plan.Tools[i].Role)
		}
	}
	if len(plan.Configs) != len(ConfigFiles) {
		t.Errorf("expected %d config entries, got %d", len(ConfigFiles), len(plan.Configs))
	}

	data, err := json.Marshal(plan)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded DiscoveryPlan
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded.Tools) != len(plan.Tools) {
		t.Errorf("expected %d tools after round trip, got %d", len(plan.Tools), len(decoded.Tools))
	}
}

func TestExpandHome(t *testing.T) {
	if got := expandHome("pyspectre.yaml"); got != "pyspectre.yaml" {
		t.Errorf("relative path changed: %s", got)
	}
	if got := expandHome("~/x.yaml"); strings.HasPrefix(got, "~") {
		t.Errorf("home not expanded: %s", got)
	}
}
