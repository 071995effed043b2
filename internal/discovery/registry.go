package discovery

// Role is the part an external tool plays in the cycle.
type Role string

const (
	RoleScanner Role = "scanner"
	RoleFixer   Role = "fixer"
)

// ToolInfo describes how to locate the tool for a role.
type ToolInfo struct {
	Binary   string // default executable name (looked up in PATH)
	EnvVar   string // env var holding a full command line override
	Required bool   // the cycle cannot run without it
}

// Registry is the single source of truth for the tools the cycle invokes.
var Registry = map[Role]ToolInfo{
	RoleScanner: {
		Binary:   "pyspectre",
		EnvVar:   "PYSPECTRE_SCANNER",
		Required: true,
	},
	RoleFixer: {
		Binary:   "pyfixer",
		EnvVar:   "PYSPECTRE_FIXER_COMMAND",
		Required: true,
	},
}

// ConfigFiles are the files whose presence doctor reports.
var ConfigFiles = []string{
	"pyspectre.yaml",
	"~/.config/pyspectre/pyspectre.yaml",
	".pyspectre-policy.yaml",
	".env",
}
