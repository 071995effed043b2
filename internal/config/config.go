package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for pyspectre
type Config struct {
	// Storage configuration
	StorageDir string `mapstructure:"storage_dir"`

	// Report document written by every scan
	ReportPath string `mapstructure:"report_path"`

	// History document written by the cycle command
	HistoryPath string `mapstructure:"history_path"`

	// Output format (text, json, both)
	Format string `mapstructure:"format"`

	// Cycle settings
	MaxIterations int           `mapstructure:"max_iterations"`
	Timeout       time.Duration `mapstructure:"timeout"`
	Pause         time.Duration `mapstructure:"pause"`
	FixerCommand  string        `mapstructure:"fixer_command"`
	FixLabel      string        `mapstructure:"fix_label"`

	// Number of last runs to analyze
	LastRuns int `mapstructure:"last_runs"`

	// Verbose output
	Verbose bool `mapstructure:"verbose"`

	// Debug mode
	Debug bool `mapstructure:"debug"`
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		StorageDir:    ".pyspectre",
		ReportPath:    "pyspectre-report.json",
		HistoryPath:   "pyspectre-history.json",
		Format:        "text",
		MaxIterations: 10,
		Timeout:       5 * time.Minute,
		Pause:         time.Second,
		FixerCommand:  "",
		FixLabel:      "Fixes applied",
		LastRuns:      7,
		Verbose:       false,
		Debug:         false,
	}
}

// Load loads configuration with the following precedence (lowest to highest):
// 1. Default values
// 2. Config file (./pyspectre.yaml, ~/pyspectre.yaml, $XDG_CONFIG_HOME/pyspectre)
// 3. Environment variables (PYSPECTRE_*), including a local .env file
// 4. CLI flags (handled by caller)
func Load() (*Config, error) {
	return LoadFromFile("")
}

// LoadFromFile loads configuration from a specific file path
// If path is empty, it searches for config in standard locations
func LoadFromFile(configPath string) (*Config, error) {
	// A .env file only fills variables the environment does not already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// Set defaults
	defaults := DefaultConfig()
	v.SetDefault("storage_dir", defaults.StorageDir)
	v.SetDefault("report_path", defaults.ReportPath)
	v.SetDefault("history_path", defaults.HistoryPath)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("max_iterations", defaults.MaxIterations)
	v.SetDefault("timeout", defaults.Timeout)
	v.SetDefault("pause", defaults.Pause)
	v.SetDefault("fixer_command", defaults.FixerCommand)
	v.SetDefault("fix_label", defaults.FixLabel)
	v.SetDefault("last_runs", defaults.LastRuns)
	v.SetDefault("verbose", defaults.Verbose)
	v.SetDefault("debug", defaults.Debug)

	// Set config file settings
	v.SetConfigName("pyspectre")
	v.SetConfigType("yaml")

	if configPath != "" {
		// Use explicit config file path
		v.SetConfigFile(configPath)
	} else {
		// Search for config in standard locations
		// 1. Current directory
		v.AddConfigPath(".")

		// 2. Home directory
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}

		// 3. XDG config directory
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			v.AddConfigPath(filepath.Join(xdgConfig, "pyspectre"))
		}
	}

	// Enable environment variable support
	v.SetEnvPrefix("PYSPECTRE")
	v.AutomaticEnv()

	// Try to read config file (ignore error if not found)
	if err := v.ReadInConfig(); err != nil {
		// Only return error if it's not a "file not found" error
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Unmarshal into config struct
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate format
	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"both": true,
	}
	if !validFormats[c.Format] {
		return fmt.Errorf("invalid format: %s (must be text, json, or both)", c.Format)
	}

	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Pause < 0 {
		return fmt.Errorf("pause cannot be negative")
	}
	if strings.TrimSpace(c.FixLabel) == "" {
		return fmt.Errorf("fix_label cannot be empty")
	}

	// Validate last_runs (must be positive)
	if c.LastRuns <= 0 {
		return fmt.Errorf("last_runs must be positive")
	}

	// Validate paths are not empty
	if c.StorageDir == "" {
		return fmt.Errorf("storage_dir cannot be empty")
	}
	if c.ReportPath == "" {
		return fmt.Errorf("report_path cannot be empty")
	}
	if c.HistoryPath == "" {
		return fmt.Errorf("history_path cannot be empty")
	}

	return nil
}

// GetStoragePath returns the absolute path to the storage directory
func (c *Config) GetStoragePath() (string, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(c.StorageDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, c.StorageDir[2:]), nil
	}

	// Convert to absolute path
	absPath, err := filepath.Abs(c.StorageDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	return absPath, nil
}

// GenerateSampleConfig generates a sample configuration file content
func GenerateSampleConfig() string {
	return `# pyspectre configuration
# Save this file as ./pyspectre.yaml or ~/pyspectre.yaml

# Directory to store scan runs (scan --store)
storage_dir: .pyspectre

# Report and history documents
report_path: pyspectre-report.json
history_path: pyspectre-history.json

# Output format: text, json, or both
format: text

# Iteration controller
max_iterations: 10
timeout: 5m
pause: 1s
# fixer_command: python3 tools/fixer.py
fix_label: "Fixes applied"

# Number of last runs to analyze in summarize command
last_runs: 7

# Enable verbose output
verbose: false

# Enable debug mode
debug: false
`
}
