package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/pyspectre/internal/models"
)

// LocalStorage implements Storage interface using local filesystem
type LocalStorage struct {
	baseDir string
}

// NewLocal creates a new local storage instance
func NewLocal(baseDir string) *LocalStorage {
	return &LocalStorage{
		baseDir: baseDir,
	}
}

// runSuffix names stored scan reports: 2006-01-02T15-04-05-report.json
const runSuffix = "-report.json"

// SaveReport stores a scan report under runs/, named by its generation time
func (s *LocalStorage) SaveReport(report *models.Report) error {
	// Create runs directory
	runsDir := filepath.Join(s.baseDir, "runs")
	if err := os.MkdirAll(runsDir, 0755); err != nil {
		return fmt.Errorf("failed to create runs directory: %w", err)
	}

	// Generate filename with timestamp
	filename := s.formatTimestamp(report.GeneratedAt) + runSuffix
	path := filepath.Join(runsDir, filename)

	return writeJSON(path, report)
}

// LoadReport loads a report from a specific timestamp
func (s *LocalStorage) LoadReport(timestamp time.Time) (*models.Report, error) {
	filename := s.formatTimestamp(timestamp) + runSuffix
	path := filepath.Join(s.baseDir, "runs", filename)

	return ReadReport(path)
}

// GetLatestRun retrieves the most recent stored report
func (s *LocalStorage) GetLatestRun() (*models.Report, error) {
	timestamps, err := s.ListRuns()
	if err != nil {
		return nil, err
	}

	if len(timestamps) == 0 {
		return nil, fmt.Errorf("no runs found")
	}

	// Get the latest timestamp
	latest := timestamps[len(timestamps)-1]
	return s.LoadReport(latest)
}

// GetLastNRuns retrieves the last N stored reports
func (s *LocalStorage) GetLastNRuns(n int) ([]*models.Report, error) {
	timestamps, err := s.ListRuns()
	if err != nil {
		return nil, err
	}

	if len(timestamps) == 0 {
		return nil, fmt.Errorf("no runs found")
	}

	// Get the last N timestamps
	start := len(timestamps) - n
	if start < 0 {
		start = 0
	}

	selectedTimestamps := timestamps[start:]
	reports := make([]*models.Report, 0, len(selectedTimestamps))

	for _, timestamp := range selectedTimestamps {
		report, err := s.LoadReport(timestamp)
		if err != nil {
			// Skip reports that fail to load but continue with others
			continue
		}
		reports = append(reports, report)
	}

	return reports, nil
}

// ListRuns returns all available run timestamps sorted chronologically
func (s *LocalStorage) ListRuns() ([]time.Time, error) {
	runsDir := filepath.Join(s.baseDir, "runs")

	// Check if directory exists
	if _, err := os.Stat(runsDir); os.IsNotExist(err) {
		return []time.Time{}, nil
	}

	// Read directory
	entries, err := os.ReadDir(runsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs directory: %w", err)
	}

	var timestamps []time.Time

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// Only process stored scan reports
		if !strings.HasSuffix(entry.Name(), runSuffix) {
			continue
		}

		// Parse timestamp from filename
		// Format: 2006-01-02T15-04-05-report.json
		timestampStr := strings.TrimSuffix(entry.Name(), runSuffix)
		timestamp, err := s.parseTimestamp(timestampStr)
		if err != nil {
			// Skip files with invalid timestamp format
			continue
		}

		timestamps = append(timestamps, timestamp)
	}

	// Sort chronologically
	sort.Slice(timestamps, func(i, j int) bool {
		return timestamps[i].Before(timestamps[j])
	})

	return timestamps, nil
}

// formatTimestamp converts a time.Time to filename-safe format
func (s *LocalStorage) formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02T15-04-05")
}

// parseTimestamp converts filename format back to time.Time
func (s *LocalStorage) parseTimestamp(str string) (time.Time, error) {
	return time.Parse("2006-01-02T15-04-05", str)
}

// GetStoragePath returns the full path to the storage directory
func (s *LocalStorage) GetStoragePath() string {
	return s.baseDir
}

// EnsureDirectoryExists creates the storage directory if it doesn't exist
func (s *LocalStorage) EnsureDirectoryExists() error {
	return os.MkdirAll(filepath.Join(s.baseDir, "runs"), 0755)
}
