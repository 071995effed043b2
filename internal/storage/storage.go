package storage

import (
	"time"

	"github.com/ppiankov/pyspectre/internal/models"
)

// Storage defines the interface for persisting scan runs
type Storage interface {
	// SaveReport stores a scan report under its generation time
	SaveReport(report *models.Report) error

	// LoadReport loads the report stored for a specific timestamp
	LoadReport(timestamp time.Time) (*models.Report, error)

	// GetLatestRun retrieves the most recent stored report
	GetLatestRun() (*models.Report, error)

	// GetLastNRuns retrieves the last N stored reports, oldest first
	GetLastNRuns(n int) ([]*models.Report, error)

	// ListRuns returns all available run timestamps
	ListRuns() ([]time.Time, error)
}
