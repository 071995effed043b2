package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/validator"
)

// WriteReport writes a scan report document to path
func WriteReport(path string, report *models.Report) error {
	return writeJSON(path, report)
}

// ReadReport reads and validates a scan report document. A document whose
// severity histogram disagrees with its findings is rejected.
func ReadReport(path string) (*models.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("report not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if err := validator.New().ValidateReport(data); err != nil {
		return nil, err
	}

	report, _, err := models.DecodeReport(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return report, nil
}

// WriteHistory writes a controller history document to path
func WriteHistory(path string, history *models.History) error {
	return writeJSON(path, history)
}

// ReadHistory reads a controller history document
func ReadHistory(path string) (*models.History, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var history models.History
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return &history, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}
