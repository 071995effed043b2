// Package collector loads pyspectre documents from files and directories
// with a bounded pool of workers.
package collector

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/storage"
	"go.uber.org/zap"
)

// Config holds configuration for the collector
type Config struct {
	MaxConcurrency int
	Timeout        time.Duration
}

// Collector loads report documents from many files concurrently
type Collector struct {
	config Config
	logger *zap.SugaredLogger
}

// New creates a new collector with the given configuration
func New(config Config, logger *zap.SugaredLogger) *Collector {
	// Set defaults
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 10
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Collector{
		config: config,
		logger: logger,
	}
}

// Failure records a file that could not be loaded
type Failure struct {
	Path string
	Err  error
}

// Result is the outcome of one collection. Reports are ordered by
// generation time, oldest first.
type Result struct {
	Reports  []*models.Report
	Skipped  []string
	Failures []Failure
}

// CollectFromPaths loads every report document named by paths. Directories
// are searched recursively for .json files. History documents are skipped.
// Partial results are returned unless every file failed.
func (c *Collector) CollectFromPaths(ctx context.Context, paths []string) (*Result, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no paths given")
	}

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to access %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := c.findJSONFiles(p)
		if err != nil {
			return nil, fmt.Errorf("failed to find JSON files: %w", err)
		}
		files = append(files, found...)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no JSON files found in: %v", paths)
	}

	c.logger.Infof("Found %d JSON file(s) to process", len(files))

	// Create context with timeout
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	return c.collectFiles(ctx, files)
}

// findJSONFiles recursively finds all JSON files in a directory
func (c *Collector) findJSONFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-JSON files
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// collectFiles processes files concurrently using a worker pool
func (c *Collector) collectFiles(ctx context.Context, files []string) (*Result, error) {
	// Channels for work distribution and results
	fileCh := make(chan string, len(files))
	resultCh := make(chan *fileResult, len(files))

	workers := c.config.MaxConcurrency
	if workers > len(files) {
		workers = len(files)
	}

	// Start worker pool
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go c.worker(ctx, &wg, fileCh, resultCh)
	}

	for _, file := range files {
		fileCh <- file
	}
	close(fileCh)

	// Wait for workers to finish
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	result := &Result{}
	for res := range resultCh {
		switch {
		case res.err != nil:
			result.Failures = append(result.Failures, Failure{Path: res.file, Err: res.err})
			c.logger.Warnf("Error processing %s: %v", res.file, res.err)
		case res.report == nil:
			result.Skipped = append(result.Skipped, res.file)
			c.logger.Infof("Skipped %s (%s document)", filepath.Base(res.file), res.kind)
		default:
			result.Reports = append(result.Reports, res.report)
			c.logger.Infof("Collected: %s", filepath.Base(res.file))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("collection interrupted: %w", err)
	}

	// Return partial results even if some files failed
	if len(result.Failures) > 0 && len(result.Reports) == 0 && len(result.Skipped) == 0 {
		return nil, fmt.Errorf("all files failed to process (%d errors)", len(result.Failures))
	}

	sort.SliceStable(result.Reports, func(i, j int) bool {
		return result.Reports[i].GeneratedAt.Before(result.Reports[j].GeneratedAt)
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Path < result.Failures[j].Path
	})
	sort.Strings(result.Skipped)

	return result, nil
}

// fileResult holds the result of processing a single file
type fileResult struct {
	file   string
	kind   Kind
	report *models.Report
	err    error
}

// worker processes files from the work channel
func (c *Collector) worker(ctx context.Context, wg *sync.WaitGroup, fileCh <-chan string, resultCh chan<- *fileResult) {
	defer wg.Done()

	for file := range fileCh {
		if ctx.Err() != nil {
			resultCh <- &fileResult{file: file, err: ctx.Err()}
			continue
		}
		resultCh <- c.processFile(file)
	}
}

// processFile reads, classifies and validates a single document
func (c *Collector) processFile(filePath string) *fileResult {
	res := &fileResult{file: filePath}

	data, err := os.ReadFile(filePath)
	if err != nil {
		res.err = fmt.Errorf("failed to read file: %w", err)
		return res
	}

	res.kind = DetectKind(data)
	switch res.kind {
	case KindReport:
		res.report, res.err = storage.ReadReport(filePath)
	case KindHistory:
		// not a scan; nothing to import
	default:
		res.err = fmt.Errorf("not a pyspectre document")
	}
	return res
}
