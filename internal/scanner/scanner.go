// Package scanner runs the detector registry over a source tree and builds
// the resulting report.
package scanner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ppiankov/pyspectre/internal/detector"
	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/source"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Scanner runs an ordered list of detectors over a file set
type Scanner struct {
	fs        afero.Fs
	detectors []detector.Detector
	logger    *zap.SugaredLogger
	progress  io.Writer
	now       func() time.Time
}

// Option configures a Scanner
type Option func(*Scanner)

// WithDetectors replaces the default registry
func WithDetectors(detectors []detector.Detector) Option {
	return func(s *Scanner) {
		s.detectors = detectors
	}
}

// WithProgress writes a per-detector transcript to w
func WithProgress(w io.Writer) Option {
	return func(s *Scanner) {
		s.progress = w
	}
}

// WithClock overrides the report timestamp source
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) {
		s.now = now
	}
}

// New creates a scanner over fs
func New(fs afero.Fs, logger *zap.SugaredLogger, opts ...Option) *Scanner {
	s := &Scanner{
		fs:        fs,
		detectors: detector.Registry,
		logger:    logger,
		progress:  io.Discard,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan discovers the Python files under root and runs every detector over
// them in order. Only an unusable root is fatal: a failing detector is
// logged and the scan continues with the findings collected so far.
func (s *Scanner) Scan(ctx context.Context, root string) (*models.Report, error) {
	set, err := source.Discover(s.fs, root)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("discovered source files", "root", root, "files", set.Len(), "lines", set.TotalLines())
	fmt.Fprintf(s.progress, "Analyzing %d Python files under %s\n\n", set.Len(), root)

	report := models.NewReport(root)
	report.FilesAnalyzed = set.Len()
	report.TotalLines = set.TotalLines()

	for i, d := range s.detectors {
		start := time.Now()
		findings, err := s.runDetector(ctx, d, set)
		report.Add(findings...)

		if err != nil {
			s.logger.Errorw("detector failed", "detector", d.Name(), "error", err, "kept", len(findings))
			fmt.Fprintf(s.progress, "  [%2d/%d] %-18s error: %v\n", i+1, len(s.detectors), d.Name(), err)
			continue
		}

		s.logger.Debugw("detector finished", "detector", d.Name(), "findings", len(findings), "elapsed", time.Since(start))
		fmt.Fprintf(s.progress, "  [%2d/%d] %-18s %d issue(s)\n", i+1, len(s.detectors), d.Name(), len(findings))
	}

	report.GeneratedAt = s.now().UTC()
	return report, nil
}

// runDetector converts a panicking detector into an error.
func (s *Scanner) runDetector(ctx context.Context, d detector.Detector, set *source.Set) (findings []models.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detector %s panicked: %v", d.Name(), r)
		}
	}()
	return d.Detect(ctx, set)
}
