// Package cycle drives the scan and fix loop until the quality gate passes,
// the fixers stop making progress, or the iteration cap is reached.
package cycle

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/pyspectre/internal/models"
	"github.com/ppiankov/pyspectre/internal/policy"
	"go.uber.org/zap"
)

// Defaults for the controller loop.
const (
	DefaultMaxIterations = 10
	DefaultPause         = time.Second
)

// Analyzer produces a fresh report of the code base.
type Analyzer interface {
	Analyze(ctx context.Context) (*models.Report, error)
}

// Fixer applies automatic fixes and returns how many it applied.
type Fixer interface {
	Fix(ctx context.Context) (int, error)
}

// CriticalFixer handles the critical findings of a report.
type CriticalFixer interface {
	FixCritical(ctx context.Context, report *models.Report) (int, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Controller runs the iteration loop. It is single-use per Run call and
// keeps no state between runs.
type Controller struct {
	analyzer      Analyzer
	fixer         Fixer
	critical      CriticalFixer
	policy        *policy.Policy
	maxIterations int
	pause         time.Duration
	sleep         SleepFunc
	logger        *zap.SugaredLogger
	out           io.Writer
	now           func() time.Time
	newID         func() string
}

// Option configures a Controller
type Option func(*Controller)

// WithPolicy sets the quality gate
func WithPolicy(p *policy.Policy) Option {
	return func(c *Controller) {
		c.policy = p
	}
}

// WithMaxIterations caps the number of passes
func WithMaxIterations(n int) Option {
	return func(c *Controller) {
		c.maxIterations = n
	}
}

// WithPause sets the wait between passes
func WithPause(d time.Duration) Option {
	return func(c *Controller) {
		c.pause = d
	}
}

// WithSleep replaces the pause implementation
func WithSleep(fn SleepFunc) Option {
	return func(c *Controller) {
		c.sleep = fn
	}
}

// WithOutput writes the iteration transcript to w
func WithOutput(w io.Writer) Option {
	return func(c *Controller) {
		c.out = w
	}
}

// WithClock overrides the history timestamp source
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithRunID fixes the run identifier
func WithRunID(id string) Option {
	return func(c *Controller) {
		c.newID = func() string { return id }
	}
}

// New creates a controller. critical may be nil, in which case the manual
// step contributes nothing.
func New(analyzer Analyzer, fixer Fixer, critical CriticalFixer, logger *zap.SugaredLogger, opts ...Option) *Controller {
	c := &Controller{
		analyzer:      analyzer,
		fixer:         fixer,
		critical:      critical,
		policy:        policy.Default(),
		maxIterations: DefaultMaxIterations,
		pause:         DefaultPause,
		sleep:         Sleep,
		logger:        logger,
		out:           io.Discard,
		now:           time.Now,
		newID:         uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the loop. On failure the history accumulated so far is
// returned together with the error, with its outcome set to failed.
func (c *Controller) Run(ctx context.Context) (*models.History, error) {
	history := &models.History{
		RunID:     c.newID(),
		StartedAt: c.now().UTC(),
		Outcome:   models.OutcomeRunning,
		History:   []models.IterationRecord{},
	}

	fail := func(err error) (*models.History, error) {
		history.Outcome = models.OutcomeFailed
		c.logger.Errorw("cycle aborted", "run_id", history.RunID, "iteration", history.Iterations, "error", err)
		return history, err
	}

	c.logger.Infow("cycle started", "run_id", history.RunID, "max_iterations", c.maxIterations)

	for iteration := 1; iteration <= c.maxIterations; iteration++ {
		start := time.Now()
		fmt.Fprintf(c.out, "\n=== Iteration %d/%d ===\n", iteration, c.maxIterations)

		report, err := c.analyzer.Analyze(ctx)
		if err != nil {
			return fail(fmt.Errorf("iteration %d: analyze: %w", iteration, err))
		}

		summary := report.Summary()
		record := models.IterationRecord{Iteration: iteration, Summary: summary}
		fmt.Fprintf(c.out, "Issues: %d (critical %d, high %d, medium %d, low %d)\n",
			summary.TotalIssues,
			summary.IssuesBySeverity[models.SeverityCritical],
			summary.IssuesBySeverity[models.SeverityHigh],
			summary.IssuesBySeverity[models.SeverityMedium],
			summary.IssuesBySeverity[models.SeverityLow])

		gate := c.policy.Evaluate(report)
		if gate.Pass {
			record.Duration = time.Since(start)
			c.append(history, record)
			history.Outcome = models.OutcomeQualityMet
			fmt.Fprintln(c.out, "Quality gate passed")
			c.logger.Infow("quality gate passed", "run_id", history.RunID, "iteration", iteration)
			return history, nil
		}
		for _, v := range gate.Violations {
			fmt.Fprintf(c.out, "  gate: %s\n", v.Message)
		}

		fixes, err := c.fixer.Fix(ctx)
		if err != nil {
			c.append(history, record)
			return fail(fmt.Errorf("iteration %d: fix: %w", iteration, err))
		}
		fmt.Fprintf(c.out, "Automatic fixes applied: %d\n", fixes)

		if c.critical != nil {
			manual, err := c.critical.FixCritical(ctx, report)
			if err != nil {
				c.append(history, record)
				return fail(fmt.Errorf("iteration %d: critical fixes: %w", iteration, err))
			}
			fixes += manual
		}

		record.Fixes = fixes
		record.Duration = time.Since(start)
		c.append(history, record)
		c.logger.Debugw("iteration finished", "run_id", history.RunID, "iteration", iteration,
			"issues", summary.TotalIssues, "fixes", fixes, "elapsed", record.Duration)

		if fixes == 0 {
			history.Outcome = models.OutcomeNoProgress
			fmt.Fprintln(c.out, "No fixes applied, stopping")
			return history, nil
		}

		if iteration < c.maxIterations {
			if err := c.sleep(ctx, c.pause); err != nil {
				return fail(err)
			}
		}
	}

	history.Outcome = models.OutcomeCapReached
	fmt.Fprintf(c.out, "Reached the limit of %d iterations\n", c.maxIterations)
	return history, nil
}

func (c *Controller) append(h *models.History, rec models.IterationRecord) {
	h.History = append(h.History, rec)
	h.Iterations = len(h.History)
}
