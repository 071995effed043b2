package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/google/shlex"
)

// DefaultTimeout is the per-invocation execution timeout.
const DefaultTimeout = 5 * time.Minute

// ExecFunc is the signature for running a command and capturing stdout.
// It receives the context, binary path, and args. Returns stdout bytes and error.
type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecCommand runs a real process and captures its stdout.
func ExecCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	c := exec.CommandContext(ctx, name, args...)
	return c.Output()
}

// Command describes a single process invocation.
type Command struct {
	Name    string // label used in errors and logs, e.g. "scanner"
	Binary  string
	Args    []string
	Timeout time.Duration
}

// String renders the command line.
func (c Command) String() string {
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

// Result is the outcome of a successful invocation.
type Result struct {
	Name     string        `json:"name"`
	Binary   string        `json:"binary"`
	Stdout   []byte        `json:"-"`
	Duration time.Duration `json:"duration"`
}

// TimeoutError means the process was killed after exceeding its timeout.
type TimeoutError struct {
	Name    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Name, e.Timeout)
}

// ExitError means the process ran and exited non-zero.
type ExitError struct {
	Name   string
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Name, e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// Runner executes external commands with a hard per-invocation timeout.
type Runner struct {
	execFn ExecFunc
}

// New creates a Runner with the given exec function.
func New(execFn ExecFunc) *Runner {
	return &Runner{
		execFn: execFn,
	}
}

// Run executes cmd and blocks until it exits or its timeout expires. A
// timeout kills the process and is returned as a *TimeoutError; it is
// never retried.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	timeout := cmd.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	name := cmd.Name
	if name == "" {
		name = cmd.Binary
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	stdout, err := r.execFn(runCtx, cmd.Binary, cmd.Args...)
	duration := time.Since(start)

	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, &TimeoutError{Name: name, Timeout: timeout}
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ExitError{
				Name:   name,
				Code:   exitErr.ExitCode(),
				Stderr: lastLine(exitErr.Stderr),
			}
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &Result{
		Name:     name,
		Binary:   cmd.Binary,
		Stdout:   stdout,
		Duration: duration,
	}, nil
}

// ParseCommandLine splits a configured command line into binary and args
// using shell quoting rules.
func ParseCommandLine(line string) (string, []string, error) {
	fields, err := shlex.Split(line)
	if err != nil {
		return "", nil, fmt.Errorf("parse command %q: %w", line, err)
	}
	if len(fields) == 0 {
		return "", nil, errors.New("empty command")
	}
	return fields[0], fields[1:], nil
}

func lastLine(stderr []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
