// Package build runs the site's production build.
package build

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/richhaase/agentic-site-builder/internal/proc"
)

const (
	// DefaultCommand builds a Next.js project managed by pnpm.
	DefaultCommand = "pnpm run build"
	// DefaultTimeout bounds a single build.
	DefaultTimeout = 5 * time.Minute
)

// Result is the outcome of one build.
type Result struct {
	Success  bool
	ExitCode int
	// Output is stdout followed by stderr.
	Output   string
	TimedOut bool
	Duration time.Duration
}

// Runner builds the site in dir. A failed build is reported through Result;
// the error is reserved for builds that could not run at all.
type Runner interface {
	Run(ctx context.Context, dir string) (*Result, error)
}

// CommandRunner runs a shell-free build command.
type CommandRunner struct {
	command string
	args    []string
	timeout time.Duration
}

// NewCommandRunner parses command into an executable and arguments.
// An empty command selects DefaultCommand and a non-positive timeout
// selects DefaultTimeout.
func NewCommandRunner(command string, timeout time.Duration) (*CommandRunner, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultCommand
	}
	fields := strings.Fields(command)
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CommandRunner{command: fields[0], args: fields[1:], timeout: timeout}, nil
}

// String returns the command line.
func (r *CommandRunner) String() string {
	return strings.Join(append([]string{r.command}, r.args...), " ")
}

// Run executes the build. When the build exceeds its timeout the process
// group is killed and the result is marked TimedOut.
func (r *CommandRunner) Run(ctx context.Context, dir string) (*Result, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := proc.Run(runCtx, proc.Options{Command: r.command, Args: r.args, Dir: dir})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			out := ""
			if res != nil {
				out = res.Combined()
			}
			return &Result{
				ExitCode: -1,
				Output:   strings.TrimSpace(out + fmt.Sprintf("\nbuild timed out after %s", r.timeout)),
				TimedOut: true,
				Duration: r.timeout,
			}, nil
		}
		return nil, fmt.Errorf("failed to run %q: %w", r.String(), err)
	}

	return &Result{
		Success:  res.ExitCode == 0,
		ExitCode: res.ExitCode,
		Output:   res.Combined(),
		Duration: res.Duration,
	}, nil
}
