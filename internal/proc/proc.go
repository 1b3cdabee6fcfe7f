// Package proc runs external commands in their own process group.
package proc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"syscall"
	"time"
)

// waitDelay bounds how long Run waits for output pipes after the process
// group has been killed.
const waitDelay = 5 * time.Second

// Options configures a command invocation.
type Options struct {
	// Command is the executable name or path.
	Command string
	// Args are the command-line arguments.
	Args []string
	// Stdin provides input to the command.
	Stdin io.Reader
	// Dir sets the working directory.
	Dir string
	// Env, when non-nil, replaces the inherited environment.
	Env []string
}

// Result holds the outcome of a completed command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Combined returns stdout followed by stderr.
func (r *Result) Combined() string {
	switch {
	case r.Stdout == "":
		return r.Stderr
	case r.Stderr == "":
		return r.Stdout
	default:
		return r.Stdout + "\n" + r.Stderr
	}
}

// Run executes the command and waits for it to finish. A non-zero exit is
// reported through Result.ExitCode, not as an error. If ctx is cancelled the
// whole process group is killed and ctx.Err() is returned with the partial
// result.
func Run(ctx context.Context, opts Options) (*Result, error) {
	// #nosec G204 - commands come from configuration or the fixed set of generator CLIs.
	cmd := exec.CommandContext(ctx, opts.Command, opts.Args...)
	cmd.Stdin = opts.Stdin
	cmd.Dir = opts.Dir
	if opts.Env != nil {
		cmd.Env = opts.Env
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		// Negative PID targets the group so child processes die with the parent.
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", opts.Command, err)
	}
	waitErr := cmd.Wait()

	res := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	return res, nil
}
