// Package domain provides core types for the site builder.
package domain

// ExitCode represents the exit status of the CLI.
type ExitCode int

const (
	// ExitSuccess indicates the job produced a site that builds.
	ExitSuccess ExitCode = 0
	// ExitJobFailed indicates the job ran to completion but the site could not be built.
	ExitJobFailed ExitCode = 1
	// ExitError indicates the command failed before or outside of a job.
	ExitError ExitCode = 2
	// ExitInterrupted indicates the job was interrupted by a signal.
	ExitInterrupted ExitCode = 130
)

// Int returns the exit code as an int for use with os.Exit.
func (e ExitCode) Int() int {
	return int(e)
}

// ExitCodeForStatus maps a terminal job status to a process exit code.
func ExitCodeForStatus(s JobStatus) ExitCode {
	switch s {
	case StatusSucceeded:
		return ExitSuccess
	case StatusFailed, StatusPartial:
		return ExitJobFailed
	default:
		return ExitError
	}
}
