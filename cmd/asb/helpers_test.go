package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/orchestrator"
)

func TestExitCode(t *testing.T) {
	if err := exitCode(domain.ExitSuccess); err != nil {
		t.Errorf("exitCode(ExitSuccess) = %v, want nil", err)
	}

	for _, code := range []domain.ExitCode{domain.ExitJobFailed, domain.ExitError, domain.ExitInterrupted} {
		err := exitCode(code)
		var exitErr exitCodeError
		if !errors.As(err, &exitErr) {
			t.Fatalf("exitCode(%d) = %v, want exitCodeError", code, err)
		}
		if exitErr.code != code {
			t.Errorf("code = %d, want %d", exitErr.code, code)
		}
	}
}

func TestExitCodeError_Message(t *testing.T) {
	tests := []struct {
		code domain.ExitCode
		want string
	}{
		{domain.ExitJobFailed, "site generation failed"},
		{domain.ExitError, "command failed with error"},
		{domain.ExitInterrupted, "job was interrupted"},
		{domain.ExitCode(42), "exit code 42"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			if got := (exitCodeError{code: tt.code}).Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStateStatus(t *testing.T) {
	if got := stateStatus(orchestrator.StateRepairing, "fixing ./app/page.tsx"); got != "fixing ./app/page.tsx" {
		t.Errorf("explicit status not kept, got %q", got)
	}
	if got := stateStatus(orchestrator.StateBuildAttempt, ""); got != "Building..." {
		t.Errorf("stateStatus(BuildAttempt) = %q", got)
	}
	if got := stateStatus(orchestrator.StateFailed, ""); got != "Failed" {
		t.Errorf("stateStatus(Failed) = %q, want the state name", got)
	}
}

func TestRun_ExitCodes(t *testing.T) {
	if got := run([]string{"no-such-command"}); got != domain.ExitError.Int() {
		t.Errorf("unknown command exit = %d, want %d", got, domain.ExitError)
	}
	if got := run([]string{"version"}); got != 0 {
		t.Errorf("version exit = %d, want 0", got)
	}
	if got := run([]string{"generate", "--no-config"}); got != domain.ExitError.Int() {
		t.Errorf("generate without brief exit = %d, want %d", got, domain.ExitError)
	}
}
