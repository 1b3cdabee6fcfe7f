package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/richhaase/agentic-site-builder/internal/agent"
	"github.com/richhaase/agentic-site-builder/internal/build"
	"github.com/richhaase/agentic-site-builder/internal/config"
	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/logging"
	"github.com/richhaase/agentic-site-builder/internal/observability"
	"github.com/richhaase/agentic-site-builder/internal/orchestrator"
	"github.com/richhaase/agentic-site-builder/internal/terminal"
)

// exitCodeError is a wrapper type for returning exit codes via error interface.
type exitCodeError struct {
	code domain.ExitCode
}

func (e exitCodeError) Error() string {
	switch e.code {
	case domain.ExitJobFailed:
		return "site generation failed"
	case domain.ExitError:
		return "command failed with error"
	case domain.ExitInterrupted:
		return "job was interrupted"
	default:
		return fmt.Sprintf("exit code %d", e.code)
	}
}

func exitCode(code domain.ExitCode) error {
	if code == domain.ExitSuccess {
		return nil
	}
	return exitCodeError{code: code}
}

// resolveConfig applies flags > env > file > defaults. Changed flags are
// recorded in state by the caller; the persistent log flags are handled here.
func resolveConfig(cmd *cobra.Command, state config.FlagState, values config.ResolvedConfig) (config.ResolvedConfig, error) {
	cfg := &config.Config{}
	if !noConfig {
		result, err := config.LoadWithWarnings()
		if err != nil {
			return config.ResolvedConfig{}, fmt.Errorf("config error: %w", err)
		}
		cfg = result.Config
		for _, w := range result.Warnings {
			terminal.Logf(terminal.StyleWarning, "Config: %s", w)
		}
	}

	state.LogFormatSet = cmd.Flags().Changed("log-format")
	state.LogLevelSet = cmd.Flags().Changed("log-level")
	values.LogFormat = logFormat
	values.LogLevel = logLevel

	resolved := config.Resolve(cfg, config.LoadEnvState(), state, values)
	if err := resolved.Validate(); err != nil {
		return config.ResolvedConfig{}, err
	}
	return resolved, nil
}

// newJobLogger builds the structured job logger. It writes to stderr so
// stdout stays free for reports and JSON.
func newJobLogger(resolved config.ResolvedConfig) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Format: resolved.LogFormat,
		Level:  resolved.LogLevel,
		Output: os.Stderr,
	})
}

// initTracing starts the tracer provider and returns its shutdown hook.
func initTracing(exporter string) (func(), error) {
	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "asb",
		ServiceVersion: version,
		Exporter:       exporter,
		Output:         os.Stderr,
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = shutdown(context.Background()) }, nil
}

// newOrchestrator wires the process-wide collaborators of a job.
func newOrchestrator(resolved config.ResolvedConfig, logger *slog.Logger, metrics *observability.Metrics) (*orchestrator.Orchestrator, error) {
	gen, err := agent.NewGenerator(resolved.Generator, agent.Options{
		Model:         resolved.Model,
		Timeout:       resolved.GenerationTimeout,
		RatePerMinute: resolved.RateLimit,
	})
	if err != nil {
		return nil, err
	}
	if err := gen.IsAvailable(); err != nil {
		return nil, fmt.Errorf("generator %s unavailable: %w", gen.Name(), err)
	}

	builder, err := build.NewCommandRunner(resolved.BuildCommand, resolved.BuildTimeout)
	if err != nil {
		return nil, err
	}

	cfg := orchestrator.Config{
		SitesRoot:    resolved.SitesRoot,
		RepairCycles: resolved.RepairCycles,
		Concurrency:  resolved.Concurrency,
		Performance:  resolved.PerformanceCritic,
		Integration:  resolved.IntegrationCritic,
		ReservedDirs: resolved.ReservedDirs,
	}
	return orchestrator.New(cfg, orchestrator.Deps{
		Generator: gen,
		Builder:   builder,
		Policy:    resolved.RetryPolicy(),
		Metrics:   metrics,
		Logger:    logger,
	})
}

// stateStatus is the spinner text shown for each job state.
func stateStatus(state orchestrator.State, status string) string {
	if status != "" {
		return status
	}
	switch state {
	case orchestrator.StateBlueprintPending:
		return "Planning site..."
	case orchestrator.StateArtifactsGenerating:
		return "Generating files..."
	case orchestrator.StateBuildAttempt:
		return "Building..."
	case orchestrator.StateRepairing:
		return "Repairing build error..."
	default:
		return string(state)
	}
}
