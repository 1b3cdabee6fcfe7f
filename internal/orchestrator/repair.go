package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"

	"github.com/richhaase/agentic-site-builder/internal/observability"
)

// Repair outcomes recorded in metrics.
const (
	repairApplied   = "applied"
	repairUnchanged = "unchanged"
	repairError     = "error"
)

// buildLoop alternates BuildAttempt and Repairing until the build passes,
// a failure cannot be repaired, or the repair cap is reached.
func (r *run) buildLoop(ctx context.Context) error {
	for {
		r.state.BuildAttempts++
		r.transition(StateBuildAttempt, fmt.Sprintf("build attempt %d", r.state.BuildAttempts))

		bctx, span := observability.StartSpan(ctx, "build", attribute.Int("attempt", r.state.BuildAttempts))
		res, err := r.o.deps.Builder.Run(bctx, r.site.Root())
		if err != nil {
			observability.FinishSpan(span, err)
			return r.fail("build could not run", err, "")
		}
		outcome := "success"
		switch {
		case res.TimedOut:
			outcome = "timeout"
		case !res.Success:
			outcome = "failure"
		}
		r.o.deps.Metrics.BuildFinished(outcome, res.Duration)
		span.SetAttributes(attribute.String("result", outcome))
		observability.FinishSpan(span, nil)

		if res.Success {
			return r.succeed(ctx)
		}
		r.logger.Warn("build failed", "attempt", r.state.BuildAttempts, "exit_code", res.ExitCode, "timed_out", res.TimedOut)

		if r.state.RepairAttempts >= r.o.cfg.RepairCycles {
			if rec := r.o.deps.Parser.Parse(res.Output); rec != nil {
				r.result.LastError = rec
			}
			return r.fail(fmt.Sprintf("build failed after %d repair attempt(s)", r.state.RepairAttempts), nil, res.Output)
		}
		if err := r.repair(ctx, res.Output); err != nil {
			return err
		}
	}
}

// repair parses the build output and applies one targeted fix. It returns
// a non-nil error, after failing the job, when no fix could be applied.
func (r *run) repair(ctx context.Context, output string) error {
	r.transition(StateRepairing, fmt.Sprintf("repair attempt %d", r.state.RepairAttempts+1))
	ctx, span := observability.StartSpan(ctx, "repair")

	rec := r.o.deps.Parser.Parse(output)
	if rec == nil {
		observability.FinishSpan(span, nil)
		return r.fail("build failed with an unrecognized error", nil, output)
	}
	r.result.LastError = rec
	span.SetAttributes(
		attribute.String("file", rec.FilePath),
		attribute.String("error_type", string(rec.ErrorType)),
		attribute.String("matcher", rec.Matcher),
	)
	r.logger.Info("parsed build error", "file", rec.FilePath, "location", rec.Location(), "error_type", rec.ErrorType, "matcher", rec.Matcher)

	abs, err := r.site.Resolve(rec.FilePath)
	if err != nil {
		observability.FinishSpan(span, err)
		return r.fail("build error names an unsafe path", err, output)
	}
	if !r.generated(abs) {
		observability.FinishSpan(span, nil)
		return r.fail("build error names a file that was not generated: "+rec.FilePath, nil, output)
	}

	r.state.RepairAttempts++
	changed, err := r.o.deps.Fixer.AttemptFix(ctx, abs, rec)
	switch {
	case err != nil:
		r.o.deps.Metrics.Repair(repairError)
		observability.FinishSpan(span, err)
		return r.fail("targeted fix failed", err, output)
	case !changed:
		r.o.deps.Metrics.Repair(repairUnchanged)
		observability.FinishSpan(span, nil)
		return r.fail("targeted fix did not change "+rec.FilePath, nil, output)
	}
	r.o.deps.Metrics.Repair(repairApplied)
	observability.FinishSpan(span, nil)
	return nil
}

// generated reports whether abs is one of the job's generated artifacts.
// Only those are handed to the fixer; dependencies and templated files are not.
func (r *run) generated(abs string) bool {
	rel, err := filepath.Rel(r.site.Root(), abs)
	if err != nil {
		return false
	}
	_, ok := r.state.Artifacts[filepath.ToSlash(rel)]
	return ok
}
