// Package orchestrator drives one site generation job through its states:
//
//	BlueprintPending → ArtifactsGenerating → BuildAttempt → Success
//	                                            ↓      ↑
//	                                          Repairing → Failed
//
// Every transition is logged with the job's task id and traced as a span.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/richhaase/agentic-site-builder/internal/agent"
	"github.com/richhaase/agentic-site-builder/internal/build"
	"github.com/richhaase/agentic-site-builder/internal/builderr"
	"github.com/richhaase/agentic-site-builder/internal/critic"
	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/fixer"
	"github.com/richhaase/agentic-site-builder/internal/lint"
	"github.com/richhaase/agentic-site-builder/internal/logging"
	"github.com/richhaase/agentic-site-builder/internal/observability"
	"github.com/richhaase/agentic-site-builder/internal/retry"
	"github.com/richhaase/agentic-site-builder/internal/workspace"
)

// State is a step of the job state machine.
type State string

const (
	StateBlueprintPending    State = "BlueprintPending"
	StateArtifactsGenerating State = "ArtifactsGenerating"
	StateBuildAttempt        State = "BuildAttempt"
	StateRepairing           State = "Repairing"
	StateSuccess             State = "Success"
	StateFailed              State = "Failed"
)

// DefaultRepairCycles is the number of parse-fix-rebuild cycles allowed per job.
const DefaultRepairCycles = 2

// maxReasonOutput bounds how much raw build output is quoted in a reason.
const maxReasonOutput = 2000

// Deployer publishes a built site. The returned string is a human summary.
type Deployer interface {
	Deploy(ctx context.Context, sitePath string) (string, error)
}

// Config holds per-process job settings.
type Config struct {
	// SitesRoot is the directory site directories are created in.
	SitesRoot string
	// RepairCycles caps targeted fixes per job. Zero disables repair; negative
	// values are treated as zero.
	RepairCycles int
	// Concurrency bounds parallel artifact generation. Values below 1 mean 1.
	Concurrency int
	// Performance enables the performance critic on component files.
	Performance bool
	// Integration enables the cross-file critic.
	Integration bool
	// ReservedDirs overrides the workspace's reserved directories when non-nil.
	ReservedDirs []string
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		SitesRoot:    "sites",
		RepairCycles: DefaultRepairCycles,
		Concurrency:  1,
		Performance:  true,
		Integration:  true,
	}
}

// Deps are the collaborators of a job. They are built once per process and
// shared by every job. Generator and Builder are required; the rest default
// to implementations built over Generator.
type Deps struct {
	Generator   agent.Generator
	Builder     build.Runner
	Policy      retry.Policy
	Critics     *critic.Pipeline
	Integration *critic.Integration
	Fixer       *fixer.Engine
	Linter      *lint.Linter
	Parser      *builderr.Parser
	Deployer    Deployer
	Metrics     *observability.Metrics
	Logger      *slog.Logger
	// Now is the clock used for dates in generated copy.
	Now func() time.Time
}

// Job is one unit of work.
type Job struct {
	TaskID  string
	Request domain.JobRequest
	// Progress, when set, is called on every state change with a short status text.
	Progress func(state State, status string)
}

// Orchestrator runs jobs.
type Orchestrator struct {
	cfg  Config
	deps Deps
}

// New validates deps and fills in defaults.
func New(cfg Config, deps Deps) (*Orchestrator, error) {
	if deps.Generator == nil {
		return nil, errors.New("orchestrator: generator is required")
	}
	if deps.Builder == nil {
		return nil, errors.New("orchestrator: build runner is required")
	}
	if cfg.SitesRoot == "" {
		cfg.SitesRoot = DefaultConfig().SitesRoot
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.RepairCycles < 0 {
		cfg.RepairCycles = 0
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	if deps.Policy.MaxAttempts == 0 {
		deps.Policy = retry.DefaultPolicy()
	}
	deps.Generator = observability.InstrumentGenerator(deps.Generator, deps.Metrics)
	if deps.Critics == nil {
		deps.Critics = critic.NewPipeline(
			critic.NewRegistry(deps.Generator, deps.Policy, deps.Logger),
			critic.PipelineOptions{Performance: cfg.Performance, Recorder: recorder(deps.Metrics), Logger: deps.Logger},
		)
	}
	if deps.Integration == nil && cfg.Integration {
		deps.Integration = critic.NewIntegration(deps.Generator, deps.Policy, deps.Logger)
	}
	if deps.Fixer == nil {
		deps.Fixer = fixer.New(deps.Generator, deps.Policy, deps.Logger)
	}
	if deps.Linter == nil {
		deps.Linter = lint.New()
	}
	if deps.Parser == nil {
		deps.Parser = builderr.NewParser()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{cfg: cfg, deps: deps}, nil
}

// recorder avoids storing a typed nil in the critic.Recorder interface.
func recorder(m *observability.Metrics) critic.Recorder {
	if m == nil {
		return nil
	}
	return m
}

// run is the mutable state of one job.
type run struct {
	o        *Orchestrator
	job      Job
	logger   *slog.Logger
	state    *domain.JobState
	result   *domain.JobResult
	site     *workspace.Site
	mu       sync.Mutex
	warnings []string
}

// Run executes job to a terminal state. Job failures are reported in the
// result; the error is non-nil only when ctx ended the job early.
func (o *Orchestrator) Run(ctx context.Context, job Job) (*domain.JobResult, error) {
	start := time.Now()
	r := &run{
		o:      o,
		job:    job,
		logger: logging.WithTask(o.deps.Logger, job.TaskID),
		state: &domain.JobState{
			TaskID:    job.TaskID,
			Status:    domain.StatusInProgress,
			Artifacts: make(map[string]*domain.CodeArtifact),
		},
		result: &domain.JobResult{Quality: make(map[string]domain.QualityScore)},
	}

	o.deps.Metrics.JobStarted()
	ctx, span := observability.StartSpan(ctx, "job", attribute.String("task_id", job.TaskID))
	err := r.execute(ctx)
	observability.FinishSpan(span, err)

	if r.site != nil {
		r.result.Stats = r.site.Stats()
	}
	r.result.Repairs = r.state.RepairAttempts
	r.result.Warnings = r.warnings
	r.result.Duration = time.Since(start)
	r.state.Status = r.result.Status
	o.deps.Metrics.JobFinished(r.result.Status)

	r.logger.Info("job finished",
		"status", r.result.Status,
		"builds", r.state.BuildAttempts,
		"repairs", r.state.RepairAttempts,
		"duration", r.result.Duration.Round(time.Millisecond))

	if ctxErr := ctx.Err(); ctxErr != nil && r.result.Status != domain.StatusSucceeded {
		return r.result, ctxErr
	}
	return r.result, nil
}

func (r *run) execute(ctx context.Context) error {
	site, err := workspace.Claim(r.o.cfg.SitesRoot, r.job.Request.SiteName(), workspace.Options{
		Force:        r.job.Request.Force,
		ReservedDirs: r.o.cfg.ReservedDirs,
	})
	if err != nil {
		return r.fail("could not claim site directory", err, "")
	}
	r.site = site

	r.transition(StateBlueprintPending, "generating blueprint")
	bp, err := r.blueprint(ctx)
	if err != nil {
		return r.fail("blueprint generation failed", err, "")
	}

	r.transition(StateArtifactsGenerating, fmt.Sprintf("generating %d components", len(bp.ComponentNames())))
	if err := r.artifacts(ctx, bp); err != nil {
		return r.fail("artifact generation failed", err, "")
	}

	return r.buildLoop(ctx)
}

func (r *run) transition(s State, status string) {
	r.state.State = string(s)
	r.logger.Info("state transition", "state", string(s), "status", status)
	if r.job.Progress != nil {
		r.job.Progress(s, status)
	}
}

func (r *run) warn(msg string) {
	r.mu.Lock()
	r.warnings = append(r.warnings, msg)
	r.mu.Unlock()
	r.logger.Warn(msg)
}

// fail moves the job to Failed. raw is the unparsed failure text, if any.
func (r *run) fail(reason string, err error, raw string) error {
	r.transition(StateFailed, reason)
	r.result.Status = domain.StatusFailed
	msg := reason
	if err != nil {
		msg = fmt.Sprintf("%s: %v", reason, err)
	}
	if raw != "" {
		r.result.BuildLog = raw
		msg += "\n" + tail(raw, maxReasonOutput)
	}
	r.result.Reason = msg
	r.logger.Error("job failed", "reason", reason, "error", err)
	if err == nil {
		return errors.New(reason)
	}
	return fmt.Errorf("%s: %w", reason, err)
}

func (r *run) succeed(ctx context.Context) error {
	r.transition(StateSuccess, "build succeeded")
	r.result.Status = domain.StatusSucceeded
	r.result.SitePath = r.site.Root()
	r.result.Summary = "build succeeded"

	if !r.job.Request.Deploy {
		return nil
	}
	if r.o.deps.Deployer == nil {
		r.result.Summary = "build succeeded; deploy skipped (no deployer configured)"
		return nil
	}
	summary, err := r.o.deps.Deployer.Deploy(ctx, r.site.Root())
	if err != nil {
		r.result.Status = domain.StatusPartial
		r.result.Reason = fmt.Sprintf("deploy failed: %v", err)
		r.logger.Error("deploy failed", "error", err)
		return nil
	}
	r.result.Summary = "build succeeded; " + summary
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
