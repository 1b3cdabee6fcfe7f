package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/richhaase/agentic-site-builder/internal/config"
	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/observability"
	"github.com/richhaase/agentic-site-builder/internal/orchestrator"
	"github.com/richhaase/agentic-site-builder/internal/report"
	"github.com/richhaase/agentic-site-builder/internal/terminal"
)

type generateOptions struct {
	request    domain.JobRequest
	values     config.ResolvedConfig
	reportFile string
	jsonOut    bool
	trace      string
}

func newGenerateCmd() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate, build and repair one site",
		Long: `Run one job in-process: plan the site from the brief, generate and critique
every file, then build and repair until the site compiles or the repair
budget is spent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.request.Brief, "brief", "", "Free-text description of the site")
	f.StringVar(&opts.request.Company, "company", "", "Company name; used as the brief when --brief is empty")
	f.StringVar(&opts.request.Domain, "domain", "", "Domain name; names the site directory when set")
	f.BoolVar(&opts.request.Force, "force", false, "Replace an existing site directory")
	f.BoolVar(&opts.request.Deploy, "deploy", false, "Deploy the site after a successful build")
	f.StringVar(&opts.values.SitesRoot, "sites-root", "",
		"Directory site directories are created in (default: sites, env: ASB_SITES_ROOT)")
	f.StringVarP(&opts.values.Generator, "generator", "g", "",
		"Generator backend: openai, claude, codex, gemini (default: openai, env: ASB_GENERATOR)")
	f.StringVarP(&opts.values.Model, "model", "m", "",
		"Model name passed to the generator (env: ASB_MODEL)")
	f.IntVarP(&opts.values.Concurrency, "concurrency", "c", 0,
		"Components generated in parallel (default: 1, env: ASB_CONCURRENCY)")
	f.IntVar(&opts.values.RepairCycles, "repair-cycles", 0,
		"Targeted fixes attempted before the job fails (default: 2, env: ASB_REPAIR_CYCLES)")
	f.StringVar(&opts.values.BuildCommand, "build-command", "",
		"Command run in the site directory to build it (default: pnpm run build, env: ASB_BUILD_COMMAND)")
	f.DurationVar(&opts.values.BuildTimeout, "build-timeout", 0,
		"Timeout for one build (default: 5m, env: ASB_BUILD_TIMEOUT)")
	f.StringVar(&opts.reportFile, "report-file", "", "Also write a Markdown report to this path")
	f.BoolVar(&opts.jsonOut, "json", false, "Print the job result as JSON instead of the report")
	f.StringVar(&opts.trace, "trace", observability.ExporterNone, "Trace exporter: none or stdout")

	setGroupedUsage(cmd)
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	req := opts.request
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	flags := cmd.Flags()
	state := config.FlagState{
		GeneratorSet:    flags.Changed("generator"),
		ModelSet:        flags.Changed("model"),
		SitesRootSet:    flags.Changed("sites-root"),
		BuildCommandSet: flags.Changed("build-command"),
		BuildTimeoutSet: flags.Changed("build-timeout"),
		RepairCyclesSet: flags.Changed("repair-cycles"),
		ConcurrencySet:  flags.Changed("concurrency"),
	}
	resolved, err := resolveConfig(cmd, state, opts.values)
	if err != nil {
		return err
	}

	logger, err := newJobLogger(resolved)
	if err != nil {
		return err
	}
	shutdown, err := initTracing(opts.trace)
	if err != nil {
		return err
	}
	defer shutdown()

	orch, err := newOrchestrator(resolved, logger, observability.NewMetrics())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	spinner := terminal.NewStatusSpinner(stateStatus(orchestrator.StateBlueprintPending, ""))
	spinCtx, stopSpinner := context.WithCancel(context.Background())
	spinDone := make(chan struct{})
	go func() {
		spinner.Run(spinCtx)
		close(spinDone)
	}()

	result, runErr := orch.Run(ctx, orchestrator.Job{
		TaskID:  uuid.NewString(),
		Request: req,
		Progress: func(s orchestrator.State, status string) {
			spinner.SetStatus(stateStatus(s, status))
		},
	})
	if result == nil || result.Status != domain.StatusSucceeded {
		spinner.Fail()
	}
	stopSpinner()
	<-spinDone

	if runErr != nil && ctx.Err() != nil {
		terminal.Log("Interrupted", terminal.StyleWarning)
		return exitCode(domain.ExitInterrupted)
	}
	if result == nil {
		return runErr
	}

	if opts.jsonOut {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		fmt.Fprint(cmd.OutOrStdout(), report.Render(result))
	}

	if opts.reportFile != "" {
		if err := os.WriteFile(opts.reportFile, []byte(report.Markdown(result)), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", opts.reportFile, err)
		}
		terminal.Logf(terminal.StyleInfo, "Report written to %s", opts.reportFile)
	}

	return exitCode(domain.ExitCodeForStatus(result.Status))
}
