package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/richhaase/agentic-site-builder/internal/config"
	"github.com/richhaase/agentic-site-builder/internal/observability"
	"github.com/richhaase/agentic-site-builder/internal/queue"
	"github.com/richhaase/agentic-site-builder/internal/server"
	"github.com/richhaase/agentic-site-builder/internal/terminal"
)

type serveOptions struct {
	values config.ResolvedConfig
	trace  string
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the job API and its workers",
		Long: `Serve the HTTP job API. Submitted jobs are persisted, run by a pool of
workers and can be polled by id. Jobs left pending by a previous run are
resumed on start; jobs that were running are marked failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.values.ServerAddr, "addr", "",
		"Listen address (default: 127.0.0.1:8080, env: ASB_SERVER_ADDR)")
	f.IntVarP(&opts.values.ServerWorkers, "workers", "w", 0,
		"Jobs run concurrently (default: 1, env: ASB_SERVER_WORKERS)")
	f.StringVar(&opts.values.DBPath, "db", "",
		"Job store directory (default: .asb/jobs, env: ASB_DB_PATH)")
	f.StringVar(&opts.values.SitesRoot, "sites-root", "",
		"Directory site directories are created in (default: sites, env: ASB_SITES_ROOT)")
	f.StringVarP(&opts.values.Generator, "generator", "g", "",
		"Generator backend: openai, claude, codex, gemini (default: openai, env: ASB_GENERATOR)")
	f.StringVar(&opts.trace, "trace", observability.ExporterNone, "Trace exporter: none or stdout")

	setGroupedUsage(cmd)
	return cmd
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	flags := cmd.Flags()
	state := config.FlagState{
		ServerAddrSet:    flags.Changed("addr"),
		ServerWorkersSet: flags.Changed("workers"),
		DBPathSet:        flags.Changed("db"),
		SitesRootSet:     flags.Changed("sites-root"),
		GeneratorSet:     flags.Changed("generator"),
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

	metrics := observability.NewMetrics()
	orch, err := newOrchestrator(resolved, logger, metrics)
	if err != nil {
		return err
	}

	store, err := queue.OpenBadger(queue.BadgerConfig{Path: resolved.DBPath, Logger: logger})
	if err != nil {
		return fmt.Errorf("open job store: %w", err)
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	q := queue.New(store, orch, queue.Options{Workers: resolved.ServerWorkers, Logger: logger})
	if err := q.Start(ctx); err != nil {
		return err
	}

	srv := server.New(q, server.Options{Metrics: metrics.Handler(), Logger: logger})
	terminal.Logf(terminal.StyleInfo, "Listening on http://%s (%d worker(s), store %s)",
		resolved.ServerAddr, resolved.ServerWorkers, resolved.DBPath)

	serveErr := srv.ListenAndServe(ctx, resolved.ServerAddr)
	stop()
	q.Wait()

	if serveErr != nil {
		return serveErr
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		terminal.Log("Server stopped", terminal.StyleSuccess)
	}
	return nil
}
