package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/richhaase/agentic-site-builder/internal/config"
	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/queue"
	"github.com/richhaase/agentic-site-builder/internal/report"
	"github.com/richhaase/agentic-site-builder/internal/server"
	"github.com/richhaase/agentic-site-builder/internal/terminal"
)

// pollInterval is how often submit --wait checks the job.
var pollInterval = 2 * time.Second

type clientOptions struct {
	server  string
	jsonOut bool
}

func (o *clientOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.server, "server", "",
		"Server address (default: server.addr from config, env: ASB_SERVER_ADDR)")
	cmd.Flags().BoolVar(&o.jsonOut, "json", false, "Print the job record as JSON")
}

func (o *clientOptions) client(cmd *cobra.Command) (*server.Client, error) {
	addr := o.server
	if addr == "" {
		resolved, err := resolveConfig(cmd, config.FlagState{}, config.ResolvedConfig{})
		if err != nil {
			return nil, err
		}
		addr = resolved.ServerAddr
	}
	return server.NewClient(addr, nil)
}

func newSubmitCmd() *cobra.Command {
	opts := &clientOptions{}
	var req domain.JobRequest
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a job to a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			rec, err := client.Submit(ctx, req)
			if err != nil {
				return err
			}
			if !wait {
				if opts.jsonOut {
					return printRecord(cmd.OutOrStdout(), rec)
				}
				fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
				return nil
			}

			terminal.Logf(terminal.StyleInfo, "Submitted job %s", rec.ID)
			rec, err = waitForJob(ctx, client, rec.ID)
			if err != nil {
				if ctx.Err() != nil {
					terminal.Logf(terminal.StyleWarning, "Stopped waiting; job %s keeps running on the server", rec.ID)
					return exitCode(domain.ExitInterrupted)
				}
				return err
			}
			return showRecord(cmd.OutOrStdout(), rec, opts.jsonOut)
		},
	}

	cmd.Flags().StringVar(&req.Brief, "brief", "", "Free-text description of the site")
	cmd.Flags().StringVar(&req.Company, "company", "", "Company name; used as the brief when --brief is empty")
	cmd.Flags().StringVar(&req.Domain, "domain", "", "Domain name; names the site directory when set")
	cmd.Flags().BoolVar(&req.Force, "force", false, "Replace an existing site directory")
	cmd.Flags().BoolVar(&req.Deploy, "deploy", false, "Deploy the site after a successful build")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the job to finish and print its report")
	opts.register(cmd)

	setGroupedUsage(cmd)
	return cmd
}

// waitForJob polls until the job reaches a terminal status. The last record
// seen is returned with any error.
func waitForJob(ctx context.Context, client *server.Client, id string) (*queue.Record, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	last := &queue.Record{ID: id}
	for {
		rec, err := client.Status(ctx, id)
		if err != nil {
			return last, err
		}
		last = rec
		if rec.Status.IsTerminal() {
			return rec, nil
		}
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

// showRecord prints a job record and maps its status to the exit code.
func showRecord(w io.Writer, rec *queue.Record, jsonOut bool) error {
	if jsonOut {
		if err := printRecord(w, rec); err != nil {
			return err
		}
	} else if rec.Result != nil {
		fmt.Fprint(w, report.Render(rec.Result))
	} else {
		fmt.Fprintf(w, "%s  %s", rec.ID, rec.Status)
		if rec.StatusText != "" {
			fmt.Fprintf(w, "  %s", rec.StatusText)
		}
		fmt.Fprintln(w)
		if rec.Error != "" {
			fmt.Fprintf(w, "error: %s\n", rec.Error)
		}
	}

	if !rec.Status.IsTerminal() {
		return nil
	}
	return exitCode(domain.ExitCodeForStatus(rec.Status))
}

func printRecord(w io.Writer, rec *queue.Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
