package main

import (
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	opts := &clientOptions{}
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the status of a submitted job",
		Long: `Show a job's status. Finished jobs print their report and exit with the
job's exit code; pending and running jobs print their current step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.client(cmd)
			if err != nil {
				return err
			}
			rec, err := client.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return showRecord(cmd.OutOrStdout(), rec, opts.jsonOut)
		},
	}
	opts.register(cmd)
	return cmd
}
