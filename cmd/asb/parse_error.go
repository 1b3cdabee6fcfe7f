package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/richhaase/agentic-site-builder/internal/builderr"
	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/terminal"
)

func newParseErrorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-error [file|-]",
		Short: "Extract the structured build error from build output",
		Long: `Read build output from a file or stdin and print the first recognized
error as JSON. Exits 1 when no matcher recognizes the output.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			data, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read build output: %w", err)
			}

			rec := builderr.Parse(string(data))
			if rec == nil {
				terminal.Log("No recognizable error in build output", terminal.StyleWarning)
				return exitCode(domain.ExitJobFailed)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
}
