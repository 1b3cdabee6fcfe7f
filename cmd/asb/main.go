// Package main provides the CLI entry point for the agentic site builder.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/terminal"
)

var (
	noConfig  bool
	noColor   bool
	logFormat string
	logLevel  string
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		// Check if this is an exit code wrapper (not a real error)
		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			return exitErr.code.Int()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return domain.ExitError.Int()
	}

	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "asb",
		Short: "Agentic site builder - generate, validate and repair websites",
		Long: `Generate a website from a brief with an LLM, critique every file,
build it and repair build failures until it compiles.

Exit codes:
  0 - Site built
  1 - Job failed (or built but deploy failed)
  2 - Error
  130 - Interrupted`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildVersionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			terminal.ConfigureColors(noColor)
		},
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")

	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&noConfig, "no-config", false,
		"Skip loading .asb.yaml config file")
	pf.BoolVar(&noColor, "no-color", false,
		"Disable colored output (env: NO_COLOR)")
	pf.StringVar(&logFormat, "log-format", "",
		"Job log format: text or json (default: text, env: ASB_LOG_FORMAT)")
	pf.StringVar(&logLevel, "log-level", "",
		"Job log level: debug, info, warn, error (default: info, env: ASB_LOG_LEVEL)")

	rootCmd.AddCommand(
		newGenerateCmd(),
		newServeCmd(),
		newSubmitCmd(),
		newStatusCmd(),
		newParseErrorCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)

	return rootCmd
}
