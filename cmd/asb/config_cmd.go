package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/richhaase/agentic-site-builder/internal/config"
	"github.com/richhaase/agentic-site-builder/internal/terminal"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage asb configuration",
		Long:  "View, initialize, and validate asb configuration files and environment variables.",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigValidateCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display resolved configuration",
		Long:  "Show the fully resolved configuration from defaults, config file, and environment variables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := config.LoadWithWarnings()
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			resolved := config.Resolve(result.Config, config.LoadEnvState(), config.FlagState{}, config.Defaults)
			out, err := yaml.Marshal(resolved)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if result.Path != "" {
				fmt.Fprintf(w, "# resolved from %s, environment and defaults\n", result.Path)
			} else {
				fmt.Fprintln(w, "# resolved from environment and defaults")
			}
			_, err = w.Write(out)
			return err
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a starter .asb.yaml file",
		Long:  "Create a commented .asb.yaml configuration file in the current directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath := config.ConfigFileName

			if _, err := os.Stat(configPath); err == nil {
				return fmt.Errorf("%s already exists; remove it first or edit it directly", configPath)
			}

			if err := os.WriteFile(configPath, []byte(config.Template), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", configPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s with default settings.\n", configPath)
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and environment variables",
		Long:  "Load and validate the config file and environment variables, reporting any warnings or errors.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := terminal.NewLogger()
			var errs []string
			var warnings []string

			// Keep going after a file error so env var issues are also reported.
			cfg := &config.Config{}
			result, err := config.LoadWithWarnings()
			if err != nil {
				errs = append(errs, fmt.Sprintf("config file: %v", err))
			}
			if result != nil {
				cfg = result.Config
				warnings = append(warnings, result.Warnings...)
			}

			resolved := config.Resolve(cfg, config.LoadEnvState(), config.FlagState{}, config.Defaults)
			if err := resolved.Validate(); err != nil {
				errs = append(errs, err.Error())
			}

			for _, w := range warnings {
				logger.Logf(terminal.StyleWarning, "Config: %s", w)
			}
			for _, e := range errs {
				logger.Logf(terminal.StyleError, "%s", e)
			}

			if len(errs) > 0 {
				return fmt.Errorf("configuration has %d error(s)", len(errs))
			}

			if len(warnings) > 0 {
				logger.Log("Configuration is valid (with warnings).", terminal.StyleSuccess)
			} else {
				logger.Log("Configuration is valid.", terminal.StyleSuccess)
			}
			return nil
		},
	}
}
