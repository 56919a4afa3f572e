package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/novalys/ve-runner/internal/config"
	"github.com/novalys/ve-runner/internal/terminal"
)

func newConfigCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage verun configuration",
		Long:  "View, initialize, and validate verun configuration files and environment variables.",
	}

	cmd.AddCommand(newConfigShowCmd(global))
	cmd.AddCommand(newConfigInitCmd(global))
	cmd.AddCommand(newConfigValidateCmd(global))

	return cmd
}

func newConfigShowCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display resolved configuration",
		Long:  "Show the fully resolved configuration from defaults, config file, environment variables and flags.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := setupTerminal()
			resolved, err := global.resolve(cmd, logger, config.ResolvedConfig{}, config.FlagState{})
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}

			out, err := config.Render(resolved)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "# Resolved configuration")
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newConfigInitCmd(global *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter " + config.ConfigFileName + " file",
		Long:  "Create a commented " + config.ConfigFileName + " in the working directory, or at --config.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := global.configPath
			if path == "" {
				path = config.ConfigFileName
			}
			if err := config.WriteStarter(path, force); err != nil {
				return err
			}

			abs, err := filepath.Abs(path)
			if err != nil {
				abs = path
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", abs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigValidateCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration and environment variables",
		Long:  "Load and validate the config file, environment variables and flags, reporting any warnings or errors.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := setupTerminal()

			resolved, err := global.resolve(cmd, logger, config.ResolvedConfig{}, config.FlagState{})
			if err != nil {
				logger.Logf(terminal.StyleError, "%v", err)
				return fmt.Errorf("configuration is invalid")
			}

			warnings, err := resolved.Check()
			for _, w := range warnings {
				logger.Logf(terminal.StyleWarning, "%s", w)
			}
			if err != nil {
				logger.Logf(terminal.StyleError, "%v", err)
				return fmt.Errorf("configuration is invalid")
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
