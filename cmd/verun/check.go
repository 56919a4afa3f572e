package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/novalys/ve-runner/internal/config"
	"github.com/novalys/ve-runner/internal/domain"
	"github.com/novalys/ve-runner/internal/install"
	"github.com/novalys/ve-runner/internal/terminal"
)

func newCheckCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the installation path",
		Long:  "Resolve the console executable from the installation path and check that it exists.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := setupTerminal()

			resolved, err := global.resolve(cmd, logger, config.ResolvedConfig{}, config.FlagState{})
			if err != nil {
				logger.Logf(terminal.StyleError, "%v", err)
				return exitCode(domain.ExitError)
			}

			path, err := resolved.Installation().Validate()
			if err != nil {
				logger.Log(checkMessage(err, resolved.InstallPath), terminal.StyleError)
				return exitCode(domain.ExitError)
			}

			logger.Logf(terminal.StyleSuccess, "Found %s", path)
			warnRunningInstances(logger)
			return nil
		},
	}
}

func checkMessage(err error, dir string) string {
	switch {
	case errors.Is(err, install.ErrMissingInstallPath):
		return "No installation path configured; set --install-path, " + config.EnvInstallPath + " or install_path"
	case errors.Is(err, install.ErrInvalidExecutablePath):
		return "Installation path " + dir + " does not resolve to " + install.ConsoleExeName
	case errors.Is(err, install.ErrExecutableNotFound):
		return install.ConsoleExeName + " not found in " + dir
	default:
		return err.Error()
	}
}
