package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/novalys/ve-runner/internal/config"
	"github.com/novalys/ve-runner/internal/domain"
	"github.com/novalys/ve-runner/internal/process"
	"github.com/novalys/ve-runner/internal/projects"
	"github.com/novalys/ve-runner/internal/terminal"
)

func newProjectsCmd(global *globalOptions) *cobra.Command {
	var pick bool

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List the projects known to the installation",
		Long: `Ask the console executable to list its projects and print them, one per line.
With --pick, choose one interactively and print only the chosen name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return listProjects(cmd, global, pick)
		},
	}

	cmd.Flags().BoolVar(&pick, "pick", false,
		"Choose a project interactively")

	return cmd
}

func listProjects(cmd *cobra.Command, global *globalOptions, pick bool) error {
	logger := setupTerminal()

	resolved, err := global.resolve(cmd, logger, config.ResolvedConfig{}, config.FlagState{})
	if err != nil {
		logger.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}

	if _, err := resolved.Installation().Validate(); err != nil {
		logger.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}

	ctx, cancel := signalContext(logger)
	defer cancel()

	diag := global.diagLogger()
	cache := projects.NewCache(projects.Options{
		Runner:      process.NewExecRunner(diag),
		ListingFile: resolved.ProjectsFile,
		DefaultArgs: resolved.DefaultArgs,
		Timeout:     resolved.ListTimeout,
		Logger:      diag,
	})

	spinner := terminal.NewPhaseSpinner(domain.ActionListProjects.Label())
	list := withSpinner(ctx, spinner, func() []string {
		return projects.Selectable(cache.Projects(ctx, resolved.InstallPath))
	})

	if ctx.Err() != nil {
		return exitCode(domain.ExitInterrupted)
	}
	if len(list) == 0 {
		logger.Log("No projects found", terminal.StyleWarning)
		return exitCode(domain.ExitFailure)
	}

	out := cmd.OutOrStdout()
	if !pick {
		for _, p := range list {
			fmt.Fprintln(out, p)
		}
		return nil
	}

	chosen, err := projects.RunPicker(list, resolved.Project)
	if err != nil {
		if errors.Is(err, projects.ErrNotInteractive) {
			logger.Log("--pick requires an interactive terminal", terminal.StyleError)
			return exitCode(domain.ExitError)
		}
		return err
	}
	if chosen == "" {
		logger.Log("No project selected", terminal.StyleDim)
		return exitCode(domain.ExitFailure)
	}
	fmt.Fprintln(out, chosen)
	return nil
}
