// Package main provides the CLI entry point for verun, a runner for the
// Visual Expert console executable.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/novalys/ve-runner/internal/config"
	"github.com/novalys/ve-runner/internal/domain"
	"github.com/novalys/ve-runner/internal/install"
	"github.com/novalys/ve-runner/internal/terminal"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		var exitErr exitCodeError
		if errors.As(err, &exitErr) {
			return exitErr.code.Int()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return domain.ExitError.Int()
	}
	return domain.ExitSuccess.Int()
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "verun",
		Short: "Run Visual Expert console actions and verify their output",
		Long: `Run Visual Expert analysis and documentation actions for a project,
capture the console output and verify it for success markers.

Exit codes:
  0 - All requested actions succeeded
  1 - At least one action failed
  2 - Configuration or installation error
  130 - Interrupted`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildVersionString(),
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	opts.bind(rootCmd)

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newProjectsCmd(opts))
	rootCmd.AddCommand(newCheckCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	for _, c := range append([]*cobra.Command{rootCmd}, rootCmd.Commands()...) {
		setGroupedUsage(c)
	}

	return rootCmd
}

// globalOptions holds the flags shared by every subcommand.
type globalOptions struct {
	configPath   string
	noConfig     bool
	verbose      bool
	installPath  string
	defaultArgs  string
	project      string
	projectsFile string
	listTimeout  string
}

func (o *globalOptions) bind(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&o.configPath, "config", "",
		"Path to config file (default: ./"+config.ConfigFileName+")")
	pf.BoolVar(&o.noConfig, "no-config", false,
		"Skip loading the config file")
	pf.BoolVarP(&o.verbose, "verbose", "v", false,
		"Print diagnostic logs")
	pf.StringVarP(&o.installPath, "install-path", "i", "",
		"Directory containing "+install.ConsoleExeName+" (env: "+config.EnvInstallPath+")")
	pf.StringVar(&o.defaultArgs, "default-args", "",
		"Extra arguments appended to every console invocation")
	pf.StringVarP(&o.project, "project", "p", "",
		"Visual Expert project name (env: "+config.EnvProject+")")
	pf.StringVar(&o.projectsFile, "projects-file", "",
		"Project listing file written by the console (env: "+config.EnvProjectsFile+")")
	pf.StringVar(&o.listTimeout, "list-timeout", "",
		"Timeout for listing projects, e.g. 300s (default: 300s, env: "+config.EnvListTimeout+")")
}

// resolve loads the config file and merges it with env vars and the flags
// set on cmd. Config file warnings are logged.
func (o *globalOptions) resolve(cmd *cobra.Command, logger *terminal.Logger, local config.ResolvedConfig, localState config.FlagState) (config.ResolvedConfig, error) {
	cfg := &config.Config{}
	if !o.noConfig {
		result, err := config.Load(o.configPath)
		if err != nil {
			return config.ResolvedConfig{}, err
		}
		for _, w := range result.Warnings {
			logger.Logf(terminal.StyleWarning, "Config: %s", w)
		}
		cfg = result.Config
	}

	flags := cmd.Flags()
	state := localState
	state.InstallPathSet = flags.Changed("install-path")
	state.DefaultArgsSet = flags.Changed("default-args")
	state.ProjectSet = flags.Changed("project")
	state.ProjectsFileSet = flags.Changed("projects-file")
	state.ListTimeoutSet = flags.Changed("list-timeout")

	values := local
	values.InstallPath = o.installPath
	values.DefaultArgs = o.defaultArgs
	values.Project = o.project
	values.ProjectsFile = o.projectsFile
	if state.ListTimeoutSet {
		d, err := config.ParseDuration(o.listTimeout)
		if err != nil {
			return config.ResolvedConfig{}, fmt.Errorf("--list-timeout: %w", err)
		}
		values.ListTimeout = d
	}

	return config.Resolve(cfg, config.LoadEnvState(), state, values), nil
}

// diagLogger returns the hclog logger handed to the internal packages.
func (o *globalOptions) diagLogger() hclog.Logger {
	if !o.verbose {
		return hclog.New(&hclog.LoggerOptions{Name: "verun", Level: hclog.Off, Output: io.Discard})
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "verun",
		Level:  hclog.Debug,
		Output: os.Stderr,
		Color:  colorOption(),
	})
}

func colorOption() hclog.ColorOption {
	if terminal.ColorsEnabled() && terminal.IsStderrTTY() {
		return hclog.AutoColor
	}
	return hclog.ColorOff
}

// setupTerminal disables colors when stdout is not a TTY and returns a logger.
func setupTerminal() *terminal.Logger {
	if !terminal.IsStdoutTTY() {
		terminal.DisableColors()
	}
	return terminal.NewLogger()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *terminal.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr)
			logger.Log("Interrupted, stopping the console...", terminal.StyleWarning)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
