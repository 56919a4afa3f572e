package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/novalys/ve-runner/internal/config"
	"github.com/novalys/ve-runner/internal/domain"
	"github.com/novalys/ve-runner/internal/install"
	"github.com/novalys/ve-runner/internal/orchestrator"
	"github.com/novalys/ve-runner/internal/process"
	"github.com/novalys/ve-runner/internal/terminal"
)

// runOptions holds the flags of the run command.
type runOptions struct {
	analyze       bool
	referenceDoc  bool
	codeReviewDoc bool
	report        bool
	reportPath    string
	reportFormat  string
	capture       string
	outputDir     string
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the requested actions for a project",
		Long: `Run the requested Visual Expert actions in order (analyze, reference
documentation, code review documentation) and verify each one's output.
Every requested action runs even if an earlier one failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runActions(cmd, global, opts)
		},
	}

	f := cmd.Flags()
	f.BoolVarP(&opts.analyze, "analyze", "a", true,
		"Analyze the project")
	f.BoolVarP(&opts.referenceDoc, "reference-doc", "d", false,
		"Generate the reference documentation")
	f.BoolVarP(&opts.codeReviewDoc, "code-review-doc", "c", false,
		"Generate the code review documentation")
	f.BoolVar(&opts.report, "report", false,
		"Write an analysis report (requires --report-path)")
	f.StringVarP(&opts.reportPath, "report-path", "o", "",
		"Analysis report destination")
	f.StringVar(&opts.reportFormat, "report-format", "",
		"Analysis report format (default: JUNIT)")
	f.StringVar(&opts.capture, "capture", "",
		"Output capture mode: shared or per-action (default: shared, env: "+config.EnvCapture+")")
	f.StringVar(&opts.outputDir, "output-dir", "",
		"Directory for captured output files (default: temp dir, env: "+config.EnvOutputDir+")")

	return cmd
}

func (o *runOptions) flagState(cmd *cobra.Command) config.FlagState {
	f := cmd.Flags()
	return config.FlagState{
		AnalyzeSet:       f.Changed("analyze"),
		ReferenceDocSet:  f.Changed("reference-doc"),
		CodeReviewDocSet: f.Changed("code-review-doc"),
		ReportEnabledSet: f.Changed("report"),
		ReportPathSet:    f.Changed("report-path"),
		ReportFormatSet:  f.Changed("report-format"),
		CaptureSet:       f.Changed("capture"),
		OutputDirSet:     f.Changed("output-dir"),
	}
}

func (o *runOptions) values() config.ResolvedConfig {
	return config.ResolvedConfig{
		Analyze:       o.analyze,
		ReferenceDoc:  o.referenceDoc,
		CodeReviewDoc: o.codeReviewDoc,
		ReportEnabled: o.report,
		ReportPath:    o.reportPath,
		ReportFormat:  o.reportFormat,
		Capture:       o.capture,
		OutputDir:     o.outputDir,
	}
}

func runActions(cmd *cobra.Command, global *globalOptions, opts *runOptions) error {
	logger := setupTerminal()

	resolved, err := global.resolve(cmd, logger, opts.values(), opts.flagState(cmd))
	if err != nil {
		logger.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}

	mode, err := resolved.CaptureMode()
	if err != nil {
		logger.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}

	diag := global.diagLogger()
	warnRunningInstances(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	orch := orchestrator.New(
		orchestrator.Config{OutputDir: resolved.OutputDir, Capture: mode},
		process.NewExecRunner(diag),
		logger,
		diag,
	)

	result := orch.Run(ctx, resolved.Installation(), resolved.Request())

	fmt.Fprintln(os.Stderr, orchestrator.RenderSummary(result))

	if ctx.Err() != nil {
		return exitCode(domain.ExitInterrupted)
	}
	return exitCode(result.ExitCode())
}

// warnRunningInstances warns when the console executable is already running.
func warnRunningInstances(logger *terminal.Logger) {
	pids, err := process.RunningInstances(install.ConsoleExeName)
	if err != nil || len(pids) == 0 {
		return
	}
	logger.Logf(terminal.StyleWarning, "%s is already running (pid %v)", install.ConsoleExeName, pids)
}
