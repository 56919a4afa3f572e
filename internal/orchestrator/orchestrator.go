// Package orchestrator drives the requested console actions for one project
// and folds their outcomes into a single verdict.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/novalys/ve-runner/internal/capture"
	"github.com/novalys/ve-runner/internal/command"
	"github.com/novalys/ve-runner/internal/domain"
	"github.com/novalys/ve-runner/internal/install"
	"github.com/novalys/ve-runner/internal/process"
	"github.com/novalys/ve-runner/internal/terminal"
)

// ErrReportPathRequired is returned when a report is requested for the
// analysis without a destination path.
var ErrReportPathRequired = errors.New("report path is required when report generation is enabled")

// Config holds the orchestrator configuration.
type Config struct {
	// OutputDir receives the captured output files. Empty uses the system temp dir.
	OutputDir string
	Capture   capture.Mode
}

// Orchestrator runs actions sequentially against one installation.
type Orchestrator struct {
	config   Config
	runner   process.Runner
	verifier *capture.Verifier
	logger   *terminal.Logger
	diag     hclog.Logger
}

// New creates an orchestrator. A nil diag logger discards diagnostics.
func New(config Config, runner process.Runner, logger *terminal.Logger, diag hclog.Logger) *Orchestrator {
	if diag == nil {
		diag = hclog.NewNullLogger()
	}
	if config.Capture == "" {
		config.Capture = capture.ModeShared
	}
	return &Orchestrator{
		config:   config,
		runner:   runner,
		verifier: capture.NewVerifier(diag),
		logger:   logger,
		diag:     diag,
	}
}

// Run executes every action req asks for, in order, and returns the
// aggregated verdict. Configuration and path problems stop the run before
// any process starts; a failed action never stops the ones after it.
func (o *Orchestrator) Run(ctx context.Context, inst install.Installation, req domain.ActionRequest) domain.RunResult {
	start := time.Now()
	result := o.run(ctx, inst, req)
	result.Duration = time.Since(start)
	return result
}

func (o *Orchestrator) run(ctx context.Context, inst install.Installation, req domain.ActionRequest) domain.RunResult {
	exePath, err := inst.Validate()
	if err != nil {
		outcome := domain.OutcomePathError
		if errors.Is(err, install.ErrMissingInstallPath) {
			outcome = domain.OutcomeConfigError
		}
		o.logger.Logf(terminal.StyleError, "%v", err)
		return domain.RunResult{Outcome: outcome, Err: err}
	}

	o.echo(inst, exePath, req)

	if err := checkRequest(req); err != nil {
		o.logger.Logf(terminal.StyleError, "%v", err)
		return domain.RunResult{Outcome: domain.OutcomeConfigError, Err: err, ExecutablePath: exePath}
	}

	builder, err := command.NewBuilder(exePath, inst.DefaultArgs)
	if err != nil {
		o.logger.Logf(terminal.StyleError, "%v", err)
		return domain.RunResult{Outcome: domain.OutcomeConfigError, Err: err, ExecutablePath: exePath}
	}

	result := domain.RunResult{Outcome: domain.OutcomeSucceeded, ExecutablePath: exePath}
	actions := req.Actions()
	if len(actions) == 0 {
		o.logger.Log("No action requested", terminal.StyleWarning)
		return result
	}

	var sharedPath string
	for _, action := range actions {
		outputPath := sharedPath
		if outputPath == "" || o.config.Capture == capture.ModePerAction {
			outputPath, err = capture.NewOutputFile(o.config.OutputDir)
			if err != nil {
				o.logger.Logf(terminal.StyleError, "%s: %v", action.Label(), err)
				result.Actions = append(result.Actions, domain.ActionResult{Action: action, StartErr: err})
				result.Outcome = domain.OutcomeFailed
				continue
			}
			if o.config.Capture == capture.ModeShared {
				sharedPath = outputPath
			}
		}

		ar := o.runAction(ctx, builder, action, req, outputPath)
		result.Actions = append(result.Actions, ar)
		if !ar.Succeeded() {
			result.Outcome = domain.OutcomeFailed
		}
		if ctx.Err() != nil {
			result.Outcome = domain.OutcomeFailed
			result.Err = ctx.Err()
			return result
		}
	}

	return result
}

func checkRequest(req domain.ActionRequest) error {
	if req.DoAnalysis && req.GenerateReport && req.ReportPath == "" {
		return ErrReportPathRequired
	}
	if req.HasAction() && req.ProjectName == "" {
		return domain.ErrNoProject
	}
	if req.DoAnalysis && req.GenerateReport {
		if _, err := domain.ParseReportFormat(string(req.ReportFormat)); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) runAction(ctx context.Context, builder *command.Builder, action domain.Action, req domain.ActionRequest, outputPath string) domain.ActionResult {
	start := time.Now()
	ar := domain.ActionResult{Action: action, OutputPath: outputPath}

	inv, err := builder.Build(action, req)
	if err != nil {
		ar.StartErr = err
		ar.Duration = time.Since(start)
		o.logger.Logf(terminal.StyleError, "%s: %v", action.Label(), err)
		return ar
	}
	ar.CommandLine = inv.String()

	o.logger.Logf(terminal.StylePhase, "%s", action.Label())
	o.logger.Logf(terminal.StyleDim, "%s", ar.CommandLine)

	sink, err := capture.OpenSink(outputPath)
	if err != nil {
		ar.StartErr = err
		ar.Duration = time.Since(start)
		o.logger.Logf(terminal.StyleError, "%s: %v", action.Label(), err)
		return ar
	}

	spinner := terminal.NewPhaseSpinner(action.Label())
	spinnerCtx, spinnerCancel := context.WithCancel(context.Background())
	spinnerDone := make(chan struct{})
	go func() {
		spinner.Run(spinnerCtx)
		close(spinnerDone)
	}()

	res, runErr := o.runner.Run(ctx, inv, sink, 0)

	spinnerCancel()
	<-spinnerDone

	if err := sink.Close(); err != nil {
		o.diag.Warn("failed to close output file", "path", outputPath, "error", err)
	}

	ar.ExitCode = res.ExitCode
	ar.TimedOut = res.TimedOut || errors.Is(runErr, process.ErrTimeout)
	if runErr != nil && !ar.TimedOut {
		ar.StartErr = runErr
	}

	ar.Verification = o.verifier.VerifyFrom(outputPath, sink.Offset, capture.MarkerFor(action), true)
	ar.Duration = time.Since(start)

	o.reportAction(ar, runErr)
	return ar
}

func (o *Orchestrator) reportAction(ar domain.ActionResult, runErr error) {
	label := ar.Action.Label()
	switch {
	case ar.TimedOut:
		o.logger.Logf(terminal.StyleError, "%s timed out after %s", label, terminal.FormatDuration(ar.Duration))
	case ar.StartErr != nil:
		o.logger.Logf(terminal.StyleError, "%s could not run: %v", label, runErr)
	case ar.Verification.Succeeded:
		o.logger.Logf(terminal.StyleSuccess, "%s succeeded %s(%s)%s",
			label, terminal.Color(terminal.Dim), terminal.FormatDuration(ar.Duration), terminal.Color(terminal.Reset))
	default:
		o.logger.Logf(terminal.StyleError, "%s failed: %q not found in %s (exit %d)",
			label, ar.Verification.ExpectedMarker, ar.OutputPath, ar.ExitCode)
	}
}

func (o *Orchestrator) echo(inst install.Installation, exePath string, req domain.ActionRequest) {
	o.logger.Logf(terminal.StyleInfo, "Installation path: %s", inst.Dir)
	o.logger.Logf(terminal.StyleInfo, "Console executable: %s", exePath)
	o.logger.Logf(terminal.StyleInfo, "Project: %s", displayProject(req.ProjectName))
	o.logger.Logf(terminal.StyleInfo, "Analyze: %t", req.DoAnalysis)
	if req.DoAnalysis {
		o.logger.Logf(terminal.StyleInfo, "Generate report: %t", req.GenerateReport)
		if req.GenerateReport {
			o.logger.Logf(terminal.StyleInfo, "Report path: %s (%s)", req.ReportPath, reportFormat(req.ReportFormat))
		}
	}
	o.logger.Logf(terminal.StyleInfo, "Reference document: %t", req.CreateReferenceDocument)
	o.logger.Logf(terminal.StyleInfo, "Code review document: %t", req.CreateCodeReviewDocument)
	if inst.DefaultArgs != "" {
		o.logger.Logf(terminal.StyleInfo, "Default arguments: %s", inst.DefaultArgs)
	}
}

func displayProject(name string) string {
	if name == "" {
		return "(none)"
	}
	return command.Quote(name)
}

func reportFormat(f domain.ReportFormat) domain.ReportFormat {
	if f == "" {
		return domain.ReportFormatJUnit
	}
	return f
}

// Describe returns a one-line description of the outcome of result.
func Describe(result domain.RunResult) string {
	switch result.Outcome {
	case domain.OutcomeSucceeded:
		return fmt.Sprintf("%d/%d actions succeeded", len(result.Actions), len(result.Actions))
	case domain.OutcomeFailed:
		if result.Err != nil {
			return fmt.Sprintf("interrupted: %v", result.Err)
		}
		return fmt.Sprintf("%d/%d actions failed", len(result.Failed()), len(result.Actions))
	default:
		return fmt.Sprintf("%s: %v", result.Outcome, result.Err)
	}
}
