// Package process runs console executable invocations as child processes.
package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/novalys/ve-runner/internal/command"
)

// ListTimeout bounds the project-listing invocation.
const ListTimeout = 300 * time.Second

// waitDelay bounds how long Wait keeps output pipes open after the child is killed.
const waitDelay = 5 * time.Second

var (
	// ErrStart is returned when the child process could not be started.
	ErrStart = errors.New("process could not be started")
	// ErrTimeout is returned when the child process outlived its timeout and was terminated.
	ErrTimeout = errors.New("process timed out")
)

// Result describes a finished child process.
type Result struct {
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Runner executes an invocation, writing the child's standard output to stdout.
// A zero timeout blocks until the child exits. Exit codes are reported but
// never interpreted; the only errors are ErrStart, ErrTimeout and context
// cancellation.
type Runner interface {
	Run(ctx context.Context, inv command.Invocation, stdout io.Writer, timeout time.Duration) (Result, error)
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct {
	// Stderr receives the child's standard error. Nil inherits the parent's.
	Stderr io.Writer
	Logger hclog.Logger
}

// NewExecRunner creates an ExecRunner logging to logger. A nil logger discards.
func NewExecRunner(logger hclog.Logger) *ExecRunner {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &ExecRunner{Logger: logger}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, inv command.Invocation, stdout io.Writer, timeout time.Duration) (Result, error) {
	logger := r.logger()

	runCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// #nosec G204 - the path has passed the console executable name guard.
	cmd := exec.CommandContext(runCtx, inv.Path, inv.Args...)
	cmd.Stdout = stdout
	cmd.Stderr = r.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		logger.Debug("start failed", "path", inv.Path, "error", err)
		return Result{ExitCode: -1}, fmt.Errorf("%w: %s: %v", ErrStart, inv.Path, err)
	}
	logger.Debug("started", "action", inv.Action, "pid", cmd.Process.Pid, "args", inv.Args)

	waitErr := cmd.Wait()
	result := Result{Duration: time.Since(start)}

	if ctx.Err() != nil {
		result.ExitCode = -1
		return result, ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.ExitCode = -1
		result.TimedOut = true
		logger.Warn("timed out", "action", inv.Action, "timeout", timeout)
		return result, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else if !errors.Is(waitErr, exec.ErrWaitDelay) {
			result.ExitCode = -1
			logger.Debug("wait failed", "action", inv.Action, "error", waitErr)
		}
	}

	logger.Debug("exited", "action", inv.Action, "exit_code", result.ExitCode, "duration", result.Duration)
	return result, nil
}

func (r *ExecRunner) logger() hclog.Logger {
	if r.Logger == nil {
		return hclog.NewNullLogger()
	}
	return r.Logger
}
