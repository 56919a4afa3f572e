package main

import (
	"context"
	"fmt"

	"github.com/novalys/ve-runner/internal/domain"
	"github.com/novalys/ve-runner/internal/terminal"
)

// exitCodeError is a wrapper type for returning exit codes via error interface.
type exitCodeError struct {
	code domain.ExitCode
}

func (e exitCodeError) Error() string {
	switch e.code {
	case domain.ExitFailure:
		return "one or more actions failed"
	case domain.ExitError:
		return "configuration or installation error"
	case domain.ExitInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("exit code %d", e.code)
	}
}

func exitCode(code domain.ExitCode) error {
	if code == domain.ExitSuccess {
		return nil
	}
	return exitCodeError{code: code}
}

// withSpinner runs fn while spinner animates.
func withSpinner[T any](ctx context.Context, spinner *terminal.PhaseSpinner, fn func() T) T {
	spinnerCtx, spinnerCancel := context.WithCancel(ctx)
	spinnerDone := make(chan struct{})
	go func() {
		spinner.Run(spinnerCtx)
		close(spinnerDone)
	}()

	result := fn()

	spinnerCancel()
	<-spinnerDone
	return result
}
