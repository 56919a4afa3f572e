// Package domain provides core types for the Visual Expert build step runner.
package domain

// ExitCode represents the exit status of verun.
type ExitCode int

const (
	// ExitSuccess indicates every requested action succeeded.
	ExitSuccess ExitCode = 0
	// ExitFailure indicates at least one requested action failed.
	ExitFailure ExitCode = 1
	// ExitError indicates a configuration or installation error; no action ran.
	ExitError ExitCode = 2
	// ExitInterrupted indicates the run was interrupted by a signal.
	ExitInterrupted ExitCode = 130
)

// Int returns the exit code as an int for use with os.Exit.
func (e ExitCode) Int() int {
	return int(e)
}
