package domain

import "time"

// VerificationResult is the outcome of looking for a success marker in captured output.
type VerificationResult struct {
	Succeeded      bool
	ExpectedMarker string
	ObservedText   string
}

// ActionResult holds the result of a single action run.
type ActionResult struct {
	Action       Action
	CommandLine  string
	OutputPath   string
	ExitCode     int
	TimedOut     bool
	StartErr     error
	Verification VerificationResult
	Duration     time.Duration
}

// Succeeded reports whether the action started and its output carried the marker.
func (r ActionResult) Succeeded() bool {
	return r.StartErr == nil && !r.TimedOut && r.Verification.Succeeded
}

// Outcome classifies an orchestration run.
type Outcome int

const (
	// OutcomeSucceeded means every requested action succeeded (or none was requested).
	OutcomeSucceeded Outcome = iota
	// OutcomeFailed means at least one requested action failed.
	OutcomeFailed
	// OutcomeConfigError means the request was rejected before any process started.
	OutcomeConfigError
	// OutcomePathError means the executable path failed validation before any process started.
	OutcomePathError
)

// String returns a short name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeConfigError:
		return "configuration error"
	case OutcomePathError:
		return "path validation error"
	default:
		return "unknown"
	}
}

// RunResult is the aggregated verdict of one orchestration run.
type RunResult struct {
	Outcome        Outcome
	Err            error
	ExecutablePath string
	Actions        []ActionResult
	Duration       time.Duration
}

// Succeeded reports whether the overall verdict is success.
func (r RunResult) Succeeded() bool {
	return r.Outcome == OutcomeSucceeded
}

// Failed returns the actions that did not succeed, in execution order.
func (r RunResult) Failed() []ActionResult {
	var failed []ActionResult
	for _, a := range r.Actions {
		if !a.Succeeded() {
			failed = append(failed, a)
		}
	}
	return failed
}

// ExitCode maps the outcome to a process exit code.
func (r RunResult) ExitCode() ExitCode {
	switch r.Outcome {
	case OutcomeSucceeded:
		return ExitSuccess
	case OutcomeFailed:
		return ExitFailure
	default:
		return ExitError
	}
}
