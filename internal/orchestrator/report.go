package orchestrator

import (
	"fmt"
	"strings"

	"github.com/novalys/ve-runner/internal/domain"
	"github.com/novalys/ve-runner/internal/terminal"
)

const maxObservedLines = 10

// RenderSummary renders a terminal summary of a run.
func RenderSummary(result domain.RunResult) string {
	width := terminal.ReportWidth()

	var lines []string

	if result.Outcome == domain.OutcomeConfigError || result.Outcome == domain.OutcomePathError {
		lines = append(lines, "")
		lines = append(lines, fmt.Sprintf("%s✗ %s%s", terminal.Color(terminal.Red), capitalize(result.Outcome.String()), terminal.Color(terminal.Reset)))
		lines = append(lines, terminal.Ruler(width, "─"))
		lines = append(lines, fmt.Sprintf("  %v", result.Err))
		lines = append(lines, fmt.Sprintf("  %sNo action was started.%s", terminal.Color(terminal.Dim), terminal.Color(terminal.Reset)))
		return strings.Join(lines, "\n")
	}

	if len(result.Actions) == 0 {
		lines = append(lines, fmt.Sprintf("%s✓%s Nothing to do", terminal.Color(terminal.Green), terminal.Color(terminal.Reset)))
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("%s%sActions%s", terminal.Color(terminal.Cyan), terminal.Color(terminal.Bold), terminal.Color(terminal.Reset)))
	lines = append(lines, terminal.Ruler(width, "━"))

	for _, ar := range result.Actions {
		mark := fmt.Sprintf("%s✓%s", terminal.Color(terminal.Green), terminal.Color(terminal.Reset))
		if !ar.Succeeded() {
			mark = fmt.Sprintf("%s✗%s", terminal.Color(terminal.Red), terminal.Color(terminal.Reset))
		}
		lines = append(lines, fmt.Sprintf("%s %s%s%s %s(%s)%s",
			mark, terminal.Color(terminal.Bold), ar.Action.Label(), terminal.Color(terminal.Reset),
			terminal.Color(terminal.Dim), terminal.FormatDuration(ar.Duration), terminal.Color(terminal.Reset)))

		if ar.Succeeded() {
			continue
		}
		lines = append(lines, failureDetail(ar)...)
	}

	lines = append(lines, terminal.Ruler(width, "━"))

	if outputs := outputPaths(result.Actions); len(outputs) > 0 {
		lines = append(lines, fmt.Sprintf("%sCaptured output:%s", terminal.Color(terminal.Dim), terminal.Color(terminal.Reset)))
		for _, p := range outputs {
			lines = append(lines, fmt.Sprintf("  %s%s%s", terminal.Color(terminal.Dim), p, terminal.Color(terminal.Reset)))
		}
	}

	if result.Succeeded() {
		lines = append(lines, fmt.Sprintf("%s✓%s %s%sSucceeded%s %s(%s)%s",
			terminal.Color(terminal.Green), terminal.Color(terminal.Reset),
			terminal.Color(terminal.Green), terminal.Color(terminal.Bold), terminal.Color(terminal.Reset),
			terminal.Color(terminal.Dim), Describe(result), terminal.Color(terminal.Reset)))
	} else {
		lines = append(lines, fmt.Sprintf("%s✗%s %s%sFailed%s %s(%s)%s",
			terminal.Color(terminal.Red), terminal.Color(terminal.Reset),
			terminal.Color(terminal.Red), terminal.Color(terminal.Bold), terminal.Color(terminal.Reset),
			terminal.Color(terminal.Dim), Describe(result), terminal.Color(terminal.Reset)))
	}

	return strings.Join(lines, "\n")
}

func failureDetail(ar domain.ActionResult) []string {
	var lines []string
	switch {
	case ar.TimedOut:
		lines = append(lines, "  Timed out")
	case ar.StartErr != nil:
		lines = append(lines, terminal.WrapText(ar.StartErr.Error(), terminal.ReportWidth(), "  "))
	default:
		lines = append(lines, fmt.Sprintf("  Marker not found: %q", ar.Verification.ExpectedMarker))
		lines = append(lines, fmt.Sprintf("  Exit code: %d", ar.ExitCode))
	}

	observed := strings.TrimRight(ar.Verification.ObservedText, "\r\n")
	if observed == "" {
		return lines
	}
	lines = append(lines, fmt.Sprintf("  %sOutput:%s", terminal.Color(terminal.Dim), terminal.Color(terminal.Reset)))
	for i, line := range strings.Split(observed, "\n") {
		if i >= maxObservedLines {
			lines = append(lines, fmt.Sprintf("  %s...%s", terminal.Color(terminal.Dim), terminal.Color(terminal.Reset)))
			break
		}
		lines = append(lines, fmt.Sprintf("  %s%s%s", terminal.Color(terminal.Dim), strings.TrimRight(line, "\r"), terminal.Color(terminal.Reset)))
	}
	return lines
}

// outputPaths returns the distinct capture files in first-use order.
func outputPaths(actions []domain.ActionResult) []string {
	var paths []string
	seen := make(map[string]bool)
	for _, ar := range actions {
		if ar.OutputPath == "" || seen[ar.OutputPath] {
			continue
		}
		seen[ar.OutputPath] = true
		paths = append(paths, ar.OutputPath)
	}
	return paths
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
