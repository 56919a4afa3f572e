// Package command builds console executable invocations for each action.
package command

import (
	"fmt"
	"strings"

	"github.com/google/shlex"

	"github.com/novalys/ve-runner/internal/domain"
)

// Invocation is one fully-built call of the console executable.
// Args holds the argument vector handed to the process layer; quoting in
// String is for display only.
type Invocation struct {
	Action domain.Action
	Path   string
	Args   []string
}

// String renders the invocation as a single command line, single-quoting
// the project name and report values the way the console documentation shows them.
func (inv Invocation) String() string {
	parts := make([]string, 0, len(inv.Args)+1)
	parts = append(parts, quoteIfNeeded(inv.Path))
	quoteNext := false
	for _, arg := range inv.Args {
		if quoteNext {
			parts = append(parts, Quote(arg))
			quoteNext = false
			continue
		}
		parts = append(parts, quoteIfNeeded(arg))
		switch arg {
		case "-p", "-O", "--ReportFormat":
			quoteNext = true
		}
	}
	return strings.Join(parts, " ")
}

// Builder assembles invocations against a resolved executable path.
type Builder struct {
	ExecutablePath string
	// DefaultArgs are appended to every invocation.
	DefaultArgs []string
}

// NewBuilder creates a Builder, tokenizing the installation's default args.
func NewBuilder(executablePath, defaultArgs string) (*Builder, error) {
	args, err := Tokenize(defaultArgs)
	if err != nil {
		return nil, fmt.Errorf("invalid default args: %w", err)
	}
	return &Builder{ExecutablePath: executablePath, DefaultArgs: args}, nil
}

// Build returns the invocation for action. Build is pure: identical inputs
// always produce identical argument vectors.
func (b *Builder) Build(action domain.Action, req domain.ActionRequest) (Invocation, error) {
	var args []string
	switch action {
	case domain.ActionAnalyze:
		args = analyzeArgs(req)
	case domain.ActionReferenceDoc:
		args = docArgs(req.ProjectName, "reference")
	case domain.ActionCodeReviewDoc:
		args = docArgs(req.ProjectName, "codereview")
	case domain.ActionListProjects:
		args = []string{"-L"}
	default:
		return Invocation{}, fmt.Errorf("unknown action %q", action)
	}

	if action != domain.ActionListProjects && req.ProjectName == "" {
		return Invocation{}, domain.ErrNoProject
	}

	args = append(args, b.DefaultArgs...)
	return Invocation{Action: action, Path: b.ExecutablePath, Args: args}, nil
}

// ListProjects returns the project-listing invocation.
func (b *Builder) ListProjects() Invocation {
	inv, _ := b.Build(domain.ActionListProjects, domain.ActionRequest{})
	return inv
}

func analyzeArgs(req domain.ActionRequest) []string {
	args := []string{"-a", "-p", req.ProjectName}
	if req.GenerateReport {
		format := req.ReportFormat
		if format == "" {
			format = domain.ReportFormatJUnit
		}
		args = append(args, "-O", req.ReportPath, "--ReportFormat", string(format))
	}
	return args
}

func docArgs(project, docType string) []string {
	return []string{"-d", "-p", project, "-t", docType}
}

// Tokenize splits a command-line fragment into arguments, keeping quoted
// substrings together as single tokens.
func Tokenize(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return shlex.Split(s)
}

// Quote wraps s in single quotes. Embedded single quotes are closed,
// escaped and reopened so the result tokenizes back to s.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n'\"\\$`") {
		return Quote(s)
	}
	return s
}
