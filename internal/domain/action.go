package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoProject is returned when a request has no project name.
var ErrNoProject = errors.New("project name is required")

// Action identifies one command-line operation of the console executable.
type Action string

const (
	ActionAnalyze       Action = "analyze"
	ActionReferenceDoc  Action = "reference-doc"
	ActionCodeReviewDoc Action = "code-review-doc"
	ActionListProjects  Action = "list-projects"
)

// String returns the action identifier.
func (a Action) String() string {
	return string(a)
}

// Label returns the human-readable name used in progress output.
func (a Action) Label() string {
	switch a {
	case ActionAnalyze:
		return "Analyze Project"
	case ActionReferenceDoc:
		return "Generate Reference Documentation"
	case ActionCodeReviewDoc:
		return "Generate Code Review Documentation"
	case ActionListProjects:
		return "List Projects"
	default:
		return string(a)
	}
}

// ReportFormat is the format of the inspection report written by the analyze action.
type ReportFormat string

// ReportFormatJUnit is the only report format the console executable accepts.
const ReportFormatJUnit ReportFormat = "JUNIT"

// SupportedReportFormats lists all valid report formats.
var SupportedReportFormats = []ReportFormat{ReportFormatJUnit}

// ParseReportFormat parses a report format case-insensitively.
// An empty string yields the default JUNIT format.
func ParseReportFormat(s string) (ReportFormat, error) {
	if strings.TrimSpace(s) == "" {
		return ReportFormatJUnit, nil
	}
	for _, f := range SupportedReportFormats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported report format %q, supported: %v", s, SupportedReportFormats)
}

// ActionRequest describes which actions to perform for one project.
type ActionRequest struct {
	ProjectName              string
	DoAnalysis               bool
	CreateReferenceDocument  bool
	CreateCodeReviewDocument bool
	GenerateReport           bool
	ReportPath               string
	ReportFormat             ReportFormat
}

// Actions returns the requested actions in execution order.
func (r ActionRequest) Actions() []Action {
	var actions []Action
	if r.DoAnalysis {
		actions = append(actions, ActionAnalyze)
	}
	if r.CreateReferenceDocument {
		actions = append(actions, ActionReferenceDoc)
	}
	if r.CreateCodeReviewDocument {
		actions = append(actions, ActionCodeReviewDoc)
	}
	return actions
}

// HasAction reports whether at least one action is requested.
func (r ActionRequest) HasAction() bool {
	return r.DoAnalysis || r.CreateReferenceDocument || r.CreateCodeReviewDocument
}
