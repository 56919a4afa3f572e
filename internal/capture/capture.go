// Package capture manages the files that receive console executable output
// and checks them for success markers.
package capture

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/novalys/ve-runner/internal/domain"
)

// Success markers written to standard output by the console executable.
const (
	AnalyzeMarker       = "Analysis completed successfully for the project"
	DocumentationMarker = "Documentation generated for the project"
)

// MarkerFor returns the success marker for action. Both documentation
// actions share one marker.
func MarkerFor(action domain.Action) string {
	switch action {
	case domain.ActionAnalyze:
		return AnalyzeMarker
	case domain.ActionReferenceDoc, domain.ActionCodeReviewDoc:
		return DocumentationMarker
	default:
		return ""
	}
}

// Mode selects how output files are allocated within one run.
type Mode string

const (
	// ModeShared writes every action of a run into one file.
	ModeShared Mode = "shared"
	// ModePerAction allocates a fresh file for each action.
	ModePerAction Mode = "per-action"
)

// SupportedModes lists all valid capture modes.
var SupportedModes = []Mode{ModeShared, ModePerAction}

// ParseMode parses a capture mode. Empty means ModeShared.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeShared:
		return ModeShared, nil
	case ModePerAction:
		return ModePerAction, nil
	default:
		return "", fmt.Errorf("unknown capture mode %q, supported: %v", s, SupportedModes)
	}
}

// NewOutputFile creates an empty, uniquely named output file in dir.
// An empty dir uses the system temp directory. The file is never removed
// by this package.
func NewOutputFile(dir string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("verun-output-%s.log", uuid.New().String()))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return path, nil
	}
	return absPath, nil
}

// Sink is an open output file positioned for appending.
type Sink struct {
	*os.File
	// Offset is the file size when the sink was opened; bytes written by
	// the current action start here.
	Offset int64
}

// OpenSink opens path for appending and records its current size.
func OpenSink(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to stat output file %s: %w", path, err)
	}
	return &Sink{File: f, Offset: info.Size()}, nil
}

// Verifier reads captured output back and looks for success markers.
type Verifier struct {
	Logger hclog.Logger
}

// NewVerifier creates a Verifier. A nil logger discards diagnostics.
func NewVerifier(logger hclog.Logger) *Verifier {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Verifier{Logger: logger}
}

// Verify reads the whole file at path and reports whether marker occurs in it.
// A missing file reads as empty. When required is false a missing marker is
// only noted and the result still succeeds.
func (v *Verifier) Verify(path, marker string, required bool) domain.VerificationResult {
	return v.VerifyFrom(path, 0, marker, required)
}

// VerifyFrom is Verify restricted to the bytes at or after offset, so that
// one action's verdict ignores what earlier actions wrote to a shared file.
func (v *Verifier) VerifyFrom(path string, offset int64, marker string, required bool) domain.VerificationResult {
	text := v.readFrom(path, offset)
	found := strings.Contains(text, marker)
	if !found && !required {
		v.logger().Info("marker not found", "path", path, "marker", marker)
	}
	return domain.VerificationResult{
		Succeeded:      found || !required,
		ExpectedMarker: marker,
		ObservedText:   text,
	}
}

func (v *Verifier) readFrom(path string, offset int64) string {
	f, err := os.Open(path)
	if err != nil {
		if !os.IsNotExist(err) {
			v.logger().Warn("failed to open captured output", "path", path, "error", err)
		}
		return ""
	}
	defer f.Close()

	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			v.logger().Warn("failed to seek captured output", "path", path, "offset", offset, "error", err)
			return ""
		}
	}
	data, err := io.ReadAll(f)
	if err != nil {
		v.logger().Warn("failed to read captured output", "path", path, "error", err)
		return ""
	}
	return string(data)
}

func (v *Verifier) logger() hclog.Logger {
	if v.Logger == nil {
		return hclog.NewNullLogger()
	}
	return v.Logger
}
