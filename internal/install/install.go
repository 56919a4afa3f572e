// Package install resolves and validates the Visual Expert console executable.
package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ConsoleExeName is the file name of the Visual Expert console executable.
const ConsoleExeName = "NOVALYS.VISUALEXPERT.CONSOLE.EXE"

// DefaultInstallPath is used when no installation directory is configured.
const DefaultInstallPath = `C:\Program Files\Novalys\Visual Expert 2023\`

var (
	// ErrMissingInstallPath is returned when the installation directory is empty.
	ErrMissingInstallPath = errors.New("installation path is required")
	// ErrInvalidExecutablePath is returned when the resolved path does not name the console executable.
	ErrInvalidExecutablePath = errors.New("installation path does not resolve to " + ConsoleExeName)
	// ErrExecutableNotFound is returned when the console executable does not exist on disk.
	ErrExecutableNotFound = errors.New("console executable not found")
)

// Installation is a registered location of the console executable.
type Installation struct {
	// Dir is the directory containing the console executable.
	Dir string
	// DefaultArgs are extra arguments appended to every invocation,
	// written as a single shell-style string.
	DefaultArgs string
}

// ResolveExecutable joins dir and exeName with exactly one separator and
// normalizes the result. It does not touch the filesystem.
func ResolveExecutable(dir, exeName string) string {
	dir = strings.TrimRight(dir, `/\`)
	if dir == "" {
		return filepath.Clean(string(filepath.Separator) + exeName)
	}
	return filepath.Clean(dir + string(filepath.Separator) + exeName)
}

// IsValidExecutablePath reports whether the final element of path equals
// exeName, ignoring case. Any path whose file name differs is rejected no
// matter how it normalizes.
func IsValidExecutablePath(path, exeName string) bool {
	if path == "" || exeName == "" {
		return false
	}
	if !strings.HasSuffix(strings.ToUpper(path), strings.ToUpper(exeName)) {
		return false
	}
	return strings.EqualFold(filepath.Base(path), exeName)
}

// ExecutablePath resolves and guards the console executable path for the installation.
func (i Installation) ExecutablePath() (string, error) {
	if strings.TrimSpace(i.Dir) == "" {
		return "", ErrMissingInstallPath
	}
	path := ResolveExecutable(i.Dir, ConsoleExeName)
	if !IsValidExecutablePath(path, ConsoleExeName) {
		return "", fmt.Errorf("%w: %s", ErrInvalidExecutablePath, path)
	}
	return path, nil
}

// Validate resolves the executable path and checks that it exists on disk.
// Returns the resolved path on success.
func (i Installation) Validate() (string, error) {
	path, err := i.ExecutablePath()
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrExecutableNotFound, path)
		}
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrExecutableNotFound, path)
	}
	return path, nil
}
