// Package terminal provides styled console output and TTY detection.
package terminal

import (
	"os"
	"sync"

	"golang.org/x/term"
)

// ANSI color codes.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Cyan    = "\033[36m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Red     = "\033[31m"
	Magenta = "\033[35m"
)

var (
	colorMu       sync.RWMutex
	colorsEnabled = true
)

// DisableColors turns off color output globally.
func DisableColors() {
	SetColorsEnabled(false)
}

// EnableColors turns on color output globally.
func EnableColors() {
	SetColorsEnabled(true)
}

// SetColorsEnabled sets the color output state. Safe for concurrent use.
func SetColorsEnabled(enabled bool) {
	colorMu.Lock()
	defer colorMu.Unlock()
	colorsEnabled = enabled
}

// ColorsEnabled reports whether colors are currently enabled.
func ColorsEnabled() bool {
	colorMu.RLock()
	defer colorMu.RUnlock()
	return colorsEnabled
}

// WithColorsDisabled runs fn with colors disabled, then restores the previous state.
func WithColorsDisabled(fn func()) {
	colorMu.Lock()
	prev := colorsEnabled
	colorsEnabled = false
	colorMu.Unlock()

	defer SetColorsEnabled(prev)

	fn()
}

// Color returns c if colors are enabled, otherwise an empty string.
func Color(c string) string {
	if ColorsEnabled() {
		return c
	}
	return ""
}

// IsTTY reports whether fd is a terminal.
func IsTTY(fd int) bool {
	return term.IsTerminal(fd)
}

// IsStdinTTY reports whether stdin is a terminal.
func IsStdinTTY() bool {
	return IsTTY(int(os.Stdin.Fd()))
}

// IsStdoutTTY reports whether stdout is a terminal.
func IsStdoutTTY() bool {
	return IsTTY(int(os.Stdout.Fd()))
}

// IsStderrTTY reports whether stderr is a terminal.
func IsStderrTTY() bool {
	return IsTTY(int(os.Stderr.Fd()))
}

// GetTerminalWidth returns the terminal width, or 80 if detection fails.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}
