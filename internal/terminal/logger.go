package terminal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Style represents a log message style.
type Style string

const (
	StyleInfo    Style = "info"
	StyleSuccess Style = "success"
	StyleWarning Style = "warning"
	StyleError   Style = "error"
	StyleDim     Style = "dim"
	StylePhase   Style = "phase"
)

// Tag is the prefix printed before every log line.
const Tag = "verun"

// Logger writes styled progress lines, to stderr unless built with NewLoggerTo.
// A Logger is safe for concurrent use.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	isTTY bool
}

// NewLogger creates a logger writing to stderr.
func NewLogger() *Logger {
	return &Logger{
		out:   os.Stderr,
		isTTY: IsStderrTTY(),
	}
}

// NewLoggerTo creates a logger writing to w. The line is never cleared
// before writing.
func NewLoggerTo(w io.Writer) *Logger {
	return &Logger{out: w}
}

func styleColor(style Style) string {
	switch style {
	case StyleSuccess:
		return Green
	case StyleWarning:
		return Yellow
	case StyleError:
		return Red
	case StyleDim:
		return Dim
	case StylePhase:
		return Magenta + Bold
	default:
		return Cyan
	}
}

func styleSymbol(style Style) string {
	switch style {
	case StyleSuccess:
		return "✓"
	case StyleWarning:
		return "W"
	case StyleError:
		return "!"
	case StyleDim:
		return "·"
	case StylePhase:
		return "▸"
	default:
		return "I"
	}
}

func tag(color string) string {
	return fmt.Sprintf("%s[%s%s%s%s%s]%s",
		Color(Dim), Color(Reset), Color(color), Tag, Color(Reset), Color(Dim), Color(Reset))
}

// Log prints a styled log message.
func (l *Logger) Log(msg string, style Style) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := l.out
	if out == nil {
		out = os.Stderr
	}

	// Overwrite a spinner frame left on the line.
	if l.isTTY {
		fmt.Fprint(out, "\r"+strings.Repeat(" ", 100)+"\r")
	}

	color := styleColor(style)
	fmt.Fprintf(out, "%s %s%s%s %s\n", tag(color), Color(color), styleSymbol(style), Color(Reset), msg)
}

// Logf prints a formatted styled log message.
func (l *Logger) Logf(style Style, format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...), style)
}

// Log prints a styled log message to stderr.
func Log(msg string, style Style) {
	NewLogger().Log(msg, style)
}

// Logf prints a formatted styled log message to stderr.
func Logf(style Style, format string, args ...any) {
	Log(fmt.Sprintf(format, args...), style)
}
