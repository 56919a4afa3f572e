package terminal

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxReportWidth caps the run summary width.
const MaxReportWidth = 90

// FormatDuration formats d for progress and summary lines. Sub-minute
// durations keep a tenth of a second; longer ones are whole seconds.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	return fmt.Sprintf("%dm %02ds", m, s)
}

// Ruler returns a dimmed horizontal rule of width repetitions of char.
func Ruler(width int, char string) string {
	if width < 1 {
		width = 1
	}
	return Color(Dim) + strings.Repeat(char, width) + Color(Reset)
}

// WrapText wraps text at word boundaries so no line is wider than width,
// prefixing every line with indent. Width is counted in runes. A single
// word wider than the line is kept whole.
func WrapText(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	indentWidth := utf8.RuneCountInString(indent)
	if width <= indentWidth {
		return indent + strings.Join(words, " ")
	}

	var lines []string
	var line strings.Builder
	line.WriteString(indent)
	used := indentWidth

	for i, word := range words {
		n := utf8.RuneCountInString(word)
		switch {
		case i == 0:
		case used+1+n > width:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(indent)
			used = indentWidth
		default:
			line.WriteByte(' ')
			used++
		}
		line.WriteString(word)
		used += n
	}
	lines = append(lines, line.String())

	return strings.Join(lines, "\n")
}

// ReportWidth returns the summary width: the terminal width, capped at
// MaxReportWidth.
func ReportWidth() int {
	return min(GetTerminalWidth(), MaxReportWidth)
}
