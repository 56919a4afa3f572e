package terminal

import (
	"context"
	"fmt"
	"os"
	"time"
)

const spinnerInterval = 200 * time.Millisecond

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// PhaseSpinner animates a label on stderr while a blocking step runs.
type PhaseSpinner struct {
	isTTY bool
	label string
	start time.Time
}

// NewPhaseSpinner creates a new phase spinner.
func NewPhaseSpinner(label string) *PhaseSpinner {
	return &PhaseSpinner{
		isTTY: IsStderrTTY(),
		label: label,
	}
}

// Run draws the spinner until ctx is cancelled. On a non-TTY it only waits.
func (s *PhaseSpinner) Run(ctx context.Context) {
	if !s.isTTY {
		<-ctx.Done()
		return
	}

	s.start = time.Now()
	idx := 0
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Leave the line clean for the logger.
			fmt.Fprint(os.Stderr, "\r"+s.frame(' ')+"          \r")
			return

		case <-ticker.C:
			fmt.Fprint(os.Stderr, "\r"+s.frame(spinnerFrames[idx%len(spinnerFrames)])+"          ")
			idx++
		}
	}
}

func (s *PhaseSpinner) frame(r rune) string {
	elapsed := time.Since(s.start).Truncate(time.Second)
	return fmt.Sprintf("%s %s%c%s %s %s(%s)%s",
		tag(Cyan), Color(Cyan), r, Color(Reset), s.label, Color(Dim), FormatDuration(elapsed), Color(Reset))
}
