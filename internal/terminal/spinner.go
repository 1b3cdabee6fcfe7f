package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"
)

const spinnerInterval = 200 * time.Millisecond

var spinnerFrames = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// StatusSpinner shows an animated line whose text follows a job's progress.
// SetStatus may be called from any goroutine.
type StatusSpinner struct {
	out    io.Writer
	isTTY  bool
	status atomic.Value // string
	failed atomic.Bool
}

// NewStatusSpinner creates a spinner showing initial.
func NewStatusSpinner(initial string) *StatusSpinner {
	s := &StatusSpinner{out: os.Stderr, isTTY: IsStderrTTY()}
	s.status.Store(initial)
	return s
}

// SetStatus replaces the text shown next to the spinner.
func (s *StatusSpinner) SetStatus(status string) {
	s.status.Store(status)
}

// Status returns the text currently shown.
func (s *StatusSpinner) Status() string {
	v, _ := s.status.Load().(string)
	return v
}

// Fail marks the final line as a failure.
func (s *StatusSpinner) Fail() {
	s.failed.Store(true)
}

// Run animates the spinner until ctx is cancelled. On a non-TTY it only
// waits, so piped output stays free of control characters.
func (s *StatusSpinner) Run(ctx context.Context) {
	if !s.isTTY {
		<-ctx.Done()
		return
	}

	idx := 0
	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			color, mark := Green, "✓"
			if s.failed.Load() {
				color, mark = Red, "✗"
			}
			s.print(fmt.Sprintf("\r%s %s%s%s %s          \n",
				tag(color), Color(color), mark, Color(Reset), s.Status()))
			return

		case <-ticker.C:
			frame := string(spinnerFrames[idx%len(spinnerFrames)])
			s.print(fmt.Sprintf("\r%s %s%s%s %s          ",
				tag(Cyan), Color(Cyan), frame, Color(Reset), s.Status()))
			idx++
		}
	}
}

func (s *StatusSpinner) print(line string) {
	outMu.Lock()
	defer outMu.Unlock()
	fmt.Fprint(s.out, line)
}
