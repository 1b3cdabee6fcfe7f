// Package terminal renders human-facing CLI output: the [asb] tagged
// logger, progress spinners and report formatting helpers.
package terminal

import (
	"os"
	"sync/atomic"

	"golang.org/x/term"
)

// ANSI color codes.
const (
	Reset   = "\033[0m"
	Bold    = "\033[1m"
	Dim     = "\033[2m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Magenta = "\033[35m"
	Cyan    = "\033[36m"
)

// defaultWidth is used when the terminal size cannot be read.
const defaultWidth = 80

var colorsOff atomic.Bool

// DisableColors turns off color output for the process.
func DisableColors() { colorsOff.Store(true) }

// EnableColors turns color output back on.
func EnableColors() { colorsOff.Store(false) }

// ColorsEnabled reports whether Color returns escape codes.
func ColorsEnabled() bool { return !colorsOff.Load() }

// ConfigureColors decides once per process whether output is coloured.
// Colours are off when noColor is set, NO_COLOR is present in the
// environment, or stderr is not a terminal.
func ConfigureColors(noColor bool) {
	_, envNoColor := os.LookupEnv("NO_COLOR")
	colorsOff.Store(noColor || envNoColor || !IsStderrTTY())
}

// Color returns c, or "" when colors are disabled.
func Color(c string) string {
	if colorsOff.Load() {
		return ""
	}
	return c
}

// IsStderrTTY reports whether stderr is a terminal. Spinners and line
// clearing only happen when it is.
func IsStderrTTY() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// GetTerminalWidth returns the stdout width, or 80 if it is not a terminal.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
