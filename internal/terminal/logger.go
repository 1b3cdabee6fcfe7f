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

// Tag is the prefix printed before every message.
const Tag = "asb"

var styles = map[Style]struct {
	color  string
	symbol string
}{
	StyleInfo:    {Cyan, "I"},
	StyleSuccess: {Green, "✓"},
	StyleWarning: {Yellow, "W"},
	StyleError:   {Red, "!"},
	StyleDim:     {Dim, "·"},
	StylePhase:   {Magenta + Bold, "▸"},
}

// outMu serializes writes so spinner frames and log lines do not interleave.
var outMu sync.Mutex

// Logger provides styled logging to stderr.
type Logger struct {
	out   io.Writer
	isTTY bool
}

// NewLogger creates a new logger writing to stderr.
func NewLogger() *Logger {
	return &Logger{out: os.Stderr, isTTY: IsStderrTTY()}
}

func (l *Logger) writer() io.Writer {
	if l.out == nil {
		return os.Stderr
	}
	return l.out
}

// tag renders "[asb]" with the tag name in the given colour.
func tag(color string) string {
	return fmt.Sprintf("%s[%s%s%s%s%s]%s",
		Color(Dim), Color(Reset), Color(color), Tag, Color(Reset), Color(Dim), Color(Reset))
}

// Log prints a styled log message.
func (l *Logger) Log(msg string, style Style) {
	s, ok := styles[style]
	if !ok {
		s = styles[StyleInfo]
	}

	outMu.Lock()
	defer outMu.Unlock()
	w := l.writer()
	// Clear a spinner line if one is showing.
	if l.isTTY {
		fmt.Fprint(w, "\r"+strings.Repeat(" ", 100)+"\r")
	}
	fmt.Fprintf(w, "%s %s%s%s %s\n", tag(s.color), Color(s.color), s.symbol, Color(Reset), msg)
}

// Logf prints a formatted styled log message.
func (l *Logger) Logf(style Style, format string, args ...any) {
	l.Log(fmt.Sprintf(format, args...), style)
}

// Log prints a styled log message to stderr (package-level function).
func Log(msg string, style Style) {
	NewLogger().Log(msg, style)
}

// Logf prints a formatted styled log message to stderr (package-level function).
func Logf(style Style, format string, args ...any) {
	Log(fmt.Sprintf(format, args...), style)
}
