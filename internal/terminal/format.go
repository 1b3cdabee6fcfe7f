package terminal

import (
	"fmt"
	"strings"
	"time"
)

// MaxReportWidth caps report width on wide terminals.
const MaxReportWidth = 90

// FormatDuration renders d as "4.2s" under a minute and "3m 5.0s" above.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	mins := d / time.Minute
	return fmt.Sprintf("%dm %.1fs", mins, (d - mins*time.Minute).Seconds())
}

// Ruler returns a dimmed horizontal rule.
func Ruler(width int, char string) string {
	return Color(Dim) + strings.Repeat(char, width) + Color(Reset)
}

// WrapText greedily fills lines up to width, prefixing each with indent.
// Words longer than a line are kept whole.
func WrapText(text string, width int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if width <= len(indent) {
		return indent + strings.Join(words, " ")
	}

	var out []string
	line := indent + words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			out = append(out, line)
			line = indent + w
			continue
		}
		line += " " + w
	}
	return strings.Join(append(out, line), "\n")
}

// ReportWidth is the terminal width capped at MaxReportWidth.
func ReportWidth() int {
	return min(GetTerminalWidth(), MaxReportWidth)
}

// FormatBytes formats a byte count with a binary unit.
func FormatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
