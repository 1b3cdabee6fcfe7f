package terminal

import (
	"strings"
	"testing"
	"time"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		width  int
		indent string
		want   string
	}{
		{name: "empty", text: "", width: 50, indent: "  ", want: ""},
		{name: "whitespace only", text: "   \n\t ", width: 50, want: ""},
		{name: "fits", text: "build succeeded", width: 40, want: "build succeeded"},
		{name: "wraps at word boundary", text: "word1 word2 word3", width: 12, want: "word1 word2\nword3"},
		{name: "indent on every line", text: "First Second Third", width: 15, indent: ">>> ", want: ">>> First\n>>> Second\n>>> Third"},
		{name: "long word kept whole", text: "see ./app/[...slug]/page.tsx now", width: 10, want: "see\n./app/[...slug]/page.tsx\nnow"},
		{name: "indent wider than width", text: "a  b", width: 2, indent: "    ", want: "    a b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapText(tt.text, tt.width, tt.indent); got != tt.want {
				t.Errorf("WrapText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapText_RespectsWidth(t *testing.T) {
	text := "Module not found: Can't resolve '../layout/Footer' in the components directory of the site"
	for i, line := range strings.Split(WrapText(text, 30, "  "), "\n") {
		if len(line) > 30 {
			t.Errorf("line %d exceeds width: %q", i, line)
		}
		if !strings.HasPrefix(line, "  ") {
			t.Errorf("line %d missing indent: %q", i, line)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		dur  time.Duration
		want string
	}{
		{0, "0.0s"},
		{500 * time.Millisecond, "0.5s"},
		{45*time.Second + 300*time.Millisecond, "45.3s"},
		{59*time.Second + 999*time.Millisecond, "60.0s"},
		{time.Minute, "1m 0.0s"},
		{2*time.Minute + 45*time.Second + 500*time.Millisecond, "2m 45.5s"},
		{10 * time.Minute, "10m 0.0s"},
	}
	for _, tt := range tests {
		t.Run(tt.dur.String(), func(t *testing.T) {
			if got := FormatDuration(tt.dur); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.dur, got, tt.want)
			}
		})
	}
}

func TestRuler(t *testing.T) {
	defer EnableColors()
	DisableColors()
	if got := Ruler(4, "━"); got != "━━━━" {
		t.Errorf("Ruler() = %q", got)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
