package agent

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode"
)

// ErrNoJSON is returned by ExtractJSON when the text holds no JSON document.
var ErrNoJSON = errors.New("no JSON object or array found")

// StripMarkdownCodeFence removes a surrounding markdown code fence, with or
// without a language tag, and returns the trimmed inner text. Text that does
// not start with a fence is returned trimmed.
func StripMarkdownCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimRightFunc(s, unicode.IsSpace), "```")

	tagEnd := 0
	for tagEnd < len(s) && isTagByte(s[tagEnd]) {
		tagEnd++
	}
	if tagEnd == len(s) || strings.ContainsRune(" \t\r\n{[", rune(s[tagEnd])) {
		s = s[tagEnd:]
	}
	return strings.TrimSpace(s)
}

func isTagByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// ExtractJSON returns the first complete, valid JSON object or array in s.
// Surrounding prose and markdown fences are ignored.
func ExtractJSON(s string) (string, error) {
	s = StripMarkdownCodeFence(s)
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		end := matchBalanced(s, i)
		if end < 0 {
			continue
		}
		candidate := s[i : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", ErrNoJSON
}

// matchBalanced returns the index of the bracket closing the one at start,
// skipping brackets inside JSON strings, or -1 when it is never closed.
func matchBalanced(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
