// Package fence extracts code from generated text that may wrap it in
// markdown fences and prose.
package fence

import "strings"

const marker = "```"

// accepted are the fence tags a generation is expected to produce. The
// empty tag is an untagged fence.
var accepted = map[string]bool{
	"":           true,
	"tsx":        true,
	"jsx":        true,
	"ts":         true,
	"typescript": true,
	"js":         true,
	"javascript": true,
	"css":        true,
	"json":       true,
}

// Extract returns the inner text of the first fenced code block in raw whose
// tag is accepted, or the trimmed raw text when it contains no such block.
func Extract(raw string) string {
	body, ok := block(raw)
	if !ok {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(body)
}

// block scans raw line by line. Blocks with other tags are skipped whole so
// their closing fence never opens a block. A closing fence may end a content
// line. An accepted block left open runs to the end of raw.
func block(raw string) (string, bool) {
	var (
		inside bool
		keep   bool
		body   []string
	)
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimSpace(line)

		if !inside {
			if strings.HasPrefix(trimmed, marker) {
				inside = true
				keep = accepted[tag(trimmed)]
			}
			continue
		}

		if strings.HasSuffix(trimmed, marker) {
			if !keep {
				inside = false
				continue
			}
			rest := strings.TrimSuffix(strings.TrimRight(line, " \t"), marker)
			if strings.TrimSpace(rest) != "" {
				body = append(body, rest)
			}
			return strings.Join(body, "\n"), true
		}
		if keep {
			body = append(body, line)
		}
	}
	if inside && keep {
		return strings.Join(body, "\n"), true
	}
	return "", false
}

// tag returns the lowercased language tag of an opening fence line.
func tag(line string) string {
	fields := strings.Fields(strings.TrimPrefix(line, marker))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
