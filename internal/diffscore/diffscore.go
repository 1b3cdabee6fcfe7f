// Package diffscore measures how much a review stage changed an artifact.
package diffscore

import "strings"

// Score returns the Jaccard similarity of the non-blank, trimmed line sets of
// a and b. Identical inputs score 1.0; differing inputs with no content lines
// score 0.0.
func Score(a, b string) float64 {
	if a == b {
		return 1.0
	}
	left, right := lineSet(a), lineSet(b)

	union := len(left)
	intersection := 0
	for line := range right {
		if _, ok := left[line]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// Changed reports whether the similarity drop from before to after reaches cutoff.
func Changed(before, after string, cutoff float64) bool {
	return 1-Score(before, after) >= cutoff
}

func lineSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		set[line] = struct{}{}
	}
	return set
}
