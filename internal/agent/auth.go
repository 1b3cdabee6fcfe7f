package agent

import (
	"regexp"
	"slices"
)

// authExitCodes maps generator names to known authentication failure exit codes.
var authExitCodes = map[string][]int{
	"gemini": {41},
}

// authStderrPatterns match stderr output that indicates an authentication failure.
var authStderrPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)api_key`),
	regexp.MustCompile(`(?i)unauthorized`),
	regexp.MustCompile(`\b401\b`),
	regexp.MustCompile(`(?i)authentication required`),
	regexp.MustCompile(`(?i)invalid credentials`),
}

// authHints maps generator names to actionable error messages shown on auth failure.
var authHints = map[string]string{
	"gemini": "Set GEMINI_API_KEY or run 'gemini auth login' to authenticate.",
	"claude": "Run 'claude login' or check your API key configuration.",
	"codex":  "Set OPENAI_API_KEY or run 'codex auth' to authenticate.",
	"openai": "Set OPENAI_API_KEY (and OPENAI_BASE_URL for compatible endpoints).",
}

// IsAuthFailure returns true if the given exit code and stderr indicate
// an authentication failure for the named generator CLI. Exit code 0 is
// never considered an auth failure.
func IsAuthFailure(backend string, exitCode int, stderr string) bool {
	if exitCode == 0 {
		return false
	}
	if slices.Contains(authExitCodes[backend], exitCode) {
		return true
	}
	for _, pattern := range authStderrPatterns {
		if pattern.MatchString(stderr) {
			return true
		}
	}
	return false
}

// AuthHint returns an actionable error message for the named generator.
func AuthHint(backend string) string {
	if hint, ok := authHints[backend]; ok {
		return hint
	}
	return "Check your authentication configuration for " + backend + "."
}
