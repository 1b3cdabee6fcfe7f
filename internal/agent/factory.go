package agent

import (
	"fmt"
	"strings"
	"time"
)

// SupportedGenerators lists all valid generator names.
var SupportedGenerators = []string{"openai", "claude", "codex", "gemini"}

// DefaultGenerator is used when none is configured.
const DefaultGenerator = "openai"

// Options holds backend-independent generator settings.
type Options struct {
	Model   string
	Timeout time.Duration
	// RatePerMinute caps calls per minute; zero disables limiting.
	RatePerMinute float64
}

// NewGenerator creates a Generator by name.
func NewGenerator(name string, opts Options) (Generator, error) {
	var gen Generator
	switch name {
	case "openai":
		gen = NewOpenAIGenerator(OpenAIConfig{Model: opts.Model})
	case "claude":
		gen = NewClaudeGenerator(opts.Model, opts.Timeout)
	case "codex":
		gen = NewCodexGenerator(opts.Model, opts.Timeout)
	case "gemini":
		gen = NewGeminiGenerator(opts.Model, opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown generator %q, supported: %s", name, strings.Join(SupportedGenerators, ", "))
	}
	return NewRateLimited(gen, opts.RatePerMinute), nil
}
