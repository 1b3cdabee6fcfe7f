package agent

import (
	"context"
)

// Shape is the response shape a caller expects.
type Shape int

const (
	// ShapeText asks for free-form text, typically a fenced code block.
	ShapeText Shape = iota
	// ShapeStructured asks for a single JSON document.
	ShapeStructured
)

// Request is a single generation call.
type Request struct {
	// Prompt holds the instructions.
	Prompt string
	// Context is an optional structured payload (usually JSON) appended to the prompt.
	Context []byte
	// Shape selects plain text or structured output.
	Shape Shape
}

// FullPrompt returns the prompt with the context payload appended.
func (r *Request) FullPrompt() string {
	if len(r.Context) == 0 {
		return r.Prompt
	}
	return r.Prompt + "\n\nCONTEXT JSON:\n" + string(r.Context) + "\n"
}

// Generator represents a text-generation backend.
type Generator interface {
	// Name returns the backend identifier (e.g., "claude", "openai").
	Name() string

	// IsAvailable reports whether the backend can be used.
	IsAvailable() error

	// Generate sends the request and returns the raw response text.
	// Empty responses are returned as a RetryableError.
	Generate(ctx context.Context, req *Request) (string, error)
}
