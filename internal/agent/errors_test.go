package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"retryable", Retryable("openai", errors.New("503")), true},
		{"wrapped retryable", fmt.Errorf("critic: %w", Retryable("claude", ErrEmptyResponse)), true},
		{"fatal", Fatal("openai", errors.New("401")), false},
		{"wrapped fatal", fmt.Errorf("x: %w", &FatalError{Backend: "codex", Err: errors.New("auth")}), false},
		{"canceled", context.Canceled, false},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), false},
		{"retryable timeout", Retryable("claude", context.DeadlineExceeded), true},
		{"unclassified", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestFatalError_Hint(t *testing.T) {
	err := &FatalError{Backend: "gemini", Err: errors.New("exit 41"), Hint: AuthHint("gemini")}
	if got := err.Error(); got != "gemini: exit 41 ("+AuthHint("gemini")+")" {
		t.Errorf("Error() = %q", got)
	}
}

func TestRequest_FullPrompt(t *testing.T) {
	req := &Request{Prompt: "do it"}
	if req.FullPrompt() != "do it" {
		t.Errorf("FullPrompt() without context = %q", req.FullPrompt())
	}
	req.Context = []byte(`{"a":1}`)
	if got := req.FullPrompt(); got != "do it\n\nCONTEXT JSON:\n{\"a\":1}\n" {
		t.Errorf("FullPrompt() = %q", got)
	}
}
