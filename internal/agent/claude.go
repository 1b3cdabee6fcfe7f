package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// claudeOutput is the wrapper printed by `claude --print --output-format json`.
type claudeOutput struct {
	Result  string `json:"result"`
	IsError bool   `json:"is_error"`
	Subtype string `json:"subtype"`
}

// NewClaudeGenerator creates a generator backed by the claude CLI.
func NewClaudeGenerator(model string, timeout time.Duration) Generator {
	args := []string{"--print", "--output-format", "json"}
	if model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, "-")
	return &cliGenerator{
		name:    "claude",
		command: "claude",
		args:    args,
		timeout: timeout,
		parse:   parseClaudeOutput,
	}
}

func parseClaudeOutput(data []byte) (string, error) {
	var out claudeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to parse claude output: %w", err)
	}
	if out.IsError {
		msg := out.Result
		if msg == "" {
			msg = out.Subtype
		}
		return "", errors.New("claude reported an error: " + msg)
	}
	return out.Result, nil
}
