package agent

import (
	"encoding/json"
	"fmt"
	"time"
)

// geminiOutput is the wrapper printed by `gemini -o json`.
type geminiOutput struct {
	Response string `json:"response"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewGeminiGenerator creates a generator backed by the gemini CLI.
func NewGeminiGenerator(model string, timeout time.Duration) Generator {
	args := []string{"-o", "json"}
	if model != "" {
		args = append(args, "-m", model)
	}
	args = append(args, "-")
	return &cliGenerator{
		name:    "gemini",
		command: "gemini",
		args:    args,
		timeout: timeout,
		parse:   parseGeminiOutput,
	}
}

func parseGeminiOutput(data []byte) (string, error) {
	var out geminiOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("failed to parse gemini output: %w", err)
	}
	if out.Error != nil && out.Error.Message != "" {
		return "", fmt.Errorf("gemini reported an error: %s", out.Error.Message)
	}
	return out.Response, nil
}
