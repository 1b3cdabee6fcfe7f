package agent

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

const (
	// scannerInitialBuffer is the initial buffer size for the scanner (64KB).
	scannerInitialBuffer = 64 * 1024
	// scannerMaxLineSize is the maximum line size the scanner will handle (100MB).
	scannerMaxLineSize = 100 * 1024 * 1024
)

// NewCodexGenerator creates a generator backed by the codex CLI.
func NewCodexGenerator(model string, timeout time.Duration) Generator {
	args := []string{"exec", "--json", "--color", "never"}
	if model != "" {
		args = append(args, "-m", model)
	}
	args = append(args, "-")
	return &cliGenerator{
		name:    "codex",
		command: "codex",
		args:    args,
		timeout: timeout,
		parse:   parseCodexOutput,
	}
}

// parseCodexOutput returns the text of the last completed agent message in
// the JSONL event stream, e.g.
//
//	{"type":"item.completed","item":{"type":"agent_message","text":"..."}}
func parseCodexOutput(data []byte) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxLineSize)

	var last string
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var event struct {
			Type string `json:"type"`
			Item struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"item"`
		}
		if err := json.Unmarshal(line, &event); err != nil {
			continue
		}
		if event.Type == "item.completed" && event.Item.Type == "agent_message" && event.Item.Text != "" {
			last = event.Item.Text
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	if last == "" {
		return "", errors.New("codex output has no completed agent message")
	}
	return last, nil
}
