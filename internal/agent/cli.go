package agent

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/richhaase/agentic-site-builder/internal/proc"
)

// maxStderrInError caps how much stderr is quoted in an error message.
const maxStderrInError = 500

// cliGenerator drives a generator CLI that reads the prompt from stdin.
type cliGenerator struct {
	name    string
	command string
	args    []string
	timeout time.Duration
	// parse unwraps the tool's stdout into the response text.
	parse func(stdout []byte) (string, error)
}

func (g *cliGenerator) Name() string {
	return g.name
}

func (g *cliGenerator) IsAvailable() error {
	if _, err := exec.LookPath(g.command); err != nil {
		return fmt.Errorf("%s CLI not found in PATH: %w", g.command, err)
	}
	return nil
}

func (g *cliGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	if err := g.IsAvailable(); err != nil {
		return "", Fatal(g.name, err)
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	res, err := proc.Run(callCtx, proc.Options{
		Command: g.command,
		Args:    g.args,
		Stdin:   strings.NewReader(req.FullPrompt()),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if res == nil {
			return "", Fatal(g.name, err)
		}
		return "", Retryable(g.name, fmt.Errorf("generation timed out: %w", err))
	}

	if res.ExitCode != 0 {
		if IsAuthFailure(g.name, res.ExitCode, res.Stderr) {
			return "", &FatalError{
				Backend: g.name,
				Err:     fmt.Errorf("authentication failed (exit code %d)", res.ExitCode),
				Hint:    AuthHint(g.name),
			}
		}
		return "", Retryable(g.name, fmt.Errorf("exit code %d: %s", res.ExitCode, truncate(res.Stderr, maxStderrInError)))
	}

	text, err := g.parse([]byte(res.Stdout))
	if err != nil {
		return "", Retryable(g.name, err)
	}
	return finishResponse(g.name, text, req.Shape)
}

// finishResponse applies the checks shared by every backend: empty output is
// retryable and structured responses are narrowed to their JSON document.
func finishResponse(backend, text string, shape Shape) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", Retryable(backend, ErrEmptyResponse)
	}
	if shape == ShapeStructured {
		if doc, err := ExtractJSON(text); err == nil {
			return doc, nil
		}
	}
	return text, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
