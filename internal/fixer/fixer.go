// Package fixer repairs a single source file named by a parsed build error.
package fixer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/richhaase/agentic-site-builder/internal/agent"
	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/fence"
	"github.com/richhaase/agentic-site-builder/internal/prompt"
	"github.com/richhaase/agentic-site-builder/internal/retry"
)

// ErrFileNotFound is returned when the file named by the build error does not exist.
var ErrFileNotFound = errors.New("file to fix does not exist")

// Engine asks a generator for a corrected version of one file.
type Engine struct {
	gen    agent.Generator
	policy retry.Policy
	logger *slog.Logger
}

// New creates an Engine. A nil logger discards output.
func New(gen agent.Generator, policy retry.Policy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{gen: gen, policy: policy, logger: logger}
}

// AttemptFix rewrites absPath when the generator returns a different file.
// It reports whether the file was changed. An identical or empty response is
// not an error; it returns false so the caller can stop repairing.
func (e *Engine) AttemptFix(ctx context.Context, absPath string, rec *domain.BuildErrorRecord) (bool, error) {
	info, err := os.Stat(absPath)
	if errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("%w: %s", ErrFileNotFound, absPath)
	}
	if err != nil {
		return false, fmt.Errorf("stat %s: %w", absPath, err)
	}
	original, err := os.ReadFile(absPath)
	if err != nil {
		return false, fmt.Errorf("read %s: %w", absPath, err)
	}

	var text string
	if rec.ErrorType == domain.ErrorKindModuleNotFound {
		text = prompt.ModuleFix(string(original), rec)
	} else {
		text = prompt.TargetedFix(string(original), rec)
	}

	raw, err := retry.Generate(ctx, e.policy, e.gen, &agent.Request{Prompt: text})
	if err != nil {
		return false, fmt.Errorf("generate fix for %s: %w", rec.FilePath, err)
	}

	fixed := fence.Extract(raw)
	if fixed == "" || fixed == strings.TrimSpace(string(original)) {
		e.logger.Warn("targeted fix produced no changes", "file", rec.FilePath, "error_type", rec.ErrorType)
		return false, nil
	}

	if err := os.WriteFile(absPath, []byte(fixed+"\n"), info.Mode().Perm()); err != nil {
		return false, fmt.Errorf("write %s: %w", absPath, err)
	}
	e.logger.Info("applied targeted fix", "file", rec.FilePath, "error_type", rec.ErrorType, "matcher", rec.Matcher)
	return true, nil
}
