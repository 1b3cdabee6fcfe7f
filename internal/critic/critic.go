// Package critic runs review stages over generated files.
//
// Each stage critic asks the generator to rewrite a file for one quality
// dimension. A critic never fails its caller: when generation fails it
// returns the original file together with the error.
package critic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/richhaase/agentic-site-builder/internal/agent"
	"github.com/richhaase/agentic-site-builder/internal/diffscore"
	"github.com/richhaase/agentic-site-builder/internal/fence"
	"github.com/richhaase/agentic-site-builder/internal/prompt"
	"github.com/richhaase/agentic-site-builder/internal/retry"
)

// Kind identifies a per-file review stage.
type Kind string

const (
	KindSyntax        Kind = "syntax"
	KindAccessibility Kind = "accessibility"
	KindPerformance   Kind = "performance"
)

// Kinds lists the per-file stages in pipeline order.
var Kinds = []Kind{KindSyntax, KindAccessibility, KindPerformance}

// ErrEmptyOutput is returned when a critic's response holds no code.
var ErrEmptyOutput = errors.New("critic returned no code")

// Result is the outcome of one critic stage.
type Result struct {
	// Code is the reviewed file, or the original when Err is set.
	Code string
	// Similarity is the line similarity between the input and Code.
	Similarity float64
	// Changed reports whether the change crossed the stage's cutoff.
	Changed bool
	// Fix describes the change when Changed is set.
	Fix string
	Err error
}

// Critic reviews one file for one quality dimension.
type Critic interface {
	Kind() Kind
	Apply(ctx context.Context, code, name string) Result
}

type stage struct {
	kind   Kind
	cutoff float64
	fix    string
	build  func(code, name string) string
	gen    agent.Generator
	policy retry.Policy
	logger *slog.Logger
}

func (s *stage) Kind() Kind { return s.kind }

func (s *stage) Apply(ctx context.Context, code, name string) Result {
	raw, err := retry.Generate(ctx, s.policy, s.gen, &agent.Request{Prompt: s.build(code, name)})
	if err != nil {
		s.logger.Warn("critic failed, keeping original", "critic", string(s.kind), "file", name, "error", err)
		return Result{Code: code, Similarity: 1, Err: fmt.Errorf("%s critic: %w", s.kind, err)}
	}
	out := fence.Extract(raw)
	if out == "" {
		s.logger.Warn("critic returned no code, keeping original", "critic", string(s.kind), "file", name)
		return Result{Code: code, Similarity: 1, Err: fmt.Errorf("%s critic: %w", s.kind, ErrEmptyOutput)}
	}

	res := Result{
		Code:       out,
		Similarity: diffscore.Score(code, out),
		Changed:    diffscore.Changed(code, out, s.cutoff),
	}
	if res.Changed {
		res.Fix = fmt.Sprintf("%s: %s", s.kind, s.fix)
	}
	return res
}

// Registry maps each kind to its critic. It is built once and shared.
type Registry map[Kind]Critic

// NewRegistry builds the stage critics over one generator.
func NewRegistry(gen agent.Generator, policy retry.Policy, logger *slog.Logger) Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	newStage := func(kind Kind, cutoff float64, fix string, build func(string, string) string) *stage {
		return &stage{kind: kind, cutoff: cutoff, fix: fix, build: build, gen: gen, policy: policy, logger: logger}
	}
	return Registry{
		KindSyntax:        newStage(KindSyntax, 0.05, "corrected syntax and typing", prompt.SyntaxCritic),
		KindAccessibility: newStage(KindAccessibility, 0.1, "improved accessibility", prompt.AccessibilityCritic),
		KindPerformance:   newStage(KindPerformance, 0.1, "optimized rendering performance", prompt.PerformanceCritic),
	}
}
