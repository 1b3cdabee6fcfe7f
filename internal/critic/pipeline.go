package critic

import (
	"context"
	"log/slog"
	"regexp"

	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/lint"
)

// syntaxErrorCap bounds the syntax score of a file that still fails to parse.
const syntaxErrorCap = 50

// maxReportedIssues limits how many parse issues are recorded per file.
const maxReportedIssues = 5

var interactiveMarkers = regexp.MustCompile(`\b(useState|useEffect|onClick|onChange|onSubmit|addEventListener)\b`)

// Outcome is the label recorded for each stage.
type Outcome string

const (
	OutcomeChanged   Outcome = "changed"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

// Recorder observes stage outcomes. It may be nil.
type Recorder interface {
	CriticOutcome(kind Kind, outcome Outcome)
}

// PipelineOptions configures a Pipeline.
type PipelineOptions struct {
	// Performance enables the performance stage for interactive files.
	Performance bool
	Recorder    Recorder
	Logger      *slog.Logger
}

// Pipeline runs the stage critics in order and scores the result.
type Pipeline struct {
	critics     Registry
	performance bool
	recorder    Recorder
	logger      *slog.Logger
}

// NewPipeline creates a pipeline over the given critics.
func NewPipeline(critics Registry, opts PipelineOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{critics: critics, performance: opts.Performance, recorder: opts.Recorder, logger: logger}
}

// IsInteractive reports whether code uses state or event handlers.
func IsInteractive(code string) bool {
	return interactiveMarkers.MatchString(code)
}

// Review runs every stage over code and returns the final file with its
// quality score. A failing stage lowers its score but never stops the run.
func (p *Pipeline) Review(ctx context.Context, code, name string) (string, domain.QualityScore) {
	q := domain.NewQualityScore()

	for _, kind := range Kinds {
		score := p.score(kind, &q)
		c, ok := p.critics[kind]
		if !ok || (kind == KindPerformance && (!p.performance || !IsInteractive(code))) {
			*score = 100
			p.record(kind, OutcomeSkipped)
			continue
		}

		res := c.Apply(ctx, code, name)
		code = res.Code
		switch {
		case res.Err != nil:
			*score = 0
			q.AddIssue(res.Err.Error())
			p.record(kind, OutcomeFailed)
		case res.Changed:
			*score = 100 * res.Similarity
			q.AddFix(res.Fix)
			p.record(kind, OutcomeChanged)
		default:
			*score = 100 * res.Similarity
			p.record(kind, OutcomeUnchanged)
		}
	}

	issues, err := lint.CheckSyntax(ctx, code, name)
	if err != nil {
		p.logger.Debug("syntax check skipped", "file", name, "error", err)
	}
	if len(issues) > 0 {
		q.Syntax = min(q.Syntax, syntaxErrorCap)
		for i, issue := range issues {
			if i == maxReportedIssues {
				break
			}
			q.AddIssue("parse: " + issue.String())
		}
	}

	q.ComputeOverall()
	return code, q
}

func (p *Pipeline) score(kind Kind, q *domain.QualityScore) *float64 {
	switch kind {
	case KindAccessibility:
		return &q.Accessibility
	case KindPerformance:
		return &q.Performance
	default:
		return &q.Syntax
	}
}

func (p *Pipeline) record(kind Kind, outcome Outcome) {
	if p.recorder != nil {
		p.recorder.CriticOutcome(kind, outcome)
	}
}
