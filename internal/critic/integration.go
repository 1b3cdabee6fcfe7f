package critic

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/richhaase/agentic-site-builder/internal/agent"
	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/prompt"
	"github.com/richhaase/agentic-site-builder/internal/retry"
)

// PreviewSize is the number of characters of each file shown to the
// integration critic.
const PreviewSize = 1500

// FixRequest is one cross-file fix the integration critic asks for.
type FixRequest struct {
	File  string `json:"file"`
	Issue string `json:"issue"`
	Fix   string `json:"fix"`
}

// Verdict is the integration critic's assessment of the whole site.
type Verdict struct {
	IssuesFound   []string     `json:"issues_found"`
	FixesRequired []FixRequest `json:"fixes_required"`
	BuildReady    bool         `json:"build_ready"`
	QualityScore  int          `json:"quality_score" validate:"min=0,max=100"`
	// Fallback is set when the verdict was substituted after a failure.
	Fallback bool `json:"-"`
}

var validate = validator.New()

// FallbackVerdict is the conservative verdict used when the critic's
// response is missing or malformed.
func FallbackVerdict(reason error) Verdict {
	return Verdict{
		IssuesFound: []string{fmt.Sprintf("integration review unavailable: %v", reason)},
		BuildReady:  false,
		Fallback:    true,
	}
}

// ParseVerdict decodes a verdict from a generator response.
func ParseVerdict(raw string) (Verdict, error) {
	doc, err := agent.ExtractJSON(raw)
	if err != nil {
		return Verdict{}, fmt.Errorf("parse verdict: %w", err)
	}
	var v Verdict
	if err := json.Unmarshal([]byte(doc), &v); err != nil {
		return Verdict{}, fmt.Errorf("parse verdict: %w", err)
	}
	if err := validate.Struct(v); err != nil {
		return Verdict{}, fmt.Errorf("invalid verdict: %w", err)
	}
	return v, nil
}

// Integration reviews every file of a site together. It runs once per job.
type Integration struct {
	gen      agent.Generator
	policy   retry.Policy
	logger   *slog.Logger
	splitter textsplitter.RecursiveCharacter
}

// NewIntegration creates the cross-file critic.
func NewIntegration(gen agent.Generator, policy retry.Policy, logger *slog.Logger) *Integration {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Integration{
		gen:    gen,
		policy: policy,
		logger: logger,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(PreviewSize),
			textsplitter.WithChunkOverlap(0),
		),
	}
}

// Preview returns the leading chunk of code, at most PreviewSize characters.
func (c *Integration) Preview(code string) string {
	chunks, err := c.splitter.SplitText(code)
	if err != nil || len(chunks) == 0 {
		r := []rune(code)
		if len(r) > PreviewSize {
			r = r[:PreviewSize]
		}
		return string(r)
	}
	return chunks[0]
}

// Review asks for a verdict over previews of artifacts. It never fails:
// generation or parse errors yield FallbackVerdict.
func (c *Integration) Review(ctx context.Context, artifacts []domain.CodeArtifact, features []string) Verdict {
	previews := make(map[string]string, len(artifacts))
	order := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		key := a.Path
		if key == "" {
			key = a.Name
		}
		if _, dup := previews[key]; !dup {
			order = append(order, key)
		}
		previews[key] = c.Preview(a.Code)
	}

	req := &agent.Request{Prompt: prompt.Integration(previews, order, features), Shape: agent.ShapeStructured}
	raw, err := retry.Generate(ctx, c.policy, c.gen, req)
	if err != nil {
		c.logger.Warn("integration review failed", "error", err)
		return FallbackVerdict(err)
	}
	v, err := ParseVerdict(raw)
	if err != nil {
		c.logger.Warn("integration verdict unparseable", "error", err)
		return FallbackVerdict(err)
	}
	return v
}
