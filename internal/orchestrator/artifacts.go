package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/richhaase/agentic-site-builder/internal/agent"
	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/fence"
	"github.com/richhaase/agentic-site-builder/internal/imports"
	"github.com/richhaase/agentic-site-builder/internal/observability"
	"github.com/richhaase/agentic-site-builder/internal/prompt"
	"github.com/richhaase/agentic-site-builder/internal/retry"
)

// Fixed artifact paths, relative to the site root.
const (
	PathLayout      = "app/layout.tsx"
	PathGlobalsCSS  = "app/globals.css"
	PathTailwind    = "tailwind.config.ts"
	PathDynamicPage = "app/[...slug]/page.tsx"
	PathBlueprint   = "blueprint.json"
	componentsDir   = "components/"
)

// fixedComponents are generated for every site regardless of the blueprint.
var fixedComponents = []string{"Header", "Footer", "Placeholder"}

// ComponentPath returns the file a component is generated into.
func ComponentPath(name string) string {
	return componentsDir + domain.ComponentFileName(name) + ".tsx"
}

// artifactSpec is one file to generate.
type artifactSpec struct {
	name   string
	path   string
	prompt string
	// required artifacts fail the job when generation fails.
	required bool
}

func (r *run) blueprint(ctx context.Context) (*domain.Blueprint, error) {
	ctx, span := observability.StartSpan(ctx, "blueprint")
	req := r.job.Request
	text := prompt.Blueprint(req.Brief, req.Company)

	r.state.GenerationAttempts++
	raw, err := retry.Generate(ctx, r.o.deps.Policy, r.o.deps.Generator, &agent.Request{Prompt: text, Shape: agent.ShapeStructured})
	if err != nil {
		observability.FinishSpan(span, err)
		return nil, err
	}
	doc, err := agent.ExtractJSON(raw)
	if err != nil {
		observability.FinishSpan(span, err)
		return nil, fmt.Errorf("blueprint response: %w", err)
	}
	bp, err := domain.ParseBlueprint([]byte(doc))
	observability.FinishSpan(span, err)
	if err != nil {
		return nil, err
	}
	r.logger.Info("blueprint ready", "client", bp.ClientName, "pages", len(bp.Pages), "components", len(bp.ComponentNames()))
	return bp, nil
}

// plan lists the generated components: every distinct blueprint component,
// then the fixed ones. Names mapping to the same file are generated once.
func (r *run) plan(bp *domain.Blueprint) []artifactSpec {
	pages := make([]string, len(bp.Pages))
	for i, p := range bp.Pages {
		pages[i] = p.Name
	}

	var specs []artifactSpec
	seen := make(map[string]bool)
	for _, name := range bp.ComponentNames() {
		path := ComponentPath(name)
		if seen[path] || slices.Contains(fixedComponents, domain.ComponentFileName(name)) {
			continue
		}
		seen[path] = true
		specs = append(specs, artifactSpec{name: name, path: path, prompt: prompt.Component(name, bp.ClientName)})
	}

	specs = append(specs,
		artifactSpec{name: "Header", path: ComponentPath("Header"), prompt: prompt.Header(bp.ClientName, pages), required: true},
		artifactSpec{name: "Footer", path: ComponentPath("Footer"), prompt: prompt.Footer(bp.ClientName, pages, r.o.deps.Now().Year()), required: true},
		artifactSpec{name: "Placeholder", path: ComponentPath("Placeholder"), prompt: prompt.Placeholder(), required: true},
		artifactSpec{name: "layout", path: PathLayout, prompt: prompt.Layout(bp.DesignToken("font_family", defaultFontFamily)), required: true},
	)
	return specs
}

// artifacts generates, reviews, lints and writes every file of the site.
// Components are independent and may run in parallel; the dynamic page runs
// after them because it imports only the components that exist.
func (r *run) artifacts(ctx context.Context, bp *domain.Blueprint) error {
	bpJSON, err := json.MarshalIndent(bp, "", "  ")
	if err != nil {
		return fmt.Errorf("encode blueprint: %w", err)
	}
	if _, err := r.site.WriteFile(PathBlueprint, string(bpJSON)+"\n"); err != nil {
		return err
	}
	if _, err := r.site.WriteFile(PathGlobalsCSS, GlobalsCSS(bp)); err != nil {
		return err
	}
	if _, err := r.site.WriteFile(PathTailwind, TailwindConfig(bp)); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.o.cfg.Concurrency)
	for _, spec := range r.plan(bp) {
		g.Go(func() error {
			err := r.artifact(gctx, spec, bpJSON, nil)
			if err == nil {
				return nil
			}
			if spec.required {
				return fmt.Errorf("%s: %w", spec.path, err)
			}
			r.warn(fmt.Sprintf("component %q skipped: %v", spec.name, err))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	available := r.availableComponents()
	page := artifactSpec{name: "page", path: PathDynamicPage, prompt: prompt.DynamicPage(available), required: true}
	if err := r.artifact(ctx, page, bpJSON, available); err != nil {
		return fmt.Errorf("%s: %w", page.path, err)
	}

	if r.o.deps.Integration != nil {
		r.integration(ctx, bp)
	}
	return nil
}

// artifact runs generate → critics → import resolver (when available is
// non-nil) → linter → write for one file.
func (r *run) artifact(ctx context.Context, spec artifactSpec, bpJSON []byte, available []string) error {
	ctx, span := observability.StartSpan(ctx, "artifact", attribute.String("path", spec.path))

	r.mu.Lock()
	r.state.GenerationAttempts++
	r.mu.Unlock()

	raw, err := retry.Generate(ctx, r.o.deps.Policy, r.o.deps.Generator, &agent.Request{Prompt: spec.prompt, Context: bpJSON})
	if err != nil {
		observability.FinishSpan(span, err)
		return err
	}
	code := fence.Extract(raw)
	if code == "" {
		err := fmt.Errorf("generator returned no code")
		observability.FinishSpan(span, err)
		return err
	}

	code, quality := r.o.deps.Critics.Review(ctx, code, spec.path)

	if available != nil {
		var fixes []string
		code, fixes = imports.Resolve(code, available, spec.path)
		for _, f := range fixes {
			quality.AddFix(f)
		}
	}

	code, fixes := r.o.deps.Linter.Apply(code, spec.path)
	for _, f := range fixes {
		quality.AddFix(f)
	}

	if _, err := r.site.WriteFile(spec.path, code+"\n"); err != nil {
		observability.FinishSpan(span, err)
		return err
	}
	observability.FinishSpan(span, nil)

	r.mu.Lock()
	r.state.Artifacts[spec.path] = &domain.CodeArtifact{Name: spec.name, Path: spec.path, Code: code, Quality: quality}
	r.result.Quality[spec.path] = quality
	r.mu.Unlock()

	r.logger.Info("artifact written", "path", spec.path, "overall", fmt.Sprintf("%.0f", quality.Overall), "fixes", len(quality.Fixes))
	return nil
}

// availableComponents returns the file names of generated components.
func (r *run) availableComponents() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var names []string
	for path := range r.state.Artifacts {
		if name, ok := strings.CutPrefix(path, componentsDir); ok {
			names = append(names, strings.TrimSuffix(name, ".tsx"))
		}
	}
	slices.Sort(names)
	return names
}

// integration runs the cross-file critic. Its verdict is advisory.
func (r *run) integration(ctx context.Context, bp *domain.Blueprint) {
	ctx, span := observability.StartSpan(ctx, "integration")
	defer observability.FinishSpan(span, nil)

	paths := make([]string, 0, len(r.state.Artifacts))
	for p := range r.state.Artifacts {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	artifacts := make([]domain.CodeArtifact, 0, len(paths))
	for _, p := range paths {
		artifacts = append(artifacts, *r.state.Artifacts[p])
	}

	v := r.o.deps.Integration.Review(ctx, artifacts, bp.FeatureList())
	if v.Fallback {
		r.warn("integration review unavailable: " + strings.Join(v.IssuesFound, "; "))
		return
	}
	for _, p := range paths {
		q := r.result.Quality[p]
		q.SetIntegration(float64(v.QualityScore))
		r.result.Quality[p] = q
		r.state.Artifacts[p].Quality = q
	}
	if !v.BuildReady {
		r.warn(fmt.Sprintf("integration review: not build ready (%d issues)", len(v.IssuesFound)))
	}
	for _, f := range v.FixesRequired {
		r.logger.Warn("integration fix suggested", "file", f.File, "issue", f.Issue, "fix", f.Fix)
	}
}
