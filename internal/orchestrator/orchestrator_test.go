package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/richhaase/agentic-site-builder/internal/agent"
	"github.com/richhaase/agentic-site-builder/internal/build"
	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/fence"
	"github.com/richhaase/agentic-site-builder/internal/retry"
)

const twoComponentBlueprint = `{
  "client_name": "Acme Bakery",
  "design_system": {"primary_color": "10 80% 40%", "font_family": "Lora"},
  "pages": [{
    "name": "Home",
    "path": "/",
    "sections": [{"name": "main", "components": [
      {"componentName": "Hero", "type": "hero"},
      {"componentName": "Contact Form", "type": "form"}
    ]}]
  }]
}`

const footerWithBadImport = `import FooterLinks from '../layout/Footer';

export default function Footer() {
  return (
    <footer>
      <FooterLinks />
    </footer>
  );
}`

const dynamicPage = `import Hero from '@/components/Hero';
import Testimonials from '@/components/Testimonials';

export default function DynamicPage() {
  return (
    <main>
      <Hero />
      <Testimonials />
    </main>
  );
}`

var componentName = regexp.MustCompile(`Component name: (.+)`)

// siteGenerator answers each prompt the orchestrator sends with canned code.
// Critics echo the file they were given.
type siteGenerator struct {
	mu        sync.Mutex
	blueprint string
	verdict   string
	// fix rewrites the file embedded in a fix prompt. Nil echoes it.
	fix   func(code string) string
	calls map[string]int
}

func (g *siteGenerator) Name() string       { return "site" }
func (g *siteGenerator) IsAvailable() error { return nil }

func (g *siteGenerator) count(kind string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.calls == nil {
		g.calls = make(map[string]int)
	}
	g.calls[kind]++
}

func (g *siteGenerator) Calls(kind string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls[kind]
}

func tsx(code string) string { return "```tsx\n" + code + "\n```" }

func (g *siteGenerator) Generate(_ context.Context, req *agent.Request) (string, error) {
	p := req.Prompt
	switch {
	case strings.Contains(p, "website architect"):
		g.count("blueprint")
		return g.blueprint, nil
	case strings.Contains(p, "import could not be resolved"), strings.Contains(p, "build failed with the following error"):
		g.count("fix")
		code := fence.Extract(p)
		if g.fix != nil {
			code = g.fix(code)
		}
		return tsx(code), nil
	case strings.Contains(p, "syntax validator"), strings.Contains(p, "accessibility specialist"), strings.Contains(p, "performance engineer"):
		g.count("critic")
		return tsx(fence.Extract(p)), nil
	case strings.Contains(p, "lead engineer"):
		g.count("integration")
		return g.verdict, nil
	case strings.Contains(p, "Generate a Header.tsx"):
		g.count("header")
		return tsx("'use client';\n\nimport { useState } from 'react';\n\nexport default function Header() {\n  const [open, setOpen] = useState(false);\n  return <button onClick={() => setOpen(!open)}>Menu</button>;\n}"), nil
	case strings.Contains(p, "Generate a Footer.tsx"):
		g.count("footer")
		return tsx(footerWithBadImport), nil
	case strings.Contains(p, "Generate a Placeholder.tsx"):
		g.count("placeholder")
		return tsx("export default function Placeholder({ componentName }: { componentName: string }) {\n  return <div>{componentName} failed to load</div>;\n}"), nil
	case strings.Contains(p, "root layout"):
		g.count("layout")
		return tsx("import './globals.css';\n\nexport default function RootLayout({ children }: { children: React.ReactNode }) {\n  return <html><body>{children}</body></html>;\n}"), nil
	case strings.Contains(p, "dynamic page component"):
		g.count("page")
		return tsx(dynamicPage), nil
	}
	if m := componentName.FindStringSubmatch(p); m != nil {
		g.count("component")
		name := domain.ComponentFileName(strings.TrimSpace(m[1]))
		return tsx(fmt.Sprintf("export default function %s() {\n  return <section>%s</section>;\n}", name, name)), nil
	}
	return "", agent.Fatal("site", errors.New("unexpected prompt"))
}

// scriptedBuilder returns the result produced by next for each build.
type scriptedBuilder struct {
	mu   sync.Mutex
	runs int
	next func(run int, dir string) *build.Result
}

func (b *scriptedBuilder) Run(_ context.Context, dir string) (*build.Result, error) {
	b.mu.Lock()
	b.runs++
	n := b.runs
	b.mu.Unlock()
	return b.next(n, dir), nil
}

func (b *scriptedBuilder) Runs() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runs
}

func passing() *scriptedBuilder {
	return &scriptedBuilder{next: func(int, string) *build.Result {
		return &build.Result{Success: true, Output: "Compiled successfully"}
	}}
}

func failing(output string) *scriptedBuilder {
	return &scriptedBuilder{next: func(int, string) *build.Result {
		return &build.Result{ExitCode: 1, Output: output}
	}}
}

type recordingDeployer struct {
	err  error
	path string
}

func (d *recordingDeployer) Deploy(_ context.Context, sitePath string) (string, error) {
	d.path = sitePath
	return "deployed to staging", d.err
}

func newOrchestrator(t *testing.T, gen agent.Generator, b build.Runner, mutate func(*Config, *Deps)) *Orchestrator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SitesRoot = t.TempDir()
	cfg.Integration = false
	deps := Deps{
		Generator: gen,
		Builder:   b,
		Policy:    retry.Policy{MaxAttempts: 1, InitialDelay: time.Millisecond},
		Now:       func() time.Time { return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC) },
	}
	if mutate != nil {
		mutate(&cfg, &deps)
	}
	o, err := New(cfg, deps)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return o
}

func runJob(t *testing.T, o *Orchestrator, req domain.JobRequest) (*domain.JobResult, []State) {
	t.Helper()
	var states []State
	res, err := o.Run(context.Background(), Job{
		TaskID:   "task-1",
		Request:  req,
		Progress: func(s State, _ string) { states = append(states, s) },
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return res, states
}

func readSite(t *testing.T, res *domain.JobResult, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(res.SitePath, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(data)
}

func TestRun_BuildsOnFirstAttempt(t *testing.T) {
	gen := &siteGenerator{blueprint: twoComponentBlueprint}
	b := passing()
	o := newOrchestrator(t, gen, b, nil)

	res, states := runJob(t, o, domain.JobRequest{Brief: "A bakery", Company: "Acme Bakery"})

	if res.Status != domain.StatusSucceeded {
		t.Fatalf("Status = %s, reason = %q", res.Status, res.Reason)
	}
	want := []State{StateBlueprintPending, StateArtifactsGenerating, StateBuildAttempt, StateSuccess}
	if fmt.Sprint(states) != fmt.Sprint(want) {
		t.Errorf("states = %v, want %v", states, want)
	}
	if gen.Calls("component") != 2 {
		t.Errorf("component generations = %d, want 2", gen.Calls("component"))
	}
	if b.Runs() != 1 || res.Repairs != 0 {
		t.Errorf("builds = %d, repairs = %d; want 1, 0", b.Runs(), res.Repairs)
	}
	if !strings.HasSuffix(res.SitePath, "acme-bakery") {
		t.Errorf("SitePath = %q", res.SitePath)
	}
	for _, rel := range []string{
		"components/Hero.tsx", "components/ContactForm.tsx",
		"components/Header.tsx", "components/Footer.tsx", "components/Placeholder.tsx",
		PathLayout, PathGlobalsCSS, PathTailwind, PathDynamicPage, PathBlueprint,
	} {
		readSite(t, res, rel)
	}
	if res.Stats.Files != 10 {
		t.Errorf("Stats.Files = %d, want 10", res.Stats.Files)
	}
	if _, ok := res.Quality["components/ContactForm.tsx"]; !ok {
		t.Error("quality missing for ContactForm")
	}
	if res.Summary != "build succeeded" {
		t.Errorf("Summary = %q", res.Summary)
	}

	page := readSite(t, res, PathDynamicPage)
	if !strings.Contains(page, `<Placeholder componentName="Testimonials" />`) {
		t.Errorf("missing component not replaced:\n%s", page)
	}
	if strings.Contains(page, "@/components/Testimonials") {
		t.Error("import of missing component should be removed")
	}
	if css := readSite(t, res, PathGlobalsCSS); !strings.Contains(css, "--primary: 10 80% 40%;") {
		t.Error("globals.css should use the blueprint primary colour")
	}
	if cfg := readSite(t, res, PathTailwind); !strings.Contains(cfg, `sans: ["Lora",`) {
		t.Errorf("tailwind.config.ts should use the blueprint font:\n%s", cfg)
	}
}

func TestRun_RepairsModuleNotFound(t *testing.T) {
	gen := &siteGenerator{
		blueprint: twoComponentBlueprint,
		fix: func(code string) string {
			return strings.Replace(code, "'../layout/Footer'", "'@/components/FooterLinks'", 1)
		},
	}
	b := &scriptedBuilder{next: func(run int, dir string) *build.Result {
		footer, _ := os.ReadFile(filepath.Join(dir, "components", "Footer.tsx"))
		if strings.Contains(string(footer), "../layout/Footer") {
			return &build.Result{ExitCode: 1, Output: "Failed to compile.\n\n./components/Footer.tsx:3:1\nModule not found: Can't resolve '../layout/Footer'\n"}
		}
		return &build.Result{Success: true}
	}}
	o := newOrchestrator(t, gen, b, nil)

	res, states := runJob(t, o, domain.JobRequest{Brief: "A bakery", Company: "Acme Bakery"})

	if res.Status != domain.StatusSucceeded {
		t.Fatalf("Status = %s, reason = %q", res.Status, res.Reason)
	}
	if b.Runs() != 2 || res.Repairs != 1 || gen.Calls("fix") != 1 {
		t.Errorf("builds = %d, repairs = %d, fixes = %d; want 2, 1, 1", b.Runs(), res.Repairs, gen.Calls("fix"))
	}
	if res.LastError == nil || res.LastError.ErrorType != domain.ErrorKindModuleNotFound || res.LastError.FilePath != "./components/Footer.tsx" {
		t.Errorf("LastError = %+v", res.LastError)
	}
	if footer := readSite(t, res, "components/Footer.tsx"); !strings.Contains(footer, "'@/components/FooterLinks'") {
		t.Errorf("Footer not rewritten:\n%s", footer)
	}
	want := []State{StateBlueprintPending, StateArtifactsGenerating, StateBuildAttempt, StateRepairing, StateBuildAttempt, StateSuccess}
	if fmt.Sprint(states) != fmt.Sprint(want) {
		t.Errorf("states = %v, want %v", states, want)
	}
}

func TestRun_UnparseableFailureStops(t *testing.T) {
	raw := "ERR_PNPM_RECURSIVE_EXEC_FIRST_FAIL  Command was killed with SIGKILL"
	gen := &siteGenerator{blueprint: twoComponentBlueprint}
	b := failing(raw)
	o := newOrchestrator(t, gen, b, nil)

	res, states := runJob(t, o, domain.JobRequest{Brief: "A bakery", Company: "Acme"})

	if res.Status != domain.StatusFailed {
		t.Fatalf("Status = %s, want failed", res.Status)
	}
	if !strings.Contains(res.Reason, raw) {
		t.Errorf("Reason should quote the build output, got %q", res.Reason)
	}
	if res.BuildLog != raw {
		t.Errorf("BuildLog = %q", res.BuildLog)
	}
	if b.Runs() != 1 || gen.Calls("fix") != 0 {
		t.Errorf("builds = %d, fixes = %d; want 1, 0", b.Runs(), gen.Calls("fix"))
	}
	if states[len(states)-1] != StateFailed {
		t.Errorf("final state = %s", states[len(states)-1])
	}
	if res.SitePath != "" {
		t.Error("SitePath is only set on success")
	}
}

func TestRun_RepairCapIsEnforced(t *testing.T) {
	attempt := 0
	gen := &siteGenerator{
		blueprint: twoComponentBlueprint,
		fix: func(code string) string {
			attempt++
			return fmt.Sprintf("%s\n// revision %d", code, attempt)
		},
	}
	output := "./components/Hero.tsx\n12:7  Error: 'x' is defined but never used."
	b := failing(output)
	o := newOrchestrator(t, gen, b, func(c *Config, _ *Deps) { c.RepairCycles = 2 })

	res, _ := runJob(t, o, domain.JobRequest{Brief: "A bakery", Company: "Acme"})

	if res.Status != domain.StatusFailed {
		t.Fatalf("Status = %s, want failed", res.Status)
	}
	if b.Runs() != 3 || res.Repairs != 2 {
		t.Errorf("builds = %d, repairs = %d; want 3, 2", b.Runs(), res.Repairs)
	}
	if !strings.Contains(res.Reason, "after 2 repair attempt(s)") || !strings.Contains(res.Reason, "never used") {
		t.Errorf("Reason = %q", res.Reason)
	}
}

func TestRun_NonPositiveRepairCyclesDisableRepair(t *testing.T) {
	for _, cycles := range []int{0, -1} {
		t.Run(fmt.Sprint(cycles), func(t *testing.T) {
			gen := &siteGenerator{
				blueprint: twoComponentBlueprint,
				fix:       func(code string) string { return code + "\n// edited" },
			}
			b := failing("./components/Hero.tsx\n12:7  Error: 'x' is defined but never used.")
			o := newOrchestrator(t, gen, b, func(c *Config, _ *Deps) { c.RepairCycles = cycles })

			res, _ := runJob(t, o, domain.JobRequest{Brief: "A bakery", Company: "Acme"})

			if res.Status != domain.StatusFailed || !strings.Contains(res.Reason, "after 0 repair attempt(s)") {
				t.Fatalf("Status = %s, Reason = %q", res.Status, res.Reason)
			}
			if b.Runs() != 1 || gen.Calls("fix") != 0 {
				t.Errorf("builds = %d, fixes = %d; want 1, 0", b.Runs(), gen.Calls("fix"))
			}
			if res.LastError == nil || res.LastError.FilePath != "./components/Hero.tsx" {
				t.Errorf("LastError = %v", res.LastError)
			}
		})
	}
}

func TestRun_UnchangedFixFails(t *testing.T) {
	gen := &siteGenerator{blueprint: twoComponentBlueprint}
	b := failing("./components/Hero.tsx\n1:1  Error: boom")
	o := newOrchestrator(t, gen, b, nil)

	res, _ := runJob(t, o, domain.JobRequest{Brief: "A bakery", Company: "Acme"})

	if res.Status != domain.StatusFailed || !strings.Contains(res.Reason, "did not change") {
		t.Fatalf("Status = %s, Reason = %q", res.Status, res.Reason)
	}
	if b.Runs() != 1 {
		t.Errorf("builds = %d, want 1", b.Runs())
	}
}

func TestRun_UngeneratedFileIsNotFixed(t *testing.T) {
	tests := []struct {
		name   string
		output string
		// plant is written under the site root before the build runs.
		plant string
	}{
		{
			name:   "missing component",
			output: "./components/Ghost.tsx\n1:1  Error: boom",
		},
		{
			name:   "dependency file",
			output: "Failed to compile.\n\n./node_modules/next/dist/client/index.js:3:1\nModule not found: Can't resolve 'react-dom/client'",
			plant:  "node_modules/next/dist/client/index.js",
		},
		{
			name:   "templated stylesheet",
			output: "./app/globals.css\n4:1  Error: unknown at-rule",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const original = "module.exports = require('react-dom/client');\n"
			gen := &siteGenerator{
				blueprint: twoComponentBlueprint,
				fix:       func(code string) string { return code + "\n// edited" },
			}
			b := &scriptedBuilder{next: func(_ int, dir string) *build.Result {
				if tt.plant != "" {
					path := filepath.Join(dir, filepath.FromSlash(tt.plant))
					if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
						t.Error(err)
					}
					if err := os.WriteFile(path, []byte(original), 0o644); err != nil {
						t.Error(err)
					}
				}
				return &build.Result{ExitCode: 1, Output: tt.output}
			}}
			var root string
			o := newOrchestrator(t, gen, b, func(c *Config, _ *Deps) { root = c.SitesRoot })

			res, _ := runJob(t, o, domain.JobRequest{Brief: "A bakery", Company: "Acme"})

			if res.Status != domain.StatusFailed || !strings.Contains(res.Reason, "was not generated") {
				t.Fatalf("Status = %s, Reason = %q", res.Status, res.Reason)
			}
			if res.BuildLog != tt.output {
				t.Errorf("BuildLog = %q, want the raw build output", res.BuildLog)
			}
			if gen.Calls("fix") != 0 || res.Repairs != 0 {
				t.Errorf("fixes = %d, repairs = %d; want 0, 0", gen.Calls("fix"), res.Repairs)
			}
			if tt.plant != "" {
				data, err := os.ReadFile(filepath.Join(root, "acme", filepath.FromSlash(tt.plant)))
				if err != nil {
					t.Fatal(err)
				}
				if string(data) != original {
					t.Errorf("dependency file was modified:\n%s", data)
				}
			}
		})
	}
}

func TestRun_InvalidBlueprintFails(t *testing.T) {
	gen := &siteGenerator{blueprint: `{"client_name": "Acme", "pages": []}`}
	b := passing()
	o := newOrchestrator(t, gen, b, nil)

	res, states := runJob(t, o, domain.JobRequest{Brief: "A bakery"})

	if res.Status != domain.StatusFailed || !strings.Contains(res.Reason, "blueprint") {
		t.Fatalf("Status = %s, Reason = %q", res.Status, res.Reason)
	}
	if b.Runs() != 0 || gen.Calls("component") != 0 {
		t.Error("no artifacts or builds should follow a bad blueprint")
	}
	if fmt.Sprint(states) != fmt.Sprint([]State{StateBlueprintPending, StateFailed}) {
		t.Errorf("states = %v", states)
	}
}

func TestRun_ClaimConflict(t *testing.T) {
	gen := &siteGenerator{blueprint: twoComponentBlueprint}
	var root string
	o := newOrchestrator(t, gen, passing(), func(c *Config, _ *Deps) { root = c.SitesRoot })
	if err := os.Mkdir(filepath.Join(root, "acme"), 0o755); err != nil {
		t.Fatal(err)
	}

	res, _ := runJob(t, o, domain.JobRequest{Brief: "A bakery", Company: "Acme"})
	if res.Status != domain.StatusFailed || !strings.Contains(res.Reason, "already exists") {
		t.Fatalf("Status = %s, Reason = %q", res.Status, res.Reason)
	}
	if gen.Calls("blueprint") != 0 {
		t.Error("generation should not start when the site cannot be claimed")
	}

	res, _ = runJob(t, o, domain.JobRequest{Brief: "A bakery", Company: "Acme", Force: true})
	if res.Status != domain.StatusSucceeded {
		t.Errorf("forced run Status = %s, Reason = %q", res.Status, res.Reason)
	}
}

func TestRun_Deploy(t *testing.T) {
	gen := &siteGenerator{blueprint: twoComponentBlueprint}

	o := newOrchestrator(t, gen, passing(), nil)
	res, _ := runJob(t, o, domain.JobRequest{Brief: "b", Company: "one", Deploy: true})
	if res.Status != domain.StatusSucceeded || !strings.Contains(res.Summary, "deploy skipped") {
		t.Errorf("nil deployer: Status = %s, Summary = %q", res.Status, res.Summary)
	}

	d := &recordingDeployer{}
	o = newOrchestrator(t, gen, passing(), func(_ *Config, deps *Deps) { deps.Deployer = d })
	res, _ = runJob(t, o, domain.JobRequest{Brief: "b", Company: "two", Deploy: true})
	if res.Summary != "build succeeded; deployed to staging" || d.path != res.SitePath {
		t.Errorf("Summary = %q, deployed %q", res.Summary, d.path)
	}

	d = &recordingDeployer{err: errors.New("host unreachable")}
	o = newOrchestrator(t, gen, passing(), func(_ *Config, deps *Deps) { deps.Deployer = d })
	res, _ = runJob(t, o, domain.JobRequest{Brief: "b", Company: "three", Deploy: true})
	if res.Status != domain.StatusPartial || !strings.Contains(res.Reason, "host unreachable") {
		t.Errorf("failed deploy: Status = %s, Reason = %q", res.Status, res.Reason)
	}
}

func TestRun_IntegrationVerdictIsAdvisory(t *testing.T) {
	gen := &siteGenerator{
		blueprint: twoComponentBlueprint,
		verdict:   `{"issues_found":["no contact page"],"fixes_required":[],"build_ready":false,"quality_score":70}`,
	}
	o := newOrchestrator(t, gen, passing(), func(c *Config, _ *Deps) { c.Integration = true })

	res, _ := runJob(t, o, domain.JobRequest{Brief: "A bakery", Company: "Acme"})

	if res.Status != domain.StatusSucceeded {
		t.Fatalf("Status = %s", res.Status)
	}
	if gen.Calls("integration") != 1 {
		t.Errorf("integration calls = %d, want 1", gen.Calls("integration"))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "not build ready") {
		t.Errorf("Warnings = %v", res.Warnings)
	}
	q := res.Quality["components/Hero.tsx"]
	if !q.Integrated || q.Integration != 70 {
		t.Errorf("Integration score = %v (set %v), want 70", q.Integration, q.Integrated)
	}
	if want := (q.Syntax + q.Accessibility + q.Performance + 70) / 4; q.Overall != want {
		t.Errorf("Overall = %v, want %v including the integration score", q.Overall, want)
	}
}

func TestRun_ParallelGeneration(t *testing.T) {
	gen := &siteGenerator{blueprint: twoComponentBlueprint}
	o := newOrchestrator(t, gen, passing(), func(c *Config, _ *Deps) { c.Concurrency = 4 })

	res, _ := runJob(t, o, domain.JobRequest{Brief: "A bakery", Company: "Acme"})
	if res.Status != domain.StatusSucceeded || res.Stats.Files != 10 {
		t.Errorf("Status = %s, Files = %d", res.Status, res.Stats.Files)
	}
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(DefaultConfig(), Deps{Builder: passing()}); err == nil {
		t.Error("New() without generator should fail")
	}
	if _, err := New(DefaultConfig(), Deps{Generator: &siteGenerator{}}); err == nil {
		t.Error("New() without builder should fail")
	}
}

func TestGlobalsCSS_Defaults(t *testing.T) {
	css := GlobalsCSS(&domain.Blueprint{})
	if !strings.Contains(css, "--primary: "+defaultPrimaryColor+";") {
		t.Error("default primary colour missing")
	}
	if strings.Contains(css, "%!") {
		t.Error("template has formatting errors")
	}
}

func TestTailwindConfig(t *testing.T) {
	cfg := TailwindConfig(&domain.Blueprint{})
	if strings.Contains(cfg, "%!") {
		t.Error("template has formatting errors")
	}
	if !strings.Contains(cfg, `sans: ["`+defaultFontFamily+`",`) {
		t.Errorf("default font missing:\n%s", cfg)
	}

	// border-border and bg-background need every stylesheet colour in the theme.
	css := GlobalsCSS(&domain.Blueprint{})
	for _, m := range regexp.MustCompile(`--([a-z-]+):`).FindAllStringSubmatch(css, -1) {
		name := m[1]
		if name == "radius" {
			continue
		}
		if !strings.Contains(cfg, "var(--"+name+")") {
			t.Errorf("tailwind.config.ts does not map --%s", name)
		}
	}

	quoted := TailwindConfig(&domain.Blueprint{DesignSystem: map[string]any{"font_family": `Bad "Font"`}})
	if !strings.Contains(quoted, `sans: ["Bad \"Font\"",`) {
		t.Errorf("font token not quoted:\n%s", quoted)
	}
}
