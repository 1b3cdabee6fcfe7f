// Package integration provides end-to-end tests for the asb binary using a
// mock generator CLI and a mock build command.
//
// The mock claude script answers each prompt with a canned response picked
// by a keyword in the prompt. The mock build fails while Footer.tsx still
// imports a missing module, so the repair path runs against the real parser
// and fixer.
package integration

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds paths and state for integration test execution.
type testEnv struct {
	asbBin   string // Path to built asb binary
	mockDir  string // Directory containing mock CLI scripts
	workDir  string // Working directory the binary runs in
	origPath string // Original PATH to restore
}

// setupTestEnv builds the asb binary and prepares mock CLIs.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	rootDir := findRepoRoot(t)
	asbBin := filepath.Join(t.TempDir(), "asb")
	build := exec.Command("go", "build", "-o", asbBin, "./cmd/asb")
	build.Dir = rootDir
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("failed to build asb: %v\n%s", err, out)
	}

	mockDir := filepath.Join(t.TempDir(), "mocks")
	if err := os.MkdirAll(filepath.Join(mockDir, "responses"), 0755); err != nil {
		t.Fatal(err)
	}

	return &testEnv{
		asbBin:   asbBin,
		mockDir:  mockDir,
		workDir:  t.TempDir(),
		origPath: os.Getenv("PATH"),
	}
}

// withMocks prepends the mock directory to PATH so mock CLIs are found first.
func (e *testEnv) withMocks() []string {
	env := os.Environ()
	newPath := e.mockDir + ":" + e.origPath
	for i, v := range env {
		if strings.HasPrefix(v, "PATH=") {
			env[i] = "PATH=" + newPath
			return env
		}
	}
	return append(env, "PATH="+newPath)
}

// run executes asb with the given args and returns stdout, stderr, and exit code.
func (e *testEnv) run(args ...string) (stdout, stderr string, exitCode int) {
	cmd := exec.Command(e.asbBin, args...)
	cmd.Dir = e.workDir
	cmd.Env = e.withMocks()

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return outBuf.String(), errBuf.String(), exitCode
}

// generate runs asb generate against the mocks with a fast retry policy.
func (e *testEnv) generate(extra ...string) (stdout, stderr string, exitCode int) {
	args := []string{
		"generate", "--no-config", "--no-color",
		"--generator", "claude",
		"--build-command", "fakebuild",
		"--sites-root", "sites",
		"--log-level", "error",
	}
	return e.run(append(args, extra...)...)
}

// findRepoRoot walks up to find the go.mod file.
func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root (no go.mod)")
		}
		dir = parent
	}
}

// --- Mock Responses ---

const blueprintResponse = `{"client_name":"Acme Bakery","pages":[{"name":"Home","path":"/","sections":[{"name":"hero","components":[{"componentName":"Hero","type":"hero"},{"componentName":"Menu","type":"menu"}]}]}],"design_system":{"primary_color":"10 80% 40%"},"features":["menu"]}`

const verdictResponse = `{"issues_found":[],"fixes_required":[],"build_ready":true,"quality_score":88}`

const headerCode = "export default function Header() {\n  return <header>Acme Bakery</header>\n}"

const brokenFooterCode = "import React from 'react'\nimport Links from '../layout/Footer'\n\nexport default function Footer() {\n  return <footer><Links /></footer>\n}"

const fixedFooterCode = "import React from 'react'\n\nexport default function Footer() {\n  return <footer>Acme Bakery</footer>\n}"

const placeholderCode = "export default function Placeholder({ componentName }: { componentName: string }) {\n  return <div>{componentName}</div>\n}"

const layoutCode = "import './globals.css'\nimport Header from '../components/Header'\nimport Footer from '../components/Footer'\n\nexport default function RootLayout({ children }: { children: React.ReactNode }) {\n  return <html lang=\"en\"><body><Header />{children}<Footer /></body></html>\n}"

const pageCode = "import Hero from '../../components/Hero'\nimport Menu from '../../components/Menu'\n\nexport default function Page() {\n  return <main><Hero /><Menu /></main>\n}"

const componentCode = "export default function Section() {\n  return <section>Fresh bread daily</section>\n}"

func fenced(code string) string {
	return "```tsx\n" + code + "\n```"
}

// claudeJSON wraps text the way `claude --output-format json` prints it.
func claudeJSON(t *testing.T, text string) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"type": "result", "result": text})
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// --- Mock CLI Script Generators ---

// writeMockClaude writes a claude CLI that picks a response file by prompt
// keyword. Cases are ordered so that prompts embedding other prompts (fixes
// quote the critic instructions) match first.
func writeMockClaude(t *testing.T, dir string, footer string) {
	t.Helper()
	responses := map[string]string{
		"blueprint":   blueprintResponse,
		"fix":         fenced(fixedFooterCode),
		"critic":      "Looks fine to me.",
		"verdict":     verdictResponse,
		"header":      fenced(headerCode),
		"footer":      fenced(footer),
		"placeholder": fenced(placeholderCode),
		"layout":      fenced(layoutCode),
		"page":        fenced(pageCode),
		"component":   fenced(componentCode),
	}
	for name, text := range responses {
		path := filepath.Join(dir, "responses", name+".json")
		if err := os.WriteFile(path, []byte(claudeJSON(t, text)), 0644); err != nil {
			t.Fatal(err)
		}
	}

	script := `#!/bin/sh
prompt=$(cat)
dir=$(dirname "$0")/responses
case "$prompt" in
    *"website architect"*) cat "$dir/blueprint.json" ;;
    *"import could not be resolved"*|*"build failed with the following error"*) cat "$dir/fix.json" ;;
    *"syntax validator"*|*"accessibility specialist"*|*"performance engineer"*) cat "$dir/critic.json" ;;
    *"lead engineer"*) cat "$dir/verdict.json" ;;
    *"Generate a Header.tsx"*) cat "$dir/header.json" ;;
    *"Generate a Footer.tsx"*) cat "$dir/footer.json" ;;
    *"Generate a Placeholder.tsx"*) cat "$dir/placeholder.json" ;;
    *"root layout"*) cat "$dir/layout.json" ;;
    *"dynamic page component"*) cat "$dir/page.json" ;;
    *"Component name:"*) cat "$dir/component.json" ;;
    *) echo "unexpected prompt" >&2; exit 3 ;;
esac
`
	writeMock(t, dir, "claude", script)
}

// writeMockBuild writes a build command that fails while Footer.tsx imports
// the missing layout module.
func writeMockBuild(t *testing.T, dir string) {
	t.Helper()
	script := `#!/bin/sh
if grep -q "layout/Footer" components/Footer.tsx 2>/dev/null; then
    printf 'Failed to compile.\n\n./components/Footer.tsx:2:1\nModule not found: Can'"'"'t resolve '"'"'../layout/Footer'"'"'\n'
    exit 1
fi
echo "Compiled successfully"
`
	writeMock(t, dir, "fakebuild", script)
}

func writeMock(t *testing.T, dir, name, script string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatalf("failed to write mock %s: %v", name, err)
	}
}

// --- Tests ---

func TestVersion(t *testing.T) {
	env := setupTestEnv(t)
	stdout, _, exitCode := env.run("--version")
	if exitCode != 0 {
		t.Errorf("exit code = %d, want 0", exitCode)
	}
	if !strings.HasPrefix(stdout, "asb ") {
		t.Errorf("expected 'asb ' prefix in output, got: %s", stdout)
	}
}

func TestHelp(t *testing.T) {
	env := setupTestEnv(t)
	stdout, _, exitCode := env.run("generate", "--help")
	if exitCode != 0 {
		t.Errorf("exit code = %d, want 0", exitCode)
	}
	for _, want := range []string{"--brief", "--generator", "--build-command", "--repair-cycles", "Site:", "Generation:"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output missing %q", want)
		}
	}
}

func TestConfigSubcommands(t *testing.T) {
	env := setupTestEnv(t)

	if _, stderr, code := env.run("config", "init"); code != 0 {
		t.Fatalf("config init exit = %d: %s", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(env.workDir, ".asb.yaml")); err != nil {
		t.Fatalf("config init did not create .asb.yaml: %v", err)
	}
	if _, stderr, code := env.run("config", "validate"); code != 0 {
		t.Errorf("config validate exit = %d: %s", code, stderr)
	}
	stdout, _, code := env.run("config", "show")
	if code != 0 || !strings.Contains(stdout, "repair_cycles: 2") {
		t.Errorf("config show exit = %d, output:\n%s", code, stdout)
	}
}

func TestGenerate_FirstBuildSucceeds(t *testing.T) {
	env := setupTestEnv(t)
	writeMockClaude(t, env.mockDir, fixedFooterCode)
	writeMockBuild(t, env.mockDir)

	stdout, stderr, exitCode := env.generate("--brief", "A neighbourhood bakery", "--domain", "acme.example")
	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0\nstdout: %s\nstderr: %s", exitCode, stdout, stderr)
	}
	if !strings.Contains(stdout, "Site ready") {
		t.Errorf("expected 'Site ready' in report, got:\n%s", stdout)
	}

	site := filepath.Join(env.workDir, "sites", "acme.example")
	for _, rel := range []string{"blueprint.json", "app/layout.tsx", "app/globals.css", "components/Hero.tsx", "components/Menu.tsx"} {
		if _, err := os.Stat(filepath.Join(site, rel)); err != nil {
			t.Errorf("expected %s to be written: %v", rel, err)
		}
	}
}

func TestGenerate_RepairsMissingModule(t *testing.T) {
	env := setupTestEnv(t)
	writeMockClaude(t, env.mockDir, brokenFooterCode)
	writeMockBuild(t, env.mockDir)

	stdout, stderr, exitCode := env.generate("--company", "Acme Bakery", "--json")
	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0\nstdout: %s\nstderr: %s", exitCode, stdout, stderr)
	}

	var result struct {
		Status  string `json:"status"`
		Repairs int    `json:"repairs"`
	}
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("stdout is not a job result: %v\n%s", err, stdout)
	}
	if result.Status != "succeeded" || result.Repairs != 1 {
		t.Errorf("result = %+v, want succeeded after 1 repair", result)
	}

	footer, err := os.ReadFile(filepath.Join(env.workDir, "sites", "acme-bakery", "components", "Footer.tsx"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(footer), "layout/Footer") {
		t.Errorf("Footer.tsx was not repaired:\n%s", footer)
	}
}

func TestGenerate_NoRepairBudgetFails(t *testing.T) {
	env := setupTestEnv(t)
	writeMockClaude(t, env.mockDir, brokenFooterCode)
	writeMockBuild(t, env.mockDir)

	reportPath := filepath.Join(env.workDir, "report.md")
	stdout, _, exitCode := env.generate("--company", "Acme", "--repair-cycles", "0", "--report-file", reportPath)
	if exitCode != 1 {
		t.Fatalf("exit code = %d, want 1\n%s", exitCode, stdout)
	}
	if !strings.Contains(stdout, "Build failed") || !strings.Contains(stdout, "components/Footer.tsx") {
		t.Errorf("expected failure report naming Footer.tsx, got:\n%s", stdout)
	}

	md, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	if !strings.Contains(string(md), "## Build failed") {
		t.Errorf("unexpected Markdown report:\n%s", md)
	}
}

func TestGenerate_ExistingSiteNeedsForce(t *testing.T) {
	env := setupTestEnv(t)
	writeMockClaude(t, env.mockDir, fixedFooterCode)
	writeMockBuild(t, env.mockDir)

	if _, _, code := env.generate("--company", "Acme"); code != 0 {
		t.Fatalf("first run exit = %d", code)
	}
	stdout, _, code := env.generate("--company", "Acme")
	if code != 1 || !strings.Contains(stdout, "already exists") {
		t.Errorf("second run exit = %d, output:\n%s", code, stdout)
	}
	if _, _, code := env.generate("--company", "Acme", "--force"); code != 0 {
		t.Errorf("forced run exit = %d, want 0", code)
	}
}

func TestGenerate_InvalidRequest(t *testing.T) {
	env := setupTestEnv(t)
	_, stderr, exitCode := env.generate("--domain", "acme.example")
	if exitCode != 2 {
		t.Errorf("exit code = %d, want 2", exitCode)
	}
	if !strings.Contains(stderr, "invalid request") {
		t.Errorf("expected validation error, got: %s", stderr)
	}
}

func TestGenerate_InvalidGenerator(t *testing.T) {
	env := setupTestEnv(t)
	_, stderr, exitCode := env.generate("--brief", "x", "--generator", "nonexistent")
	if exitCode != 2 {
		t.Errorf("exit code = %d, want 2", exitCode)
	}
	if !strings.Contains(stderr, "generator must be one of") {
		t.Errorf("expected generator error, got: %s", stderr)
	}
}

func TestGenerate_MissingGeneratorCLI(t *testing.T) {
	env := setupTestEnv(t)
	// Only the empty mock directory is on PATH.
	env.origPath = ""
	_, stderr, exitCode := env.generate("--brief", "x")
	if exitCode != 2 {
		t.Errorf("exit code = %d, want 2", exitCode)
	}
	if !strings.Contains(stderr, fmt.Sprintf("%s CLI not found", "claude")) {
		t.Errorf("expected missing CLI error, got: %s", stderr)
	}
}

func TestParseError(t *testing.T) {
	env := setupTestEnv(t)
	logPath := filepath.Join(env.workDir, "build.log")
	if err := os.WriteFile(logPath, []byte("Failed to compile.\n\n./app/page.tsx:12:7\nType error: Property 'x' does not exist.\n"), 0644); err != nil {
		t.Fatal(err)
	}
	stdout, _, exitCode := env.run("parse-error", logPath)
	if exitCode != 0 {
		t.Fatalf("exit code = %d, want 0", exitCode)
	}
	if !strings.Contains(stdout, `"file_path": "./app/page.tsx"`) {
		t.Errorf("unexpected record:\n%s", stdout)
	}
}
