package fixer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/richhaase/agentic-site-builder/internal/agent"
	"github.com/richhaase/agentic-site-builder/internal/domain"
	"github.com/richhaase/agentic-site-builder/internal/retry"
)

type stubGenerator struct {
	reply   string
	err     error
	prompts []string
}

func (s *stubGenerator) Name() string       { return "stub" }
func (s *stubGenerator) IsAvailable() error { return nil }
func (s *stubGenerator) Generate(_ context.Context, req *agent.Request) (string, error) {
	s.prompts = append(s.prompts, req.Prompt)
	return s.reply, s.err
}

func noWait() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxAttempts = 1
	p.InitialDelay = time.Millisecond
	return p
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "Footer.tsx")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

var genericRecord = &domain.BuildErrorRecord{
	FilePath:     "./components/Footer.tsx",
	Line:         "4",
	Column:       "2",
	ErrorMessage: "Unexpected token",
	ErrorType:    domain.ErrorKindGeneric,
}

func TestAttemptFix_Applies(t *testing.T) {
	path := writeFile(t, "export default function Footer() { return <footer> }\n")
	gen := &stubGenerator{reply: "```tsx\nexport default function Footer() { return <footer />; }\n```"}

	changed, err := New(gen, noWait(), nil).AttemptFix(context.Background(), path, genericRecord)
	if err != nil {
		t.Fatalf("AttemptFix() error = %v", err)
	}
	if !changed {
		t.Fatal("AttemptFix() = false, want true")
	}
	got, _ := os.ReadFile(path)
	if strings.TrimSpace(string(got)) != "export default function Footer() { return <footer />; }" {
		t.Errorf("file = %q", got)
	}
	if len(gen.prompts) != 1 || !strings.Contains(gen.prompts[0], "Line: 4") {
		t.Errorf("expected one targeted prompt, got %v", gen.prompts)
	}
}

func TestAttemptFix_UnchangedReturnsFalse(t *testing.T) {
	original := "export default function Footer() { return <footer />; }\n"
	path := writeFile(t, original)
	gen := &stubGenerator{reply: "```tsx\n  export default function Footer() { return <footer />; }  \n```"}

	changed, err := New(gen, noWait(), nil).AttemptFix(context.Background(), path, genericRecord)
	if err != nil {
		t.Fatalf("AttemptFix() error = %v", err)
	}
	if changed {
		t.Error("AttemptFix() = true for whitespace-only difference")
	}
	got, _ := os.ReadFile(path)
	if string(got) != original {
		t.Errorf("file was rewritten: %q", got)
	}
}

func TestAttemptFix_EmptyReplyReturnsFalse(t *testing.T) {
	path := writeFile(t, "x")
	gen := &stubGenerator{reply: "```tsx\n\n```"}

	changed, err := New(gen, noWait(), nil).AttemptFix(context.Background(), path, genericRecord)
	if err != nil || changed {
		t.Errorf("AttemptFix() = %v, %v; want false, nil", changed, err)
	}
}

func TestAttemptFix_MissingFile(t *testing.T) {
	gen := &stubGenerator{reply: "unused"}
	path := filepath.Join(t.TempDir(), "missing.tsx")

	changed, err := New(gen, noWait(), nil).AttemptFix(context.Background(), path, genericRecord)
	if !errors.Is(err, ErrFileNotFound) {
		t.Fatalf("error = %v, want ErrFileNotFound", err)
	}
	if changed {
		t.Error("AttemptFix() = true for missing file")
	}
	if len(gen.prompts) != 0 {
		t.Error("generator should not be called for a missing file")
	}
}

func TestAttemptFix_ModuleNotFoundPrompt(t *testing.T) {
	path := writeFile(t, "import Footer from '../layout/Footer';\n")
	gen := &stubGenerator{reply: "```tsx\nimport Footer from '@/components/Footer';\n```"}
	rec := &domain.BuildErrorRecord{
		FilePath:     "./components/Footer.tsx",
		Line:         "3",
		Column:       "1",
		ErrorMessage: "Module not found: Can't resolve '../layout/Footer'",
		ErrorType:    domain.ErrorKindModuleNotFound,
	}

	changed, err := New(gen, noWait(), nil).AttemptFix(context.Background(), path, rec)
	if err != nil || !changed {
		t.Fatalf("AttemptFix() = %v, %v; want true, nil", changed, err)
	}
	if !strings.Contains(gen.prompts[0], "Fix ONLY the import paths") {
		t.Errorf("expected import-path prompt, got:\n%s", gen.prompts[0])
	}
}

func TestAttemptFix_GeneratorError(t *testing.T) {
	path := writeFile(t, "x")
	gen := &stubGenerator{err: agent.Fatal("stub", errors.New("bad key"))}

	changed, err := New(gen, noWait(), nil).AttemptFix(context.Background(), path, genericRecord)
	if err == nil || changed {
		t.Fatalf("AttemptFix() = %v, %v; want false, error", changed, err)
	}
	var fatal *agent.FatalError
	if !errors.As(err, &fatal) {
		t.Errorf("error should wrap FatalError, got %v", err)
	}
}
