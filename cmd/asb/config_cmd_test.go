package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/richhaase/agentic-site-builder/internal/config"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
}

func TestConfigInit_CreatesFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cmd := newConfigCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"init"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, config.ConfigFileName))
	if err != nil {
		t.Fatalf("expected %s to be created: %v", config.ConfigFileName, err)
	}
	if string(data) != config.Template {
		t.Error("written file does not match the template")
	}
}

func TestConfigInit_FailsIfExists(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("existing"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd := newConfigCmd()
	cmd.SetArgs([]string{"init"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when file already exists")
	}
}

func TestConfigShow_PrintsResolvedYAML(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	if err := os.WriteFile(config.ConfigFileName, []byte("repair_cycles: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	cmd := newConfigCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"show"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"repair_cycles: 4", "generator: openai", "build_command: pnpm run build"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "no file"},
		{name: "valid", content: "generator: claude\nconcurrency: 3\n"},
		{name: "unknown key is only a warning", content: "concurrancy: 3\n"},
		{name: "invalid yaml", content: "generator: [\n", wantErr: true},
		{name: "invalid value", content: "concurrency: 0\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			chdir(t, dir)
			if tt.content != "" {
				if err := os.WriteFile(config.ConfigFileName, []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			cmd := newConfigCmd()
			cmd.SetArgs([]string{"validate"})
			err := cmd.Execute()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
