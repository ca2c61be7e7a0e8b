package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model_config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

const validConfig = `{
  "version": "1.0",
  "providers": {
    "main": {"type": "anthropic", "config": {"api_key": "test-key"}}
  },
  "defaults": {"provider": "main", "model": "claude-sonnet-4"}
}`

func TestValidateCommandSucceeds(t *testing.T) {
	path := writeConfig(t, validConfig)

	out, err := runCommand(t, "validate", "-c", path)
	if err != nil {
		t.Fatalf("expected success, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "Configuration is valid") {
		t.Fatalf("missing status line:\n%s", out)
	}
}

func TestValidateCommandFailsOnErrors(t *testing.T) {
	path := writeConfig(t, `{"version": "1.0", "providers": {}, "defaults": {"model": "m"}}`)

	out, err := runCommand(t, "validate", "-c", path)
	if err == nil {
		t.Fatalf("expected non-nil error for invalid config:\n%s", out)
	}
	if !strings.Contains(err.Error(), "configuration is invalid") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateCommandQuiet(t *testing.T) {
	path := writeConfig(t, validConfig)

	out, err := runCommand(t, "validate", "-c", path, "-q")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if strings.Contains(out, "Model Configuration Validation Report") {
		t.Fatalf("quiet mode must skip the full report:\n%s", out)
	}
}

func TestResolveCommand(t *testing.T) {
	path := writeConfig(t, validConfig)

	out, err := runCommand(t, "resolve", "hunt_planner", "-c", path)
	if err != nil {
		t.Fatalf("expected success, got %v\n%s", err, out)
	}
	if !strings.Contains(out, "hunt_planner") || !strings.Contains(out, "defaults") {
		t.Fatalf("missing resolution detail:\n%s", out)
	}
	if !strings.Contains(out, "claude-sonnet-4") {
		t.Fatalf("missing model:\n%s", out)
	}
}

func TestResolveCommandRequiresAgent(t *testing.T) {
	path := writeConfig(t, validConfig)

	if _, err := runCommand(t, "resolve", "-c", path); err == nil {
		t.Fatal("expected error without an agent name")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "huntctl") {
		t.Fatalf("unexpected output: %q", out)
	}
}
