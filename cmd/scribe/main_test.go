package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	body := `
[paths]
staging_dir = "` + filepath.Join(base, "staging") + `"
log_dir = "` + filepath.Join(base, "logs") + `"

[storage]
region = "us-east-1"
media_bucket = "test-media"
`
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) string {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("command %v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestQueueListEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out := runCommand(t, "--config", cfgPath, "queue", "list")
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestAddAndListExecution(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out := runCommand(t, "--config", cfgPath, "add", "media/demo.mp4")
	if !strings.Contains(out, "Enqueued execution 1") {
		t.Fatalf("unexpected add output: %q", out)
	}

	out = runCommand(t, "--config", cfgPath, "queue", "list")
	if !strings.Contains(out, "media/demo.mp4") || !strings.Contains(out, "pending") {
		t.Fatalf("unexpected list output: %q", out)
	}

	out = runCommand(t, "--config", cfgPath, "queue", "health")
	if !strings.Contains(out, "pending") {
		t.Fatalf("unexpected health output: %q", out)
	}

	out = runCommand(t, "--config", cfgPath, "status")
	if !strings.Contains(out, "test-media") || !strings.Contains(out, "pending") {
		t.Fatalf("unexpected status output: %q", out)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	out := runCommand(t, "--config", path, "config", "init")
	if !strings.Contains(out, path) {
		t.Fatalf("unexpected init output: %q", out)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
}

func TestJobsCommandEmpty(t *testing.T) {
	cfgPath := writeTestConfig(t)
	runCommand(t, "--config", cfgPath, "add", "media/demo.mp4")
	out := runCommand(t, "--config", cfgPath, "jobs", "1")
	if !strings.Contains(out, "No jobs recorded") {
		t.Fatalf("unexpected jobs output: %q", out)
	}
}
