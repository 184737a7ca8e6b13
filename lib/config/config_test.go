// Copyright 2026 The C3fleet Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := Default()
	cfg.APIKey = "test-key"
	return cfg
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "c3fleet.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestDefaultValidatesWithKey(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.Nodes != 1 {
		t.Errorf("Nodes = %d, want 1", cfg.Nodes)
	}
	if cfg.NodeType != TypeAlternate {
		t.Errorf("NodeType = %q, want %q", cfg.NodeType, TypeAlternate)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.PollInterval)
	}
	if cfg.RuntimeLease != time.Hour {
		t.Errorf("RuntimeLease = %v, want 1h", cfg.RuntimeLease)
	}
	if cfg.KeepRunning {
		t.Error("KeepRunning = true, want false")
	}
}

func TestApplyFileOverrides(t *testing.T) {
	path := writeFile(t, `
nodes: 4
node_type: large
keep_running: true
poll_interval: 10s
runtime_lease: 2h
events_url: nats://localhost:4222
`)

	cfg := validConfig()
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("ApplyFile() = %v", err)
	}

	if cfg.Nodes != 4 {
		t.Errorf("Nodes = %d, want 4", cfg.Nodes)
	}
	if cfg.NodeType != TypeLarge {
		t.Errorf("NodeType = %q, want %q", cfg.NodeType, TypeLarge)
	}
	if !cfg.KeepRunning {
		t.Error("KeepRunning = false, want true")
	}
	if cfg.PollInterval != 10*time.Second {
		t.Errorf("PollInterval = %v, want 10s", cfg.PollInterval)
	}
	if cfg.RuntimeLease != 2*time.Hour {
		t.Errorf("RuntimeLease = %v, want 2h", cfg.RuntimeLease)
	}
	if cfg.EventsURL != "nats://localhost:4222" {
		t.Errorf("EventsURL = %q, want nats://localhost:4222", cfg.EventsURL)
	}
}

func TestApplyFileAbsentFieldsKeepValues(t *testing.T) {
	path := writeFile(t, "nodes: 2\n")

	cfg := validConfig()
	cfg.BootDelay = 9 * time.Second
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("ApplyFile() = %v", err)
	}

	if cfg.Nodes != 2 {
		t.Errorf("Nodes = %d, want 2", cfg.Nodes)
	}
	if cfg.BootDelay != 9*time.Second {
		t.Errorf("BootDelay = %v, want 9s (untouched)", cfg.BootDelay)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want default 30s", cfg.PollInterval)
	}
}

func TestApplyFileExplicitFalseOverrides(t *testing.T) {
	path := writeFile(t, "keep_running: false\n")

	cfg := validConfig()
	cfg.KeepRunning = true
	if err := cfg.ApplyFile(path); err != nil {
		t.Fatalf("ApplyFile() = %v", err)
	}
	if cfg.KeepRunning {
		t.Error("KeepRunning = true, want false from explicit file value")
	}
}

func TestApplyFileBadDuration(t *testing.T) {
	path := writeFile(t, "poll_interval: thirty\n")

	cfg := validConfig()
	err := cfg.ApplyFile(path)
	if err == nil {
		t.Fatal("ApplyFile() = nil, want error for bad duration")
	}
	if !strings.Contains(err.Error(), "poll_interval") {
		t.Errorf("error %q does not name the offending field", err)
	}
}

func TestApplyFileMissing(t *testing.T) {
	cfg := validConfig()
	if err := cfg.ApplyFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("ApplyFile() = nil, want error for missing file")
	}
}

func TestApplyEnvironmentAPIKey(t *testing.T) {
	t.Setenv("C3_API_KEY", "from-env")

	cfg := Default()
	if err := cfg.ApplyEnvironment(); err != nil {
		t.Fatalf("ApplyEnvironment() = %v", err)
	}
	if cfg.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want from-env", cfg.APIKey)
	}
}

func TestApplyEnvironmentWorkloadPoll(t *testing.T) {
	t.Setenv("WORKLOAD_POLL", "45")

	cfg := Default()
	if err := cfg.ApplyEnvironment(); err != nil {
		t.Fatalf("ApplyEnvironment() = %v", err)
	}
	if cfg.PollInterval != 45*time.Second {
		t.Errorf("PollInterval = %v, want 45s", cfg.PollInterval)
	}
}

func TestApplyEnvironmentWorkloadPollInvalid(t *testing.T) {
	t.Setenv("WORKLOAD_POLL", "soon")

	cfg := Default()
	if err := cfg.ApplyEnvironment(); err == nil {
		t.Fatal("ApplyEnvironment() = nil, want error for non-integer WORKLOAD_POLL")
	}
}

func TestApplyEnvironmentWorkloadPollNonPositive(t *testing.T) {
	t.Setenv("WORKLOAD_POLL", "0")

	cfg := Default()
	if err := cfg.ApplyEnvironment(); err != nil {
		t.Fatalf("ApplyEnvironment() = %v", err)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want default 30s (zero override ignored)", cfg.PollInterval)
	}
}

func TestApplyEnvironmentDebug(t *testing.T) {
	t.Setenv("C3FLEET_DEBUG", "1")

	cfg := Default()
	if err := cfg.ApplyEnvironment(); err != nil {
		t.Fatalf("ApplyEnvironment() = %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	t.Chdir(t.TempDir())
	if err := LoadEnvFile(); err != nil {
		t.Fatalf("LoadEnvFile() = %v, want nil for missing .env", err)
	}
}

func TestLoadEnvFilePresent(t *testing.T) {
	dir := t.TempDir()
	content := "C3FLEET_TEST_ENVFILE=loaded\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatalf("writing .env: %v", err)
	}
	t.Chdir(dir)
	t.Cleanup(func() { os.Unsetenv("C3FLEET_TEST_ENVFILE") })

	if err := LoadEnvFile(); err != nil {
		t.Fatalf("LoadEnvFile() = %v", err)
	}
	if got := os.Getenv("C3FLEET_TEST_ENVFILE"); got != "loaded" {
		t.Errorf("C3FLEET_TEST_ENVFILE = %q, want loaded", got)
	}
}

func TestValidateRejectsBadNodeType(t *testing.T) {
	cfg := validConfig()
	cfg.NodeType = "gigantic"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for bad node type")
	}
}

func TestValidateRejectsZeroNodes(t *testing.T) {
	cfg := validConfig()
	cfg.Nodes = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for zero nodes")
	}
}

func TestValidateRejectsMissingKey(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error for missing API key")
	}
	if !strings.Contains(err.Error(), "C3_API_KEY") {
		t.Errorf("error %q does not mention C3_API_KEY", err)
	}
}

func TestValidateRejectsBadURL(t *testing.T) {
	cfg := validConfig()
	cfg.APIBaseURL = "ftp://api.example.com"
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for non-http URL")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Nodes = 0
	cfg.NodeType = "bogus"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want joined errors")
	}
	msg := err.Error()
	for _, want := range []string{"nodes", "node type", "C3_API_KEY"} {
		if !strings.Contains(msg, want) {
			t.Errorf("joined error %q missing %q", msg, want)
		}
	}
}
