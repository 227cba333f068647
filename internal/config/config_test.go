package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/foundry-sim/foundry/internal/pipeline"
)

func TestLoadDefaultsWhenNoFileConfigured(t *testing.T) {
	t.Setenv("FOUNDRY_CONFIG", "")
	t.Setenv("FOUNDRY_LOG_LEVEL", "info")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.File.Version != 1 {
		t.Fatalf("expected default version 1, got %d", cfg.File.Version)
	}
	if cfg.File.Bus.LogCapacity != 1000 {
		t.Fatalf("expected default log capacity, got %d", cfg.File.Bus.LogCapacity)
	}
	if cfg.File.HandlerTimeout() != 5*time.Second {
		t.Fatalf("expected default handler timeout, got %v", cfg.File.HandlerTimeout())
	}
	if cfg.Env.LogLevel != "info" {
		t.Fatalf("expected info log level, got %q", cfg.Env.LogLevel)
	}
	dev, ok := cfg.File.Roles[pipeline.RoleDeveloper]
	if !ok {
		t.Fatalf("developer role missing from default table")
	}
	if !dev.FullArtifacts {
		t.Fatalf("developer should be a full-artifacts role")
	}
}

func TestLoadParsesConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	configYAML := strings.TrimSpace(`
version: 1
bus:
  log_capacity: 50
  handler_timeout: 250ms
roles:
  reviewer:
    analysis_sections: [Constraints]
    profile_sections: [Testing]
`)
	path := filepath.Join(dir, "foundry.yaml")
	if err := os.WriteFile(path, []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FOUNDRY_CONFIG", path)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.File.Bus.LogCapacity != 50 {
		t.Fatalf("log capacity not read: %d", cfg.File.Bus.LogCapacity)
	}
	if cfg.File.HandlerTimeout() != 250*time.Millisecond {
		t.Fatalf("handler timeout not read: %v", cfg.File.HandlerTimeout())
	}
	table := cfg.File.SliceTable()
	slice, ok := table.Lookup(pipeline.RoleReviewer)
	if !ok {
		t.Fatalf("reviewer slice missing")
	}
	if len(slice.AnalysisSections) != 1 || slice.AnalysisSections[0] != "Constraints" {
		t.Fatalf("reviewer slice wrong: %v", slice.AnalysisSections)
	}
	if _, ok := table.Lookup(pipeline.RoleDeveloper); ok {
		t.Fatalf("roles absent from the file must stay absent from the table")
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "wrong-version", yaml: "version: 2\n"},
		{name: "bad-timeout", yaml: "version: 1\nbus:\n  handler_timeout: sometimes\n"},
		{name: "not-yaml", yaml: "{{{"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "foundry.yaml")
			if err := os.WriteFile(path, []byte(test.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			t.Setenv("FOUNDRY_CONFIG", path)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s", test.name)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("FOUNDRY_CONFIG", "")
	t.Setenv("FOUNDRY_LOG_LEVEL", "debug")
	t.Setenv("FOUNDRY_HEADLESS", "true")
	t.Setenv("FOUNDRY_JOURNAL", "/tmp/run.log")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Env.LogLevel != "debug" {
		t.Fatalf("log level override ignored: %q", cfg.Env.LogLevel)
	}
	if !cfg.Env.Headless {
		t.Fatalf("headless override ignored")
	}
	if cfg.Env.JournalPath != "/tmp/run.log" {
		t.Fatalf("journal path override ignored: %q", cfg.Env.JournalPath)
	}
}
