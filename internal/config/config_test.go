package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.SampleInterval() != time.Second {
		t.Errorf("sample interval = %v, want 1s", cfg.SampleInterval())
	}
	if cfg.ProbeTimeout() != time.Second {
		t.Errorf("probe timeout = %v, want 1s", cfg.ProbeTimeout())
	}
	if !cfg.ProbeEnabled() {
		t.Error("probe should be enabled by default")
	}
	if !cfg.FatalOnMissingField() {
		t.Error("missing fields should be fatal by default")
	}
	if cfg.ProcRoot != "/proc" {
		t.Errorf("proc root = %q", cfg.ProcRoot)
	}
	if len(cfg.Interfaces.Ignore) != len(DefaultIgnore) {
		t.Errorf("ignore = %v, want %v", cfg.Interfaces.Ignore, DefaultIgnore)
	}
	if len(cfg.Disk.FsTypes) != len(DefaultFsTypes) {
		t.Errorf("fs types = %v", cfg.Disk.FsTypes)
	}
}

func TestLoadConfigEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.ProcRoot != "/proc" || cfg.OnMissingField != PolicyFatal || !cfg.ProbeEnabled() {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ReportInterval() != time.Second || cfg.ToolTimeout() != 5*time.Second {
		t.Errorf("intervals = (%v, %v)", cfg.ReportInterval(), cfg.ToolTimeout())
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
sample_interval_ms: 500
vnstat: true
on_missing_field: soft
source: procfs
interfaces:
  ignore: [lo, wg]
probe:
  enabled: false
  timeout_ms: 250
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.SampleInterval() != 500*time.Millisecond {
		t.Errorf("sample interval = %v", cfg.SampleInterval())
	}
	if !cfg.Vnstat {
		t.Error("vnstat should be on")
	}
	if cfg.FatalOnMissingField() {
		t.Error("policy should be soft")
	}
	if cfg.ProbeEnabled() {
		t.Error("probe should be disabled")
	}
	if cfg.ProbeTimeout() != 250*time.Millisecond {
		t.Errorf("probe timeout = %v", cfg.ProbeTimeout())
	}
	if got := cfg.Interfaces.Ignore; len(got) != 2 || got[1] != "wg" {
		t.Errorf("ignore = %v", got)
	}
	if cfg.Probe.IPv4Addr != "ipv4.google.com:80" {
		t.Errorf("ipv4 addr default not applied: %q", cfg.Probe.IPv4Addr)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad policy", "on_missing_field: maybe\n"},
		{"bad source", "source: wmi\n"},
		{"bad yaml", "sample_interval_ms: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
