package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	PolicyFatal = "fatal"
	PolicySoft  = "soft"

	SourceAuto     = "auto"
	SourceProcfs   = "procfs"
	SourceGopsutil = "gopsutil"
)

type Config struct {
	SampleIntervalMs  int        `yaml:"sample_interval_ms"`
	ReportIntervalSec int        `yaml:"report_interval_sec"`
	ProcRoot          string     `yaml:"proc_root"`
	Source            string     `yaml:"source"`
	Vnstat            bool       `yaml:"vnstat"`
	OnMissingField    string     `yaml:"on_missing_field"`
	LogLevel          string     `yaml:"log_level"`
	SpoolDir          string     `yaml:"spool_dir"`
	RetentionDays     int        `yaml:"retention_days"`
	Interfaces        Interfaces `yaml:"interfaces"`
	Disk              Disk       `yaml:"disk"`
	Tools             Tools      `yaml:"tools"`
	Probe             Probe      `yaml:"probe"`
}

type Interfaces struct {
	Ignore []string `yaml:"ignore"`
}

type Disk struct {
	DfPath  string   `yaml:"df_path"`
	FsTypes []string `yaml:"fs_types"`
}

type Tools struct {
	TimeoutMs  int    `yaml:"timeout_ms"`
	VnstatPath string `yaml:"vnstat_path"`
}

type Probe struct {
	Enabled   *bool  `yaml:"enabled"`
	IPv4Addr  string `yaml:"ipv4_addr"`
	IPv6Addr  string `yaml:"ipv6_addr"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

var (
	DefaultIgnore  = []string{"lo", "docker", "vnet", "veth", "vmbr", "kube", "br-"}
	DefaultFsTypes = []string{"ext4", "ext3", "ext2", "reiserfs", "jfs", "ntfs", "fat32", "btrfs", "fuseblk", "zfs", "simfs", "xfs"}
)

// LoadConfig reads the YAML file at path. An empty path or a missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.SampleIntervalMs <= 0 {
		c.SampleIntervalMs = 1000
	}
	if c.ReportIntervalSec <= 0 {
		c.ReportIntervalSec = 1
	}
	if c.ProcRoot == "" {
		c.ProcRoot = "/proc"
	}
	if c.Source == "" {
		c.Source = SourceAuto
	}
	if c.OnMissingField == "" {
		c.OnMissingField = PolicyFatal
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.SpoolDir == "" {
		c.SpoolDir = "/var/lib/stat-client"
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = 7
	}
	if c.Interfaces.Ignore == nil {
		c.Interfaces.Ignore = append([]string(nil), DefaultIgnore...)
	}
	if c.Disk.DfPath == "" {
		c.Disk.DfPath = "df"
	}
	if len(c.Disk.FsTypes) == 0 {
		c.Disk.FsTypes = append([]string(nil), DefaultFsTypes...)
	}
	if c.Tools.TimeoutMs <= 0 {
		c.Tools.TimeoutMs = 5000
	}
	if c.Tools.VnstatPath == "" {
		c.Tools.VnstatPath = "/usr/bin/vnstat"
	}
	if c.Probe.Enabled == nil {
		enabled := true
		c.Probe.Enabled = &enabled
	}
	if c.Probe.IPv4Addr == "" {
		c.Probe.IPv4Addr = "ipv4.google.com:80"
	}
	if c.Probe.IPv6Addr == "" {
		c.Probe.IPv6Addr = "ipv6.google.com:80"
	}
	if c.Probe.TimeoutMs <= 0 {
		c.Probe.TimeoutMs = 1000
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.SampleIntervalMs <= 0 {
		return fmt.Errorf("sample_interval_ms must be positive")
	}
	if c.ReportIntervalSec <= 0 {
		return fmt.Errorf("report_interval_sec must be positive")
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive")
	}
	switch c.Source {
	case SourceAuto, SourceProcfs, SourceGopsutil:
	default:
		return fmt.Errorf("source must be one of auto, procfs, gopsutil (got %q)", c.Source)
	}
	switch c.OnMissingField {
	case PolicyFatal, PolicySoft:
	default:
		return fmt.Errorf("on_missing_field must be fatal or soft (got %q)", c.OnMissingField)
	}
	if c.SpoolDir == "" {
		return fmt.Errorf("spool_dir cannot be empty")
	}
	if c.Tools.TimeoutMs <= 0 {
		return fmt.Errorf("tools.timeout_ms must be positive")
	}
	if c.Probe.TimeoutMs <= 0 {
		return fmt.Errorf("probe.timeout_ms must be positive")
	}
	return nil
}

func (c *Config) SampleInterval() time.Duration {
	return time.Duration(c.SampleIntervalMs) * time.Millisecond
}

func (c *Config) ReportInterval() time.Duration {
	return time.Duration(c.ReportIntervalSec) * time.Second
}

func (c *Config) ToolTimeout() time.Duration {
	return time.Duration(c.Tools.TimeoutMs) * time.Millisecond
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Probe.TimeoutMs) * time.Millisecond
}

func (c *Config) ProbeEnabled() bool {
	return c.Probe.Enabled != nil && *c.Probe.Enabled
}

// FatalOnMissingField reports whether fatal-class collector failures abort the pass.
func (c *Config) FatalOnMissingField() bool {
	return c.OnMissingField == PolicyFatal
}
