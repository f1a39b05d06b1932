package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"stat-client/internal/metrics"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out.String(), "stat-client v"+version) {
		t.Errorf("output = %q", out.String())
	}
}

func TestVersionFlag(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got, want := out.String(), "stat-client v"+version+"\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRootRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("on_missing_field: sometimes\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", path})

	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an invalid config error")
	}
}

type memorySink struct {
	snaps []metrics.Snapshot
}

func (m *memorySink) Write(snap metrics.Snapshot) error {
	m.snaps = append(m.snaps, snap)
	return nil
}

func (m *memorySink) Close() error { return nil }

type brokenSource struct{}

func (brokenSource) Uptime(context.Context) uint64 { return 1 }

func (brokenSource) LoadAverages(context.Context) (float64, float64, float64) { return 0, 0, 0 }

func (brokenSource) Memory(context.Context) (metrics.MemoryInfo, error) {
	return metrics.MemoryInfo{}, &metrics.MissingFieldError{Source: "meminfo", Field: "MemTotal"}
}

func (brokenSource) InterfaceCounters(context.Context) (uint64, uint64, error) { return 0, 0, nil }

func (brokenSource) CPUCounters(context.Context) (metrics.CPUCounters, error) {
	return metrics.CPUCounters{}, nil
}

func TestReportStopsOnFatalSample(t *testing.T) {
	collector := &metrics.Collector{
		FatalOnMissingField: true,
		Source:              brokenSource{},
		Log:                 zap.NewNop(),
	}
	sink := &memorySink{}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := report(ctx, 10*time.Millisecond, collector, sink, zap.NewNop())
	if !errors.Is(err, metrics.ErrFieldAbsent) {
		t.Fatalf("err = %v, want ErrFieldAbsent", err)
	}
	if len(sink.snaps) != 0 {
		t.Errorf("spooled %d snapshots from a failed pass", len(sink.snaps))
	}
}

func TestReportSpoolsUntilCancelled(t *testing.T) {
	collector := &metrics.Collector{
		Source: brokenSource{},
		Log:    zap.NewNop(),
	}
	sink := &memorySink{}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := report(ctx, 10*time.Millisecond, collector, sink, zap.NewNop()); err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(sink.snaps) == 0 {
		t.Fatal("no snapshots spooled")
	}
	if sink.snaps[0].Uptime != 1 {
		t.Errorf("uptime = %d", sink.snaps[0].Uptime)
	}
}
