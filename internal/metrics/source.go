package metrics

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Source supplies raw counters. Uptime and LoadAverages are soft-fail and
// return zeros on error.
type Source interface {
	Uptime(ctx context.Context) uint64
	LoadAverages(ctx context.Context) (float64, float64, float64)
	Memory(ctx context.Context) (MemoryInfo, error)
	InterfaceCounters(ctx context.Context) (rx, tx uint64, err error)
	CPUCounters(ctx context.Context) (CPUCounters, error)
}

// NewSource picks the counter source by kind: "procfs", "gopsutil", or
// "auto", which prefers procfs when root/stat exists.
func NewSource(kind, procRoot string, filter InterfaceFilter) (Source, error) {
	switch kind {
	case "procfs":
		return NewProcSource(procRoot, filter), nil
	case "gopsutil":
		return NewHostSource(filter), nil
	case "auto", "":
		if _, err := os.Stat(filepath.Join(procRoot, "stat")); err == nil {
			return NewProcSource(procRoot, filter), nil
		}
		return NewHostSource(filter), nil
	default:
		return nil, fmt.Errorf("unknown counter source %q", kind)
	}
}
