package metrics

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/net"
)

// clockTicks converts gopsutil's CPU seconds back to USER_HZ jiffies so
// both sources feed the CPU sampler the same units.
const clockTicks = 100

// HostSource reads counters through gopsutil, for hosts without procfs.
type HostSource struct {
	filter InterfaceFilter
}

func NewHostSource(filter InterfaceFilter) *HostSource {
	return &HostSource{filter: filter}
}

func (h *HostSource) Uptime(ctx context.Context) uint64 {
	uptime, err := host.UptimeWithContext(ctx)
	if err != nil {
		return 0
	}
	return uptime
}

func (h *HostSource) LoadAverages(ctx context.Context) (float64, float64, float64) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil || avg == nil {
		return 0, 0, 0
	}
	return avg.Load1, avg.Load5, avg.Load15
}

func (h *HostSource) Memory(ctx context.Context) (MemoryInfo, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return MemoryInfo{}, fmt.Errorf("virtual memory: %w", err)
	}
	if vm.Total == 0 {
		return MemoryInfo{}, &MissingFieldError{Source: "gopsutil", Field: "MemTotal"}
	}

	swap, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return MemoryInfo{}, fmt.Errorf("swap memory: %w", err)
	}

	free := vm.Free + vm.Buffers + vm.Cached + vm.Sreclaimable
	return MemoryInfo{
		Total:     vm.Total / 1024,
		Used:      saturatingSub(vm.Total, free) / 1024,
		SwapTotal: swap.Total / 1024,
		SwapFree:  swap.Free / 1024,
	}, nil
}

func (h *HostSource) InterfaceCounters(ctx context.Context) (uint64, uint64, error) {
	counters, err := net.IOCountersWithContext(ctx, true)
	if err != nil {
		return 0, 0, fmt.Errorf("io counters: %w", err)
	}

	var rx, tx uint64
	for _, c := range counters {
		if h.filter.Ignored(c.Name) {
			continue
		}
		rx += c.BytesRecv
		tx += c.BytesSent
	}
	return rx, tx, nil
}

func (h *HostSource) CPUCounters(ctx context.Context) (CPUCounters, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return CPUCounters{}, fmt.Errorf("cpu times: %w", err)
	}
	if len(times) == 0 {
		return CPUCounters{}, fmt.Errorf("cpu times: no aggregate entry")
	}

	t := times[0]
	return CPUCounters{
		uint64(t.User * clockTicks),
		uint64(t.Nice * clockTicks),
		uint64(t.System * clockTicks),
		uint64(t.Idle * clockTicks),
	}, nil
}
