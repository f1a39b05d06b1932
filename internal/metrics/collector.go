package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stat-client/internal/tools"
)

// TrafficMode selects where network totals come from.
type TrafficMode int

const (
	// TrafficKernel sums live interface counters.
	TrafficKernel TrafficMode = iota
	// TrafficVnstat uses vnstat's accounting database and also fills the
	// last-period totals.
	TrafficVnstat
)

type DiskUsageReader interface {
	DiskUsage(ctx context.Context) (totalMB, usedMB uint64)
}

type TrafficAccountant interface {
	MonthlyTraffic(ctx context.Context, now time.Time) (tools.Traffic, error)
}

type ConnectivityProber interface {
	Probe(ctx context.Context) (ipv4, ipv6 bool)
}

// Collector assembles snapshots from synchronous collectors and the rate
// state published by the samplers.
type Collector struct {
	Version string
	Mode    TrafficMode
	// FatalOnMissingField makes memory and vnstat failures abort Sample.
	// Otherwise they are logged and the affected fields stay zero.
	FatalOnMissingField bool

	Source  Source
	Disk    DiskUsageReader
	Traffic TrafficAccountant
	// Prober may be nil, in which case both connectivity flags stay false.
	Prober ConnectivityProber

	CPU *CPUPercentState
	Net *NetSpeedState

	// Log defaults to a no-op logger.
	Log *zap.Logger
	Now func() time.Time
}

var errNoAccountant = errors.New("vnstat mode without a traffic accountant")

// Sample overwrites snap with a fresh reading. It only fails for the
// fatal-class collectors under FatalOnMissingField.
func (c *Collector) Sample(ctx context.Context, snap *Snapshot) error {
	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}

	*snap = Snapshot{
		Timestamp: now,
		Version:   c.Version,
		Vnstat:    c.Mode == TrafficVnstat,
	}

	snap.Uptime = c.Source.Uptime(ctx)
	snap.Load1, snap.Load5, snap.Load15 = c.Source.LoadAverages(ctx)

	mem, err := c.Source.Memory(ctx)
	if err != nil {
		if err := c.fail("memory", err); err != nil {
			return err
		}
	} else {
		snap.MemoryTotal = mem.Total
		snap.MemoryUsed = mem.Used
		snap.SwapTotal = mem.SwapTotal
		snap.SwapUsed = saturatingSub(mem.SwapTotal, mem.SwapFree)
	}

	if c.Disk != nil {
		snap.HddTotal, snap.HddUsed = c.Disk.DiskUsage(ctx)
	}

	switch c.Mode {
	case TrafficVnstat:
		if err := c.sampleVnstat(ctx, now, snap); err != nil {
			return err
		}
	default:
		rx, tx, err := c.Source.InterfaceCounters(ctx)
		if err != nil {
			c.logger().Debug("interface counters unavailable", zap.Error(err))
		}
		snap.NetworkIn, snap.NetworkOut = rx, tx
	}

	if c.Prober != nil {
		snap.Online4, snap.Online6 = c.Prober.Probe(ctx)
	}

	if c.CPU != nil {
		snap.CPU = c.CPU.Percent()
	}
	if c.Net != nil {
		snap.NetworkRx, snap.NetworkTx = c.Net.Rates()
	}

	return nil
}

func (c *Collector) sampleVnstat(ctx context.Context, now time.Time, snap *Snapshot) error {
	if c.Traffic == nil {
		return c.fail("traffic", errNoAccountant)
	}

	t, err := c.Traffic.MonthlyTraffic(ctx, now)
	if err != nil {
		return c.fail("traffic", err)
	}

	snap.NetworkIn = t.RxTotal
	snap.NetworkOut = t.TxTotal
	snap.LastNetworkIn = saturatingSub(t.RxTotal, t.RxMonth)
	snap.LastNetworkOut = saturatingSub(t.TxTotal, t.TxMonth)
	return nil
}

func (c *Collector) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

func (c *Collector) fail(what string, err error) error {
	if c.FatalOnMissingField {
		return fmt.Errorf("%s: %w", what, err)
	}
	c.logger().Warn("collector failed, fields left at zero", zap.String("collector", what), zap.Error(err))
	return nil
}
