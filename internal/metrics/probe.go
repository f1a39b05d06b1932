package metrics

import (
	"context"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Prober checks outbound reachability over IPv4 and IPv6 by opening a TCP
// connection to a well-known host on each family.
type Prober struct {
	IPv4Addr string
	IPv6Addr string
	Timeout  time.Duration
	Log      *zap.Logger
}

func NewProber(ipv4Addr, ipv6Addr string, timeout time.Duration, log *zap.Logger) *Prober {
	return &Prober{
		IPv4Addr: ipv4Addr,
		IPv6Addr: ipv6Addr,
		Timeout:  timeout,
		Log:      log,
	}
}

// Probe dials both targets concurrently. Either may fail independently.
func (p *Prober) Probe(ctx context.Context) (ipv4 bool, ipv6 bool) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		ipv4 = p.reachable(ctx, "tcp4", p.IPv4Addr)
	}()
	go func() {
		defer wg.Done()
		ipv6 = p.reachable(ctx, "tcp6", p.IPv6Addr)
	}()
	wg.Wait()
	return ipv4, ipv6
}

func (p *Prober) reachable(ctx context.Context, network, addr string) bool {
	if addr == "" {
		return false
	}

	dialer := net.Dialer{Timeout: p.Timeout}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		if p.Log != nil {
			p.Log.Debug("probe failed", zap.String("network", network), zap.String("addr", addr), zap.Error(err))
		}
		return false
	}
	conn.Close()
	return true
}
