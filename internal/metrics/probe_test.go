package metrics

import (
	"context"
	"net"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestProbeReachesListener(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	p := NewProber(ln.Addr().String(), "", time.Second, zap.NewNop())
	v4, v6 := p.Probe(context.Background())
	if !v4 {
		t.Error("ipv4 probe should succeed against a local listener")
	}
	if v6 {
		t.Error("ipv6 probe without a target should fail")
	}
}

func TestProbeUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	p := NewProber(addr, addr, 200*time.Millisecond, nil)
	v4, v6 := p.Probe(context.Background())
	if v4 || v6 {
		t.Errorf("Probe() = (%v, %v), want both false", v4, v6)
	}
}
