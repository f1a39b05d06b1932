package metrics

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestBusyPercent(t *testing.T) {
	prev := CPUCounters{100, 0, 100, 800}

	tests := []struct {
		name string
		cur  CPUCounters
		want float64
	}{
		{"all idle", CPUCounters{100, 0, 100, 900}, 0},
		{"no idle", CPUCounters{150, 0, 150, 800}, 100},
		{"quarter busy", CPUCounters{110, 0, 115, 875}, 25},
		{"rounds", CPUCounters{101, 0, 101, 801}, 67},
		{"no activity", prev, 100},
		{"counter reset", CPUCounters{5, 0, 5, 10}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := busyPercent(prev, tt.cur); got != tt.want {
				t.Errorf("busyPercent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCPUPercentStateZeroBeforeFirstTick(t *testing.T) {
	if got := NewCPUPercentState().Percent(); got != 0 {
		t.Errorf("Percent() = %v, want 0", got)
	}
}

func TestCPUSamplerPublishes(t *testing.T) {
	src := &fakeSource{cpu: CPUCounters{10, 0, 10, 80}}
	state := NewCPUPercentState()
	s := NewCPUSampler(src, state, 0, zap.NewNop())

	s.sample(context.Background())
	src.cpu = CPUCounters{20, 0, 20, 160}
	s.sample(context.Background())

	// 20 busy jiffies out of 100 since the previous tick.
	if got := state.Percent(); got != 20 {
		t.Errorf("Percent() = %v, want 20", got)
	}
}

func TestCPUSamplerSkipsFailedRead(t *testing.T) {
	src := &fakeSource{cpu: CPUCounters{10, 0, 10, 80}}
	state := NewCPUPercentState()
	s := NewCPUSampler(src, state, 0, zap.NewNop())

	s.sample(context.Background())
	before := state.Percent()

	src.cpuErr = errors.New("stat vanished")
	s.sample(context.Background())

	if got := state.Percent(); got != before {
		t.Errorf("Percent() changed on a failed tick: %v -> %v", before, got)
	}
}
