package metrics

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

// CPUPercentState holds the latest busy percentage published by a
// CPUSampler. The zero value reads as 0% until the first tick.
type CPUPercentState struct {
	mu      sync.Mutex
	percent float64
	prev    CPUCounters
}

func NewCPUPercentState() *CPUPercentState {
	return &CPUPercentState{}
}

func (s *CPUPercentState) Percent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.percent
}

func (s *CPUPercentState) publish(cur CPUCounters) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.percent = busyPercent(s.prev, cur)
	s.prev = cur
	return s.percent
}

// busyPercent returns the rounded share of non-idle time between two
// counter reads. A counter that went backwards is counted from zero.
func busyPercent(prev, cur CPUCounters) float64 {
	var total, idle uint64
	for i := range cur {
		d := cur[i]
		if cur[i] >= prev[i] {
			d = cur[i] - prev[i]
		}
		total += d
		if i == cpuIdle {
			idle = d
		}
	}
	if total == 0 {
		total = 1
	}

	busy := math.Round(100 - 100*float64(idle)/float64(total))
	return math.Max(0, math.Min(100, busy))
}

// CPUSampler periodically publishes CPU utilisation into a CPUPercentState.
type CPUSampler struct {
	*Task
	src   Source
	state *CPUPercentState
	log   *zap.Logger
}

func NewCPUSampler(src Source, state *CPUPercentState, interval time.Duration, log *zap.Logger) *CPUSampler {
	s := &CPUSampler{src: src, state: state, log: log}
	s.Task = NewTask(interval, s.sample)
	return s
}

func (s *CPUSampler) sample(ctx context.Context) {
	cur, err := s.src.CPUCounters(ctx)
	if err != nil {
		s.log.Debug("cpu sample skipped", zap.Error(err))
		return
	}
	pct := s.state.publish(cur)
	s.log.Debug("cpu sampled", zap.Float64("percent", pct))
}
