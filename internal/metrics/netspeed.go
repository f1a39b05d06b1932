package metrics

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NetSpeedState holds the latest receive and transmit throughput published
// by a NetSampler, along with the cumulative counters of the last tick.
type NetSpeedState struct {
	mu    sync.Mutex
	clock float64
	avgRx uint64
	avgTx uint64
	netRx uint64
	netTx uint64
}

func NewNetSpeedState() *NetSpeedState {
	return &NetSpeedState{}
}

// Rates returns bytes per second received and transmitted.
func (s *NetSpeedState) Rates() (uint64, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.netRx, s.netTx
}

// publish records the counters read at now (seconds since the epoch).
// When no time has passed the previous rates are kept.
func (s *NetSpeedState) publish(now float64, rx, tx uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := now - s.clock
	if elapsed > 0 {
		s.netRx = counterRate(s.avgRx, rx, elapsed)
		s.netTx = counterRate(s.avgTx, tx, elapsed)
	}
	s.clock = now
	s.avgRx = rx
	s.avgTx = tx
}

// counterRate truncates (cur-prev)/elapsed. A reset counter yields 0.
func counterRate(prev, cur uint64, elapsed float64) uint64 {
	if cur < prev || elapsed <= 0 {
		return 0
	}
	return uint64(float64(cur-prev) / elapsed)
}

// NetSampler periodically publishes interface throughput into a NetSpeedState.
type NetSampler struct {
	*Task
	src   Source
	state *NetSpeedState
	log   *zap.Logger
	now   func() time.Time
}

func NewNetSampler(src Source, state *NetSpeedState, interval time.Duration, log *zap.Logger) *NetSampler {
	s := &NetSampler{src: src, state: state, log: log, now: time.Now}
	s.Task = NewTask(interval, s.sample)
	return s
}

func (s *NetSampler) sample(ctx context.Context) {
	rx, tx, err := s.src.InterfaceCounters(ctx)
	if err != nil {
		s.log.Debug("network sample skipped", zap.Error(err))
		return
	}

	now := float64(s.now().UnixNano()) / float64(time.Second)
	s.state.publish(now, rx, tx)
}
