package metrics

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTaskTicksUntilStopped(t *testing.T) {
	var ticks atomic.Int64
	task := NewTask(5*time.Millisecond, func(context.Context) { ticks.Add(1) })

	task.Start(context.Background())
	task.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for ticks.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	task.Stop()

	if ticks.Load() < 3 {
		t.Fatalf("ticks = %d, want at least 3", ticks.Load())
	}

	stopped := ticks.Load()
	time.Sleep(20 * time.Millisecond)
	if got := ticks.Load(); got != stopped {
		t.Errorf("ticked after Stop: %d -> %d", stopped, got)
	}
}

func TestTaskStopsWithParentContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := NewTask(time.Hour, func(context.Context) {})

	task.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		task.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the parent context was cancelled")
	}
}

func TestTaskStopWithoutStart(t *testing.T) {
	NewTask(time.Second, func(context.Context) {}).Stop()
}
