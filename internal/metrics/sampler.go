package metrics

import (
	"context"
	"sync"
	"time"
)

// Task runs tick once immediately and then on every interval until Stop is
// called or the parent context passed to Start is cancelled.
type Task struct {
	interval time.Duration
	tick     func(ctx context.Context)

	mu     sync.Mutex
	cancel context.CancelFunc
	doneCh chan struct{}
}

func NewTask(interval time.Duration, tick func(ctx context.Context)) *Task {
	return &Task{interval: interval, tick: tick}
}

// Start launches the loop. Calling Start on a running task does nothing.
func (t *Task) Start(ctx context.Context) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cancel != nil {
		return
	}

	ctx, t.cancel = context.WithCancel(ctx)
	t.doneCh = make(chan struct{})
	go t.run(ctx, t.doneCh)
}

// Stop cancels the loop and waits for the in-flight tick to finish.
func (t *Task) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.doneCh
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (t *Task) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	t.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}
