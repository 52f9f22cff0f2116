// Package schedule runs the periodic loops of the simulator and rule engine.
package schedule

import (
	"context"
	"sync"
	"time"
)

// Ticker calls a function every interval on its own goroutine until stopped.
// The zero value is ready to use.
type Ticker struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Start launches the loop. It returns false if the loop is already running.
// fn must not call Stop on the same Ticker.
func (t *Ticker) Start(ctx context.Context, interval time.Duration, fn func(context.Context, time.Time)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		return false
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		defer close(done)
		tk := time.NewTicker(interval)
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-tk.C:
				// a stop racing with a tick wins
				if ctx.Err() != nil {
					return
				}
				fn(ctx, now)
			}
		}
	}()
	return true
}

// Stop cancels the loop and waits for it to exit. After Stop returns no
// further call to fn begins. It returns false if the loop was not running.
func (t *Ticker) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel == nil {
		return false
	}
	t.cancel()
	<-t.done
	t.cancel = nil
	t.done = nil
	return true
}

// Running reports whether the loop is active. A loop whose parent context
// was cancelled counts as running until Stop is called.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancel != nil
}
