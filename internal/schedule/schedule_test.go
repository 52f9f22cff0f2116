package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTickerStartStop(t *testing.T) {
	var tk Ticker
	var calls atomic.Int64

	if !tk.Start(context.Background(), 5*time.Millisecond, func(context.Context, time.Time) { calls.Add(1) }) {
		t.Fatal("first start should succeed")
	}
	if tk.Start(context.Background(), time.Millisecond, func(context.Context, time.Time) {}) {
		t.Fatal("second start should be a no-op")
	}
	if !tk.Running() {
		t.Fatal("expected running")
	}

	deadline := time.Now().Add(time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if calls.Load() < 3 {
		t.Fatalf("expected at least 3 ticks, got %d", calls.Load())
	}

	if !tk.Stop() {
		t.Fatal("stop should report running loop")
	}
	after := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if calls.Load() != after {
		t.Fatalf("tick fired after Stop returned: %d -> %d", after, calls.Load())
	}
	if tk.Stop() {
		t.Fatal("second stop should be a no-op")
	}
	if tk.Running() {
		t.Fatal("expected stopped")
	}
}

func TestTickerStopWaitsForInFlightTick(t *testing.T) {
	var tk Ticker
	entered := make(chan struct{})
	var finished atomic.Bool

	tk.Start(context.Background(), time.Millisecond, func(context.Context, time.Time) {
		select {
		case entered <- struct{}{}:
		default:
		}
		time.Sleep(20 * time.Millisecond)
		finished.Store(true)
	})
	<-entered
	tk.Stop()
	if !finished.Load() {
		t.Fatal("Stop returned before the running tick completed")
	}
}

func TestTickerRestart(t *testing.T) {
	var tk Ticker
	var calls atomic.Int64
	fn := func(context.Context, time.Time) { calls.Add(1) }

	tk.Start(context.Background(), time.Millisecond, fn)
	tk.Stop()
	if !tk.Start(context.Background(), time.Millisecond, fn) {
		t.Fatal("restart after stop should succeed")
	}
	defer tk.Stop()
	before := calls.Load()
	deadline := time.Now().Add(time.Second)
	for calls.Load() == before && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if calls.Load() == before {
		t.Fatal("restarted ticker never fired")
	}
}

func TestCronMidnight(t *testing.T) {
	loc := time.FixedZone("EAT", 3*3600)
	c := NewCron(loc)
	if err := c.Add(context.Background(), "stats-rollover", Midnight, func() {}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := c.Add(context.Background(), "broken", "not a spec", func() {}); err == nil {
		t.Fatal("expected invalid spec error")
	}
	if c.Entries() != 1 {
		t.Fatalf("expected 1 entry, got %d", c.Entries())
	}
	c.Start()
	defer c.Stop()

	next := c.Next()
	deadline := time.Now().Add(time.Second)
	for next.IsZero() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
		next = c.Next()
	}
	n := next.In(loc)
	if n.Hour() != 0 || n.Minute() != 0 || n.Second() != 0 {
		t.Fatalf("expected next run at local midnight, got %v", n)
	}
}
