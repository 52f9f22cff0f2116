package sim

import (
	"context"
	"time"

	"wildwatch-sim/internal/logging"
)

// Start launches the tick loop. It returns false if already running.
func (s *Simulator) Start(ctx context.Context) bool {
	started := s.ticker.Start(ctx, s.tickInterval, func(ctx context.Context, _ time.Time) {
		s.tick(ctx)
	})
	if started {
		logging.FromContext(ctx).Info("starting simulator", "tick_interval", s.tickInterval)
	}
	return started
}

// Stop halts the tick loop and waits for an in-flight tick to finish.
func (s *Simulator) Stop() bool {
	return s.ticker.Stop()
}

// IsRunning reports whether the tick loop is active.
func (s *Simulator) IsRunning() bool { return s.ticker.Running() }

// Run starts the simulation loop and stops when the context is done.
func (s *Simulator) Run(ctx context.Context) {
	s.Start(ctx)
	<-ctx.Done()
	s.Stop()
	logging.FromContext(ctx).Info("stopping simulator")
}

// tick advances every active entity, records track samples and publishes
// the new state, all under one lock.
func (s *Simulator) tick(ctx context.Context) {
	log := logging.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	moved := 0
	for _, e := range s.entities {
		pt, ok := s.gen.Step(e, now)
		if !ok {
			continue
		}
		s.tracks[e.ID].Append(pt)
		moved++
	}
	s.ticks++
	s.publishLocked()
	log.Debug("tick", "n", s.ticks, "moved", moved)
}
