package sim

import (
	"context"
	"sync"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/logging"
	"wildwatch-sim/internal/pubsub"
	"wildwatch-sim/internal/telemetry"
)

// Relay forwards session output to a writer until ctx is done. Entity
// snapshots go to w; created alerts and stats go to w when it implements
// AlertWriter or StatsWriter.
func Relay(ctx context.Context, s *Session, w TelemetryWriter) {
	log := logging.FromContext(ctx)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		forward(ctx, s.Simulator.EntitiesTopic(), func(v []telemetry.Entity) {
			writeRows(log, w, telemetry.Rows(v))
		})
	}()

	if aw, ok := w.(AlertWriter); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			forward(ctx, s.Engine.CreatedTopic(), func(a alert.Alert) {
				if err := aw.WriteAlert(a); err != nil {
					log.Error("alert write failed", "id", a.ID, "err", err)
				}
			})
		}()
	}

	if sw, ok := w.(StatsWriter); ok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			forward(ctx, s.Engine.StatsTopic(), func(st alert.Stats) {
				if err := sw.WriteStats(st); err != nil {
					log.Error("stats write failed", "err", err)
				}
			})
		}()
	}

	wg.Wait()
}

func forward[T any](ctx context.Context, t *pubsub.Topic[T], fn func(T)) {
	sub := t.Subscribe()
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-sub.C():
			if !ok {
				return
			}
			fn(v)
		}
	}
}
