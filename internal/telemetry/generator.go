package telemetry

import (
	"math/rand"
	"time"

	"wildwatch-sim/internal/geo"
)

// DefaultJitterDeg is the per-axis position delta bound, roughly 100 m.
const DefaultJitterDeg = 0.001

// Generator advances collar readings for the simulated fleet.
type Generator struct {
	JitterDeg float64
	rand      *rand.Rand
}

// NewGenerator creates a generator drawing from r. A nil r uses a time-seeded source.
func NewGenerator(jitterDeg float64, r *rand.Rand) *Generator {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if jitterDeg <= 0 {
		jitterDeg = DefaultJitterDeg
	}
	return &Generator{JitterDeg: jitterDeg, rand: r}
}

// Step moves e one tick forward and returns the track sample to record.
// Inactive entities are not touched and yield ok=false.
func (g *Generator) Step(e *Entity, now time.Time) (TrackPoint, bool) {
	if !e.IsActive {
		return TrackPoint{}, false
	}

	// Movement
	e.Position = g.randomWalk(e.Position)
	e.SpeedKmh = Float(g.rand.Float64()*20 + 1)
	e.HeadingDeg = Float(g.rand.Float64() * 360)

	// Battery drain
	if e.BatteryLevel != nil && *e.BatteryLevel > 0 {
		level := *e.BatteryLevel - g.batteryDrain()
		if level < 0 {
			level = 0
		}
		e.BatteryLevel = Float(level)
	}

	e.LastSeenAt = now

	return TrackPoint{
		Lat:       e.Position.Lat,
		Lon:       e.Position.Lon,
		Timestamp: now,
		AccuracyM: g.rand.Float64()*10 + 5,
	}, true
}

// randomWalk shifts pos by a uniform delta in [-JitterDeg, +JitterDeg] on each axis.
func (g *Generator) randomWalk(pos geo.Point) geo.Point {
	dLat := (g.rand.Float64()*2 - 1) * g.JitterDeg
	dLon := (g.rand.Float64()*2 - 1) * g.JitterDeg
	return geo.Point{Lat: pos.Lat + dLat, Lon: pos.Lon + dLon}.Normalize()
}

// batteryDrain returns battery consumption per tick, uniform in [0, 2).
func (g *Generator) batteryDrain() float64 {
	return g.rand.Float64() * 2
}
