// Simulator orchestrating collared animals and telemetry ticks
package sim

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"wildwatch-sim/internal/config"
	"wildwatch-sim/internal/geo"
	"wildwatch-sim/internal/pubsub"
	"wildwatch-sim/internal/schedule"
	"wildwatch-sim/internal/telemetry"
)

// DefaultPosition is used when an added entity has no valid position.
var DefaultPosition = geo.Point{Lat: -1.2921, Lon: 36.8219}

// Simulator owns the fleet and its tracks and advances them on every tick.
type Simulator struct {
	gen          *telemetry.Generator
	tickInterval time.Duration
	now          func() time.Time
	ticker       schedule.Ticker

	mu       sync.Mutex
	entities []*telemetry.Entity
	index    map[string]*telemetry.Entity
	tracks   map[string]*telemetry.Track
	ticks    uint64

	entitiesTopic *pubsub.Topic[[]telemetry.Entity]
	tracksTopic   *pubsub.Topic[[]telemetry.Track]
}

// NewSimulator initializes the fleet from cfg. A nil r uses a time-seeded
// source; a nil now uses time.Now.
func NewSimulator(cfg *config.SimulationConfig, r *rand.Rand, now func() time.Time) *Simulator {
	if now == nil {
		now = time.Now
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	interval := cfg.Simulation.TickInterval
	if interval <= 0 {
		interval = config.DefaultTickInterval
	}
	s := &Simulator{
		gen:           telemetry.NewGenerator(cfg.Simulation.PositionJitterDeg, r),
		tickInterval:  interval,
		now:           now,
		index:         make(map[string]*telemetry.Entity),
		tracks:        make(map[string]*telemetry.Track),
		entitiesTopic: pubsub.NewTopic[[]telemetry.Entity]("entities"),
		tracksTopic:   pubsub.NewTopic[[]telemetry.Track]("tracks"),
	}

	s.mu.Lock()
	ts := s.now()
	for _, ce := range cfg.Entities {
		s.addLocked(specFromConfig(ce), ts)
	}
	s.publishLocked()
	s.mu.Unlock()
	return s
}

// EntitiesTopic streams a fresh fleet snapshot after every tick and add.
func (s *Simulator) EntitiesTopic() *pubsub.Topic[[]telemetry.Entity] { return s.entitiesTopic }

// TracksTopic streams all tracks after every tick and add.
func (s *Simulator) TracksTopic() *pubsub.Topic[[]telemetry.Track] { return s.tracksTopic }

// TickInterval returns the configured tick period.
func (s *Simulator) TickInterval() time.Duration { return s.tickInterval }

// AddEntity creates an entity from a partial description, filling defaults.
// It never fails: a taken ID is made unique, a bad position is replaced.
func (s *Simulator) AddEntity(spec EntitySpec) telemetry.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.addLocked(spec, s.now())
	s.publishLocked()
	return e.Clone()
}

func (s *Simulator) addLocked(spec EntitySpec, ts time.Time) *telemetry.Entity {
	e := spec.build()
	e.ID = s.uniqueIDLocked(e.ID)
	e.LastSeenAt = ts

	s.entities = append(s.entities, &e)
	s.index[e.ID] = &e
	tr := &telemetry.Track{EntityID: e.ID}
	tr.Append(telemetry.TrackPoint{Lat: e.Position.Lat, Lon: e.Position.Lon, Timestamp: ts, AccuracyM: 5})
	s.tracks[e.ID] = tr
	return &e
}

func (s *Simulator) uniqueIDLocked(id string) string {
	if id == "" {
		id = "custom-" + uuid.NewString()
	}
	for {
		if _, taken := s.index[id]; !taken {
			return id
		}
		id = id + "-" + uuid.NewString()[:8]
	}
}

// Snapshot returns a deep copy of every entity in insertion order.
func (s *Simulator) Snapshot() []telemetry.Entity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// TracksSnapshot returns a copy of every track in entity order.
func (s *Simulator) TracksSnapshot() []telemetry.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracksLocked()
}

// Entity looks an entity up by ID.
func (s *Simulator) Entity(id string) (telemetry.Entity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.index[id]
	if !ok {
		return telemetry.Entity{}, false
	}
	return e.Clone(), true
}

// Track looks a track up by entity ID.
func (s *Simulator) Track(id string) (telemetry.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[id]
	if !ok {
		return telemetry.Track{}, false
	}
	return t.Clone(), true
}

// Ticks returns the number of completed ticks.
func (s *Simulator) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

func (s *Simulator) snapshotLocked() []telemetry.Entity {
	out := make([]telemetry.Entity, len(s.entities))
	for i, e := range s.entities {
		out[i] = e.Clone()
	}
	return out
}

func (s *Simulator) tracksLocked() []telemetry.Track {
	out := make([]telemetry.Track, 0, len(s.entities))
	for _, e := range s.entities {
		out = append(out, s.tracks[e.ID].Clone())
	}
	return out
}

// publishLocked enqueues fresh copies while the fleet lock is held so
// subscribers see snapshots in mutation order.
func (s *Simulator) publishLocked() {
	s.entitiesTopic.Publish(s.snapshotLocked())
	s.tracksTopic.Publish(s.tracksLocked())
}
