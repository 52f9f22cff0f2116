package sim

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"wildwatch-sim/internal/alert"
	"wildwatch-sim/internal/config"
	"wildwatch-sim/internal/logging"
	"wildwatch-sim/internal/schedule"
	"wildwatch-sim/internal/telemetry"
	"wildwatch-sim/internal/zone"
)

// SessionOptions injects randomness, time and notification.
type SessionOptions struct {
	// Seed feeds the simulator; the engine uses Seed+1. Zero means time-seeded.
	Seed     int64
	Now      func() time.Time
	Location *time.Location
	Notifier alert.Notifier
}

// Status is a point-in-time summary of the session.
type Status struct {
	SimulationRunning bool          `json:"simulation_running"`
	MonitoringRunning bool          `json:"monitoring_running"`
	TickInterval      time.Duration `json:"tick_interval"`
	Ticks             uint64        `json:"ticks"`
	Entities          int           `json:"entities"`
	Zones             int           `json:"zones"`
	Alerts            int           `json:"alerts"`
	StartedAt         time.Time     `json:"started_at"`
	// Streams maps each topic name to its open subscriptions.
	Streams map[string]int `json:"streams"`
}

// Session owns the simulator, the alert engine and the zone registry and is
// the single command surface for the admin API and the TUI.
type Session struct {
	Config    *config.SimulationConfig
	Zones     *zone.Registry
	Simulator *Simulator
	Engine    *alert.Engine

	cron      *schedule.Cron
	now       func() time.Time
	startedAt time.Time

	mu  sync.Mutex
	ctx context.Context
}

// NewSession builds the components from cfg without starting them.
func NewSession(cfg *config.SimulationConfig, opts SessionOptions) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	zones := zone.FromConfig(cfg.Zones)
	simulator := NewSimulator(cfg, rand.New(rand.NewSource(seed)), opts.Now)

	eo := alert.DefaultOptions()
	eo.Interval = cfg.Monitoring.EvaluationInterval
	if cfg.Monitoring.NearVillageRadiusKm > 0 {
		eo.NearVillageRadiusKm = cfg.Monitoring.NearVillageRadiusKm
	}
	if cfg.Monitoring.IncidentProbability != nil {
		eo.IncidentProbability = *cfg.Monitoring.IncidentProbability
	}
	eo.SeedAlerts = cfg.Monitoring.SeedAlerts
	eo.Rand = rand.New(rand.NewSource(seed + 1))
	eo.Now = opts.Now
	eo.Location = opts.Location
	eo.Notifier = opts.Notifier

	return &Session{
		Config:    cfg,
		Zones:     zones,
		Simulator: simulator,
		Engine:    alert.NewEngine(zones, simulator, eo),
		cron:      schedule.NewCron(opts.Location),
		now:       opts.Now,
		ctx:       context.Background(),
	}
}

// Start runs the simulator, the engine when auto-start is on, and the
// midnight stats refresh. ctx bounds every loop started later by commands.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.startedAt = s.now()
	s.mu.Unlock()

	if err := s.cron.Add(ctx, "refresh-stats", schedule.Midnight, s.Engine.RefreshStats); err != nil {
		return err
	}
	s.cron.Start()
	s.StartSimulation()
	if s.Config.MonitoringAutoStart() {
		s.StartMonitoring()
	}
	return nil
}

// Close stops every loop and waits for them.
func (s *Session) Close() {
	s.StopMonitoring()
	s.StopSimulation()
	s.cron.Stop()
}

func (s *Session) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// StartSimulation starts telemetry ticks. False means already running.
func (s *Session) StartSimulation() bool {
	return s.Simulator.Start(s.baseContext())
}

// StopSimulation stops telemetry ticks. False means not running.
func (s *Session) StopSimulation() bool {
	ok := s.Simulator.Stop()
	if ok {
		logging.FromContext(s.baseContext()).Info("simulation stopped")
	}
	return ok
}

// StartMonitoring starts rule evaluation. False means already running.
func (s *Session) StartMonitoring() bool {
	return s.Engine.Start(s.baseContext())
}

// StopMonitoring stops rule evaluation. False means not running.
func (s *Session) StopMonitoring() bool {
	ok := s.Engine.Stop()
	if ok {
		logging.FromContext(s.baseContext()).Info("alert monitoring stopped")
	}
	return ok
}

// ToggleSimulation flips the simulator and reports whether it now runs.
func (s *Session) ToggleSimulation() bool {
	if s.StopSimulation() {
		return false
	}
	return s.StartSimulation() || s.Simulator.IsRunning()
}

// ToggleMonitoring flips the engine and reports whether it now runs.
func (s *Session) ToggleMonitoring() bool {
	if s.StopMonitoring() {
		return false
	}
	return s.StartMonitoring() || s.Engine.IsRunning()
}

// Status summarizes the session.
func (s *Session) Status() Status {
	s.mu.Lock()
	started := s.startedAt
	s.mu.Unlock()
	return Status{
		SimulationRunning: s.Simulator.IsRunning(),
		MonitoringRunning: s.Engine.IsRunning(),
		TickInterval:      s.Simulator.TickInterval(),
		Ticks:             s.Simulator.Ticks(),
		Entities:          len(s.Simulator.Snapshot()),
		Zones:             s.Zones.Len(),
		Alerts:            len(s.Engine.Alerts()),
		StartedAt:         started,
		Streams:           s.streams(),
	}
}

func (s *Session) streams() map[string]int {
	out := make(map[string]int, 5)
	for _, t := range []interface {
		Name() string
		Subscribers() int
	}{
		s.Simulator.EntitiesTopic(),
		s.Simulator.TracksTopic(),
		s.Engine.AlertsTopic(),
		s.Engine.StatsTopic(),
		s.Engine.CreatedTopic(),
	} {
		out[t.Name()] = t.Subscribers()
	}
	return out
}

// MarkAllAsRead marks every alert read.
func (s *Session) MarkAllAsRead() { s.Engine.MarkAllAsRead() }

// AddEntity adds an entity to the running fleet.
func (s *Session) AddEntity(spec EntitySpec) telemetry.Entity {
	e := s.Simulator.AddEntity(spec)
	logging.FromContext(s.baseContext()).Info("entity added", "id", e.ID, "species", e.Species)
	return e
}
