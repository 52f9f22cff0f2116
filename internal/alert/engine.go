// Package alert evaluates geofence and collar rules against the simulated
// fleet and owns the canonical alert list.
package alert

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"wildwatch-sim/internal/logging"
	"wildwatch-sim/internal/pubsub"
	"wildwatch-sim/internal/schedule"
	"wildwatch-sim/internal/telemetry"
	"wildwatch-sim/internal/zone"
)

// MaxAlerts bounds the retained alert list.
const MaxAlerts = 100

// EntitySource supplies the fleet snapshot evaluated on each pass.
type EntitySource interface {
	Snapshot() []telemetry.Entity
}

// Options tunes an Engine. Start from DefaultOptions.
type Options struct {
	Interval              time.Duration
	NearVillageRadiusKm   float64
	NearVillageWindow     time.Duration
	CriticalBatteryWindow time.Duration
	LowBatteryWindow      time.Duration
	// IncidentProbability of zero disables random incidents.
	IncidentProbability float64
	SeedAlerts          bool

	Rand     *rand.Rand
	Now      func() time.Time
	Location *time.Location
	Notifier Notifier
}

// DefaultOptions returns the reference tuning.
func DefaultOptions() Options {
	return Options{
		Interval:              60 * time.Second,
		NearVillageRadiusKm:   1,
		NearVillageWindow:     30 * time.Minute,
		CriticalBatteryWindow: 60 * time.Minute,
		LowBatteryWindow:      120 * time.Minute,
		IncidentProbability:   0.1,
	}
}

// Engine evaluates rules and owns the alert list.
type Engine struct {
	zones    *zone.Registry
	source   EntitySource
	interval time.Duration
	notifier Notifier
	now      func() time.Time
	loc      *time.Location

	entityRules []EntityRule
	passRules   []PassRule

	ticker schedule.Ticker

	mu     sync.Mutex
	rand   *rand.Rand
	alerts []Alert // newest first
	nextID int64

	alertsTopic  *pubsub.Topic[[]Alert]
	statsTopic   *pubsub.Topic[Stats]
	createdTopic *pubsub.Topic[Alert]
}

// NewEngine creates an engine over zones and source. Nil Rand, Now and
// Location fall back to a time-seeded source, time.Now and time.Local.
func NewEngine(zones *zone.Registry, source EntitySource, opts Options) *Engine {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultOptions().Interval
	}
	if zones == nil {
		zones = zone.NewRegistry(nil)
	}
	e := &Engine{
		zones:    zones,
		source:   source,
		interval: opts.Interval,
		notifier: opts.Notifier,
		now:      opts.Now,
		loc:      opts.Location,
		rand:     opts.Rand,
		nextID:   1,
		entityRules: []EntityRule{
			NearVillage{RadiusKm: opts.NearVillageRadiusKm, Window: opts.NearVillageWindow},
			CriticalBattery(opts.CriticalBatteryWindow),
			LowBattery(opts.LowBatteryWindow),
		},
		passRules: []PassRule{
			DefaultIncident(opts.IncidentProbability),
		},
		alertsTopic:  pubsub.NewTopic[[]Alert]("alerts"),
		statsTopic:   pubsub.NewTopic[Stats]("stats"),
		createdTopic: pubsub.NewTopic[Alert]("alerts.created"),
	}

	e.mu.Lock()
	if opts.SeedAlerts {
		e.seedLocked(e.now())
	}
	e.publishLocked(e.now())
	e.mu.Unlock()
	return e
}

// AlertsTopic streams the full alert list, newest first, after every change.
func (e *Engine) AlertsTopic() *pubsub.Topic[[]Alert] { return e.alertsTopic }

// StatsTopic streams aggregated statistics after every change.
func (e *Engine) StatsTopic() *pubsub.Topic[Stats] { return e.statsTopic }

// CreatedTopic streams each alert raised by evaluation once. Seeded
// demonstration alerts are not published here so external sinks only
// receive rule output.
func (e *Engine) CreatedTopic() *pubsub.Topic[Alert] { return e.createdTopic }

// Start begins periodic evaluation. It returns false if already running.
func (e *Engine) Start(ctx context.Context) bool {
	log := logging.FromContext(ctx)
	started := e.ticker.Start(ctx, e.interval, func(ctx context.Context, _ time.Time) {
		e.Evaluate(ctx)
	})
	if started {
		log.Info("alert monitoring started", "interval", e.interval)
	}
	return started
}

// Stop halts periodic evaluation. No pass starts after Stop returns.
func (e *Engine) Stop() bool {
	return e.ticker.Stop()
}

// IsRunning reports whether periodic evaluation is active.
func (e *Engine) IsRunning() bool { return e.ticker.Running() }

// Evaluate runs one pass over the current fleet snapshot and returns the
// alerts it created.
func (e *Engine) Evaluate(ctx context.Context) []Alert {
	log := logging.FromContext(ctx)
	var entities []telemetry.Entity
	if e.source != nil {
		entities = e.source.Snapshot()
	}

	e.mu.Lock()
	now := e.now()
	pass := &Pass{Now: now, Entities: entities, Zones: e.zones, Rand: e.rand}
	var created []Alert
	var firedBy []string
	raise := func(rule string, cands []Candidate) {
		for _, c := range cands {
			if a, ok := e.raiseLocked(c, now); ok {
				created = append(created, a)
				firedBy = append(firedBy, rule)
			}
		}
	}
	for _, ent := range entities {
		if !ent.IsActive {
			continue
		}
		for _, r := range e.entityRules {
			raise(r.Name(), r.Check(pass, ent))
		}
	}
	for _, r := range e.passRules {
		raise(r.Name(), r.Check(pass))
	}
	e.mu.Unlock()

	for i, a := range created {
		log.Info("alert raised", "rule", firedBy[i], "id", a.ID, "type", a.Type, "priority", a.Priority, "animal", a.AnimalID, "zone", a.ZoneID)
		if a.IsUrgent() {
			e.notify(log, a)
		}
	}
	return created
}

// raiseLocked applies dedup, inserts the alert and publishes. Callers hold e.mu.
func (e *Engine) raiseLocked(c Candidate, now time.Time) (Alert, bool) {
	if c.Window > 0 && e.recentLocked(c, now) {
		return Alert{}, false
	}
	a := c.Alert.Clone()
	a.Timestamp = now
	a.IsRead = false
	a.IsActive = true
	e.insertLocked(a)
	created := e.alerts[0].Clone()
	e.publishLocked(now)
	e.createdTopic.Publish(created)
	return created, true
}

func (e *Engine) recentLocked(c Candidate, now time.Time) bool {
	for _, a := range e.alerts {
		if !a.IsActive || a.Type != c.Type || a.AnimalID != c.AnimalID {
			continue
		}
		if c.ZoneID != "" && a.ZoneID != c.ZoneID {
			continue
		}
		if now.Sub(a.Timestamp) < c.Window {
			return true
		}
	}
	return false
}

// insertLocked assigns the next ID and prepends a, truncating the list.
func (e *Engine) insertLocked(a Alert) {
	a.ID = e.nextID
	e.nextID++
	e.alerts = append(e.alerts, Alert{})
	copy(e.alerts[1:], e.alerts)
	e.alerts[0] = a
	if len(e.alerts) > MaxAlerts {
		for i := MaxAlerts; i < len(e.alerts); i++ {
			e.alerts[i] = Alert{}
		}
		e.alerts = e.alerts[:MaxAlerts]
	}
}

func (e *Engine) publishLocked(now time.Time) {
	e.alertsTopic.Publish(cloneAll(e.alerts))
	e.statsTopic.Publish(ComputeStats(e.alerts, now, e.loc))
}

func (e *Engine) notify(log *slog.Logger, a Alert) {
	if e.notifier == nil {
		return
	}
	n := e.notifier
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warn("alert notifier failed", "id", a.ID, "panic", r)
			}
		}()
		n.OnHighPriorityAlert(a)
	}()
}

// MarkAsRead marks one alert read. Unknown IDs are ignored.
func (e *Engine) MarkAsRead(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.alerts {
		if e.alerts[i].ID == id {
			if !e.alerts[i].IsRead {
				e.alerts[i].IsRead = true
				e.publishLocked(e.now())
			}
			return
		}
	}
}

// MarkAllAsRead marks every alert read.
func (e *Engine) MarkAllAsRead() {
	e.mu.Lock()
	defer e.mu.Unlock()
	changed := false
	for i := range e.alerts {
		if !e.alerts[i].IsRead {
			e.alerts[i].IsRead = true
			changed = true
		}
	}
	if changed {
		e.publishLocked(e.now())
	}
}

// Dismiss deactivates one alert. It stays in the list but leaves the stats.
func (e *Engine) Dismiss(id int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.alerts {
		if e.alerts[i].ID == id {
			if e.alerts[i].IsActive {
				e.alerts[i].IsActive = false
				e.publishLocked(e.now())
			}
			return
		}
	}
}

// Alerts returns a copy of the list, newest first.
func (e *Engine) Alerts() []Alert {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneAll(e.alerts)
}

// Alert looks one alert up by ID.
func (e *Engine) Alert(id int64) (Alert, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, a := range e.alerts {
		if a.ID == id {
			return a.Clone(), true
		}
	}
	return Alert{}, false
}

// Stats computes statistics over the current list.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return ComputeStats(e.alerts, e.now(), e.loc)
}

// RefreshStats republishes statistics without a list change, so day and
// week counts roll over.
func (e *Engine) RefreshStats() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statsTopic.Publish(ComputeStats(e.alerts, e.now(), e.loc))
}

// Zones exposes the registry the engine evaluates against.
func (e *Engine) Zones() *zone.Registry { return e.zones }
