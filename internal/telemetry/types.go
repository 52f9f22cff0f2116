// Telemetry structs with greptime tags
package telemetry

import (
	"os"
	"time"

	"wildwatch-sim/internal/geo"
)

// Health of a collared animal.
type Health string

const (
	HealthHealthy Health = "healthy"
	HealthInjured Health = "injured"
	HealthSick    Health = "sick"
	HealthUnknown Health = "unknown"
)

// Gender of a collared animal. Empty means unset.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderUnknown Gender = "unknown"
)

// ConservationStatus of the species. Empty means unset.
type ConservationStatus string

const (
	StatusEndangered ConservationStatus = "endangered"
	StatusVulnerable ConservationStatus = "vulnerable"
	StatusStable     ConservationStatus = "stable"
	StatusUnknown    ConservationStatus = "unknown"
)

// Entity holds runtime state for one collared animal.
type Entity struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Species            string             `json:"species"`
	Position           geo.Point          `json:"position"`
	LastSeenAt         time.Time          `json:"last_seen_at"`
	CollarID           string             `json:"collar_id"`
	IsActive           bool               `json:"is_active"`
	BatteryLevel       *float64           `json:"battery_level,omitempty"`
	SpeedKmh           *float64           `json:"speed_kmh,omitempty"`
	HeadingDeg         *float64           `json:"heading_deg,omitempty"`
	Health             Health             `json:"health"`
	AgeYears           *int               `json:"age_years,omitempty"`
	Gender             Gender             `json:"gender,omitempty"`
	ConservationStatus ConservationStatus `json:"conservation_status,omitempty"`
}

// Clone returns a deep copy; optional fields do not alias the original.
func (e Entity) Clone() Entity {
	c := e
	c.BatteryLevel = cloneFloat(e.BatteryLevel)
	c.SpeedKmh = cloneFloat(e.SpeedKmh)
	c.HeadingDeg = cloneFloat(e.HeadingDeg)
	if e.AgeYears != nil {
		v := *e.AgeYears
		c.AgeYears = &v
	}
	return c
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float returns a pointer to v, for optional fields.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v, for optional fields.
func Int(v int) *int { return &v }

// TrackLimit is the number of samples retained per track.
const TrackLimit = 100

// TrackPoint is one historical position sample.
type TrackPoint struct {
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Timestamp time.Time `json:"ts"`
	AccuracyM float64   `json:"accuracy_m"`
}

// Track is the bounded position history of one entity, oldest first.
type Track struct {
	EntityID string       `json:"entity_id"`
	Points   []TrackPoint `json:"points"`
}

// Append adds p and drops the oldest samples beyond TrackLimit.
func (t *Track) Append(p TrackPoint) {
	t.Points = append(t.Points, p)
	if over := len(t.Points) - TrackLimit; over > 0 {
		t.Points = append(t.Points[:0:0], t.Points[over:]...)
	}
}

// Clone returns a copy with its own point slice.
func (t Track) Clone() Track {
	return Track{EntityID: t.EntityID, Points: append([]TrackPoint(nil), t.Points...)}
}

// EntityRow represents one telemetry record for GreptimeDB and the other sinks.
type EntityRow struct {
	EntityID   string    `json:"entity_id"`  // TAG
	CollarID   string    `json:"collar_id"`  // TAG
	Species    string    `json:"species"`    // TAG
	Name       string    `json:"name"`       // FIELD
	Lat        float64   `json:"lat"`        // FIELD
	Lon        float64   `json:"lon"`        // FIELD
	Battery    float64   `json:"battery"`    // FIELD, -1 when the collar reports none
	SpeedKmh   float64   `json:"speed_kmh"`  // FIELD
	HeadingDeg float64   `json:"heading"`    // FIELD
	Health     string    `json:"health"`     // FIELD
	Active     bool      `json:"active"`     // FIELD
	Timestamp  time.Time `json:"ts"`         // TIME INDEX
}

// TelemetryTableName holds the table name used when writing to GreptimeDB.
// It defaults to "wildlife_telemetry" but can be overridden via the
// GREPTIMEDB_TABLE environment variable.
var TelemetryTableName = func() string {
	if env := os.Getenv("GREPTIMEDB_TABLE"); env != "" {
		return env
	}
	return "wildlife_telemetry"
}()

func (EntityRow) TableName() string {
	return TelemetryTableName
}

// Row flattens e for the sinks.
func (e Entity) Row() EntityRow {
	row := EntityRow{
		EntityID:  e.ID,
		CollarID:  e.CollarID,
		Species:   e.Species,
		Name:      e.Name,
		Lat:       e.Position.Lat,
		Lon:       e.Position.Lon,
		Battery:   -1,
		Health:    string(e.Health),
		Active:    e.IsActive,
		Timestamp: e.LastSeenAt,
	}
	if e.BatteryLevel != nil {
		row.Battery = *e.BatteryLevel
	}
	if e.SpeedKmh != nil {
		row.SpeedKmh = *e.SpeedKmh
	}
	if e.HeadingDeg != nil {
		row.HeadingDeg = *e.HeadingDeg
	}
	return row
}

// Rows flattens a snapshot.
func Rows(entities []Entity) []EntityRow {
	rows := make([]EntityRow, len(entities))
	for i, e := range entities {
		rows[i] = e.Row()
	}
	return rows
}
