package sim

import (
	"math"

	"wildwatch-sim/internal/config"
	"wildwatch-sim/internal/geo"
	"wildwatch-sim/internal/telemetry"
)

// EntitySpec is a partial entity description. Every field may be omitted.
type EntitySpec struct {
	ID                 string                       `json:"id,omitempty"`
	Name               string                       `json:"name,omitempty"`
	Species            string                       `json:"species,omitempty"`
	Position           *geo.Point                   `json:"position,omitempty"`
	CollarID           string                       `json:"collar_id,omitempty"`
	IsActive           *bool                        `json:"is_active,omitempty"`
	BatteryLevel       *float64                     `json:"battery_level,omitempty"`
	SpeedKmh           *float64                     `json:"speed_kmh,omitempty"`
	HeadingDeg         *float64                     `json:"heading_deg,omitempty"`
	Health             telemetry.Health             `json:"health,omitempty"`
	AgeYears           *int                         `json:"age_years,omitempty"`
	Gender             telemetry.Gender             `json:"gender,omitempty"`
	ConservationStatus telemetry.ConservationStatus `json:"conservation_status,omitempty"`
}

func specFromConfig(c config.Entity) EntitySpec {
	pos := geo.Point{Lat: c.Lat, Lon: c.Lon}
	return EntitySpec{
		ID:                 c.ID,
		Name:               c.Name,
		Species:            c.Species,
		Position:           &pos,
		CollarID:           c.CollarID,
		IsActive:           c.Active,
		BatteryLevel:       c.BatteryLevel,
		SpeedKmh:           c.SpeedKmh,
		HeadingDeg:         c.HeadingDeg,
		Health:             telemetry.Health(c.Health),
		AgeYears:           c.AgeYears,
		Gender:             telemetry.Gender(c.Gender),
		ConservationStatus: telemetry.ConservationStatus(c.ConservationStatus),
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// build fills defaults. The ID is left for the simulator to resolve.
func (s EntitySpec) build() telemetry.Entity {
	e := telemetry.Entity{
		ID:                 s.ID,
		Name:               s.Name,
		Species:            s.Species,
		Position:           DefaultPosition,
		CollarID:           s.CollarID,
		IsActive:           true,
		BatteryLevel:       telemetry.Float(100),
		SpeedKmh:           telemetry.Float(0),
		HeadingDeg:         telemetry.Float(0),
		Health:             s.Health,
		Gender:             s.Gender,
		ConservationStatus: s.ConservationStatus,
	}
	if e.Name == "" {
		e.Name = "Unknown"
	}
	if e.Species == "" {
		e.Species = "Unknown Species"
	}
	if s.Position != nil && s.Position.Valid() {
		e.Position = *s.Position
	}
	if s.IsActive != nil {
		e.IsActive = *s.IsActive
	}
	if s.BatteryLevel != nil && finite(*s.BatteryLevel) {
		e.BatteryLevel = telemetry.Float(math.Max(0, math.Min(100, *s.BatteryLevel)))
	}
	if s.SpeedKmh != nil && finite(*s.SpeedKmh) && *s.SpeedKmh >= 0 {
		e.SpeedKmh = telemetry.Float(*s.SpeedKmh)
	}
	if s.HeadingDeg != nil && finite(*s.HeadingDeg) {
		h := math.Mod(*s.HeadingDeg, 360)
		if h < 0 {
			h += 360
		}
		e.HeadingDeg = telemetry.Float(h)
	}
	if s.AgeYears != nil && *s.AgeYears >= 0 {
		e.AgeYears = telemetry.Int(*s.AgeYears)
	}
	switch e.Health {
	case telemetry.HealthHealthy, telemetry.HealthInjured, telemetry.HealthSick, telemetry.HealthUnknown:
	default:
		e.Health = telemetry.HealthUnknown
	}
	switch e.Gender {
	case telemetry.GenderMale, telemetry.GenderFemale, telemetry.GenderUnknown:
	default:
		e.Gender = telemetry.GenderUnknown
	}
	switch e.ConservationStatus {
	case telemetry.StatusEndangered, telemetry.StatusVulnerable, telemetry.StatusStable, telemetry.StatusUnknown:
	default:
		e.ConservationStatus = telemetry.StatusUnknown
	}
	return e
}
