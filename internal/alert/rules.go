package alert

import (
	"fmt"
	"math/rand"
	"time"

	"wildwatch-sim/internal/geo"
	"wildwatch-sim/internal/telemetry"
	"wildwatch-sim/internal/zone"
)

// Pass is the input of one evaluation.
type Pass struct {
	Now      time.Time
	Entities []telemetry.Entity
	Zones    *zone.Registry
	Rand     *rand.Rand
}

// Candidate is an alert a rule wants to raise.
type Candidate struct {
	Alert
	// Window suppresses the candidate while an active alert with the same
	// type, animal and zone is younger than it. Zero never suppresses.
	Window time.Duration
}

// EntityRule inspects one active entity.
type EntityRule interface {
	Name() string
	Check(p *Pass, e telemetry.Entity) []Candidate
}

// PassRule runs once per evaluation, after the entity rules.
type PassRule interface {
	Name() string
	Check(p *Pass) []Candidate
}

// NearVillage fires when an entity is within RadiusKm of an active village centroid.
type NearVillage struct {
	RadiusKm float64
	Window   time.Duration
}

func (NearVillage) Name() string { return "near_village" }

func (r NearVillage) Check(p *Pass, e telemetry.Entity) []Candidate {
	var out []Candidate
	for _, v := range p.Zones.Villages() {
		dist := zone.DistanceKm(e.Position, v)
		if dist > r.RadiusKm {
			continue
		}
		prio := PriorityMedium
		if v.RiskLevel == zone.RiskHigh {
			prio = PriorityHigh
		}
		meta := map[string]any{
			"distance_km":        dist,
			"bearing_deg":        geo.BearingDeg(v.Centroid(), e.Position),
			"village_population": v.PopulationOrZero(),
		}
		if e.SpeedKmh != nil {
			meta["animal_speed_kmh"] = *e.SpeedKmh
		}
		out = append(out, Candidate{
			Alert: Alert{
				Type:     TypeAnimalNearVillage,
				Priority: prio,
				Title:    fmt.Sprintf("%s near %s", e.Species, v.Name),
				Message: fmt.Sprintf("%s (%s) has been detected within %gkm of %s (%.2f km from the village centre). Population at risk: %d people.",
					e.Name, e.Species, r.RadiusKm, v.Name, dist, v.PopulationOrZero()),
				Location: Location{Lat: e.Position.Lat, Lon: e.Position.Lon, Name: v.Name},
				AnimalID: e.ID,
				ZoneID:   v.ID,
				Source:   SourceGPSCollar,
				Metadata: meta,
			},
			Window: r.Window,
		})
	}
	return out
}

// BatteryBand raises a collar_malfunction alert while Min <= battery < Max.
type BatteryBand struct {
	RuleName string
	Min, Max float64
	Priority Priority
	Title    string
	Wording  string
	Window   time.Duration
}

// CriticalBattery fires below 10%.
func CriticalBattery(window time.Duration) BatteryBand {
	return BatteryBand{
		RuleName: "critical_battery",
		Min:      0,
		Max:      10,
		Priority: PriorityHigh,
		Title:    "Collar Battery Critical",
		Wording:  "critical battery level",
		Window:   window,
	}
}

// LowBattery fires from 10% up to but excluding 20%.
func LowBattery(window time.Duration) BatteryBand {
	return BatteryBand{
		RuleName: "low_battery",
		Min:      10,
		Max:      20,
		Priority: PriorityMedium,
		Title:    "Collar Battery Low",
		Wording:  "low battery",
		Window:   window,
	}
}

func (r BatteryBand) Name() string { return r.RuleName }

func (r BatteryBand) Check(_ *Pass, e telemetry.Entity) []Candidate {
	if e.BatteryLevel == nil {
		return nil
	}
	level := *e.BatteryLevel
	if level < r.Min || level >= r.Max {
		return nil
	}
	return []Candidate{{
		Alert: Alert{
			Type:     TypeCollarMalfunction,
			Priority: r.Priority,
			Title:    r.Title,
			Message:  fmt.Sprintf("GPS collar for %s (%s) has %s: %.1f%%", e.Name, e.Species, r.Wording, level),
			Location: Location{Lat: e.Position.Lat, Lon: e.Position.Lon},
			AnimalID: e.ID,
			Source:   SourceGPSCollar,
			Metadata: map[string]any{
				"battery_level": level,
				"collar_id":     e.CollarID,
			},
		},
		Window: r.Window,
	}}
}

var incidentTypes = []Type{TypePoacherDetected, TypeFenceBreach, TypeWildlifeConflict, TypeEmergency}

var incidentTitles = map[Type]string{
	TypePoacherDetected:  "Suspicious Activity Detected",
	TypeFenceBreach:      "Perimeter Breach Alert",
	TypeWildlifeConflict: "Human-Wildlife Conflict",
	TypeEmergency:        "Emergency Situation",
}

var incidentMessages = map[Type]string{
	TypePoacherDetected:  "Camera trap detected suspicious human activity near %s. Possible poaching attempt.",
	TypeFenceBreach:      "Perimeter fence breach detected in %s area. Wildlife may have crossed into restricted zone.",
	TypeWildlifeConflict: "Human-wildlife conflict reported near %s. Rangers dispatched to investigate.",
	TypeEmergency:        "Emergency situation reported in %s area. Immediate response required.",
}

// Incident injects a synthetic sensor alert with the given probability per pass.
type Incident struct {
	Probability float64
	// JitterDeg bounds the offset from the zone's first vertex on each axis.
	JitterDeg float64
	// HighShare is the probability of a high rather than medium priority.
	HighShare float64
}

// DefaultIncident matches the reference behaviour: 10% per pass, ±0.005°, 30% high.
func DefaultIncident(probability float64) Incident {
	return Incident{Probability: probability, JitterDeg: 0.005, HighShare: 0.3}
}

func (Incident) Name() string { return "random_incident" }

func (r Incident) Check(p *Pass) []Candidate {
	if r.Probability <= 0 || p.Zones.Len() == 0 {
		return nil
	}
	if p.Rand.Float64() >= r.Probability {
		return nil
	}
	typ := incidentTypes[p.Rand.Intn(len(incidentTypes))]
	z := p.Zones.At(p.Rand.Intn(p.Zones.Len()))
	prio := PriorityMedium
	if p.Rand.Float64() < r.HighShare {
		prio = PriorityHigh
	}
	var anchor Location
	if len(z.Boundaries) > 0 {
		anchor.Lat = z.Boundaries[0].Lat
		anchor.Lon = z.Boundaries[0].Lon
	}
	anchor.Lat += (p.Rand.Float64()*2 - 1) * r.JitterDeg
	anchor.Lon += (p.Rand.Float64()*2 - 1) * r.JitterDeg
	anchor.Name = z.Name

	return []Candidate{{Alert: Alert{
		Type:     typ,
		Priority: prio,
		Title:    incidentTitles[typ],
		Message:  fmt.Sprintf(incidentMessages[typ], z.Name),
		Location: anchor,
		ZoneID:   z.ID,
		Source:   SourceSensor,
		Metadata: map[string]any{
			"zone_type": string(z.Type),
			"generated": true,
		},
	}}}
}
